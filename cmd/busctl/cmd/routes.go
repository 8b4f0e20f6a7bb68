package cmd

import (
	"nanyuan-backend/lib/scrapers/schoolbus"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(routesCmd)
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the bus routes the portal knows about.",
	Run: func(cmd *cobra.Command, args []string) {
		t := newTable()
		t.AppendHeader(table.Row{"Id", "Route"})
		for _, route := range schoolbus.Routes() {
			t.AppendRow(table.Row{int(route), route.String()})
		}
		t.Render()
	},
}
