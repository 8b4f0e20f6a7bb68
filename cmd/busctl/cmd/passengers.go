package cmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(passengersCmd)
}

var passengersCmd = &cobra.Command{
	Use:   "passengers",
	Short: "List the riders registered on the portal account.",
	Run: func(cmd *cobra.Command, args []string) {
		passengers, err := client.Passengers(cmd.Context(), Session)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Id", "Name", "Phone"})
		for _, p := range passengers {
			t.AppendRow(table.Row{p.Id, p.Name, p.Phone})
		}
		t.Render()
	},
}
