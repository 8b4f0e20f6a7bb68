package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule <route> <date>",
	Short: "Show the timeslots of a route on a date (YYYY-MM-DD). The route can be a fuzzy name.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		route := resolveRoute(args[0])
		date := args[1]

		schedule, err := client.Schedule(cmd.Context(), route, date, Session)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		fmt.Printf("%s on %s\n", schedule.Route, schedule.Date)

		t := newTable()
		t.AppendHeader(table.Row{"Schedule", "Departs", "Price", "Seats left", "Stations"})
		for _, slot := range schedule.Timeslots {
			t.AppendRow(table.Row{
				slot.ScheduleId,
				slot.StartTime,
				slot.Price,
				slot.Surplus,
				strings.Join(slot.TakeStations, ", "),
			})
		}
		t.Render()
	},
}
