package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(ticketsCmd)
}

var ticketsCmd = &cobra.Command{
	Use:   "tickets <orderId>",
	Short: "Show the electronic tickets of a paid order.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		orderId, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid order id %q\n", args[0])
			os.Exit(1)
		}

		page, err := client.TicketData(cmd.Context(), orderId, Session)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		fmt.Printf(
			"%s -> %s, %s %s %s, bus %s, board at %s\n",
			page.Bus.RoadFrom, page.Bus.RoadTo,
			page.Bus.Year, page.Bus.Week, page.Bus.Time,
			page.Bus.BusId, page.Bus.TakeStation,
		)

		t := newTable()
		t.AppendHeader(table.Row{"Ticket", "Rider", "Seat"})
		for _, ticket := range page.Tickets {
			t.AppendRow(table.Row{ticket.TicketId, ticket.Passenger, ticket.Seat})
		}
		t.Render()
	},
}
