package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(refundCmd)
}

var refundCmd = &cobra.Command{
	Use:   "refund <orderId> [ticketId]",
	Short: "List an order's refundable tickets, or return one of them.",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		orderId, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid order id %q\n", args[0])
			os.Exit(1)
		}

		if len(args) == 1 {
			tickets, err := client.RefundableTickets(cmd.Context(), orderId, Session)
			if err != nil {
				fmt.Fprintln(os.Stderr, err.Error())
				os.Exit(1)
			}

			t := newTable()
			t.AppendHeader(table.Row{"Rider", "Ticket", "Refundable"})
			for _, ticket := range tickets {
				t.AppendRow(table.Row{ticket.Name, ticket.TicketId, ticket.Refundable})
			}
			t.Render()
			return
		}

		msg, err := client.ReturnTicket(cmd.Context(), orderId, args[1], Session)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		fmt.Println(msg)
	},
}
