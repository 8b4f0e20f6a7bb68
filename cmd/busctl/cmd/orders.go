package cmd

import (
	"fmt"
	"os"

	"nanyuan-backend/lib/scrapers/schoolbus"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(ordersCmd)
}

var ordersCmd = &cobra.Command{
	Use:   "orders <waiting|pending>",
	Short: "List orders waiting for the ride, or orders pending payment.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var orders []schoolbus.OrderSummary
		var err error
		switch args[0] {
		case "waiting":
			orders, err = client.WaitingRideOrders(cmd.Context(), Session)
		case "pending":
			orders, err = client.PendingPaymentOrders(cmd.Context(), Session)
		default:
			fmt.Fprintf(os.Stderr, "unknown order list %q, expected waiting or pending\n", args[0])
			os.Exit(1)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Order", "Date", "Departs", "Route", "Price"})
		for _, order := range orders {
			t.AppendRow(table.Row{
				order.Id,
				fmt.Sprintf("%s %s", order.Date, order.Week),
				order.StartTime,
				fmt.Sprintf("%s -> %s", order.StartFrom, order.StartTo),
				order.Price,
			})
		}
		t.Render()
	},
}
