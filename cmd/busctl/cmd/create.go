package cmd

import (
	"fmt"
	"os"

	"nanyuan-backend/lib/scrapers/schoolbus"

	"github.com/spf13/cobra"
)

var createFlags struct {
	scheduleId  int64
	date        string
	takeStation string
	passengers  []int64
}

func init() {
	createCmd.Flags().Int64Var(&createFlags.scheduleId, "schedule", 0, "schedule id from the schedule command")
	createCmd.Flags().StringVar(&createFlags.date, "date", "", "ride date, YYYY-MM-DD")
	createCmd.Flags().StringVar(&createFlags.takeStation, "station", "", "boarding station")
	createCmd.Flags().Int64SliceVar(&createFlags.passengers, "passengers", nil, "passenger ids from the passengers command")
	createCmd.MarkFlagRequired("schedule")
	createCmd.MarkFlagRequired("date")
	createCmd.MarkFlagRequired("station")
	createCmd.MarkFlagRequired("passengers")

	rootCmd.AddCommand(createCmd)
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a ticket order for the given timeslot and riders.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(createFlags.passengers) == 0 {
			fmt.Fprintln(os.Stderr, "at least one passenger id is required")
			os.Exit(1)
		}

		created, err := client.CreateOrder(cmd.Context(), schoolbus.CreateOrderRequest{
			PassengerIds: createFlags.passengers,
			ConnectId:    createFlags.passengers[0],
			ScheduleId:   createFlags.scheduleId,
			Date:         createFlags.date,
			TakeStation:  createFlags.takeStation,
		}, Session)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		fmt.Printf("order %d created, trade no %s\n", created.OrderId, created.TradeNo)
		fmt.Println("pay it with the portal or the payment deep link before the hold expires")
	},
}
