package main

import (
	"fmt"
	"os"

	"nanyuan-backend/cmd/busctl/cmd"
)

func main() {
	session, ok := os.LookupEnv("BUS_SESSION")
	if !ok {
		fmt.Println("You should specify the bus portal session cookie in the environment variable BUS_SESSION.")
		os.Exit(1)
	}
	cmd.Session = session

	cmd.Execute()
}
