package cmd

import (
	"fmt"
	"os"

	"nanyuan-backend/lib/scrapers/schoolbus"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// Session is the bus portal session cookie, set by main before Execute.
var Session string

var portalUrl string

var client *schoolbus.Client

var rootCmd = &cobra.Command{
	Use:   "busctl",
	Short: "busctl is a CLI interface for the campus bus ticket portal.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&portalUrl, "portal", "", "override the bus portal base url")
}

func Execute() {
	cobra.OnInitialize(func() {
		client = schoolbus.NewClient(schoolbus.ClientOptions{
			BaseUrl: portalUrl,
		})
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

// resolveRoute turns a human route description into a route id, printing
// the known routes on failure.
func resolveRoute(name string) schoolbus.Route {
	route, ok := schoolbus.RouteByName(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown route %q, known routes:\n", name)
		for _, r := range schoolbus.Routes() {
			fmt.Fprintf(os.Stderr, "  %s\n", r)
		}
		os.Exit(1)
	}
	return route
}
