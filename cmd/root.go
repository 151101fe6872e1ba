package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags.
//
//nolint:gochecknoglobals // set by the linker
var Version = "dev"

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "market-dashboard",
	Short: "Market data dashboard backend",
	Long: `Market data dashboard backend that aggregates quotes, top movers,
a historical volatility proxy, news headlines and economic and earnings
calendars from public upstreams.

Responses are cached per data category, upstream calls are rate limited per
source, and the refresh cadence follows the US equity market session.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.Version = Version
}
