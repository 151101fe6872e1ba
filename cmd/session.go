package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/mselser95/market-dashboard/internal/app"
	"github.com/mselser95/market-dashboard/internal/session"
	"github.com/mselser95/market-dashboard/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Print the current market session and refresh cadence",
	RunE:  runSession,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(sessionCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	clock, err := app.SetupClock(cfg)
	if err != nil {
		return fmt.Errorf("setup clock: %w", err)
	}

	printSession(cmd.OutOrStdout(), clock, clock.Now())
	return nil
}

func printSession(out io.Writer, clock *session.Clock, now time.Time) {
	state := clock.State(now)
	local := now.In(clock.Location())

	w := tabwriter.NewWriter(out, 0, 0, 1, ' ', 0)
	fmt.Fprintf(w, "Status:\t%s\n", state.Label())
	fmt.Fprintf(w, "Data:\t%s\n", state.DataType())
	fmt.Fprintf(w, "Exchange time:\t%s\n", local.Format("Mon 2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Refresh every:\t%s\n", clock.RefreshInterval(state))
	if state != session.MarketOpen {
		fmt.Fprintf(w, "Next open:\t%s\n", clock.NextOpen(now).Format("Mon 2006-01-02 15:04 MST"))
	}
	w.Flush()
}
