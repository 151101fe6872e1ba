package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mselser95/market-dashboard/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Print the economic and earnings calendars for a day",
	RunE:  runCalendar,
}

//nolint:gochecknoglobals // Cobra boilerplate
var earningsCmd = &cobra.Command{
	Use:   "earnings SYMBOL...",
	Short: "Print consensus estimates for upcoming earnings",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEarnings,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(earningsCmd)
	calendarCmd.Flags().StringP("date", "d", "", "Day as YYYY-MM-DD (default today in exchange time)")
}

func runCalendar(cmd *cobra.Command, args []string) error {
	date, _ := cmd.Flags().GetString("date")
	if date != "" {
		_, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return fmt.Errorf("invalid date %q: use YYYY-MM-DD", date)
		}
	}

	o, err := newOneShot()
	if err != nil {
		return err
	}
	defer o.close()

	if date == "" {
		date = o.clock.Today()
	}

	ctx, cancel := oneShotContext()
	defer cancel()

	out := cmd.OutOrStdout()
	printEconomic(out, date, o.fetcher.GetEconomicCalendar(ctx, date))
	fmt.Fprintln(out)
	printEarnings(out, o.fetcher.GetEarningsCalendar(ctx, date))
	return nil
}

func runEarnings(cmd *cobra.Command, args []string) error {
	o, err := newOneShot()
	if err != nil {
		return err
	}
	defer o.close()

	ctx, cancel := oneShotContext()
	defer cancel()

	var details []types.EarningsDetails
	for _, s := range parseSymbols(args) {
		d, ok := o.fetcher.GetEarningsDetails(ctx, s)
		if !ok {
			d = types.EarningsDetails{Symbol: s}
		}
		details = append(details, d)
	}

	printEarningsDetails(cmd.OutOrStdout(), details)
	return nil
}

func printEconomic(out io.Writer, date string, events []types.EconomicEvent) {
	fmt.Fprintf(out, "Economic calendar %s\n", date)
	if len(events) == 0 {
		fmt.Fprintln(out, "  No events.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "TIME\tEVENT\tFORECAST\tIMPORTANCE\n")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Time, e.Name, e.Forecast, e.Importance)
	}
	w.Flush()
}

func printEarnings(out io.Writer, s types.EarningsSchedule) {
	fmt.Fprintf(out, "Earnings %s\n", s.Date)
	if s.Empty() {
		fmt.Fprintln(out, "  No reports.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Before open:\t%s\n", joinOrDash(s.BeforeOpen))
	fmt.Fprintf(w, "After close:\t%s\n", joinOrDash(s.AfterClose))
	if len(s.Unknown) > 0 {
		fmt.Fprintf(w, "Time unknown:\t%s\n", strings.Join(s.Unknown, ", "))
	}
	w.Flush()
}

func printEarningsDetails(out io.Writer, details []types.EarningsDetails) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "SYMBOL\tEPS EST\tREVENUE EST\tROE\t\n")
	for _, d := range details {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", d.Symbol,
			formatOptional(d.EPSEstimate, "%.2f", 1),
			formatOptional(d.RevenueEstimate, "%.2fB", 1e9),
			formatOptional(d.ReturnOnEquity, "%.1f%%", 0.01))
	}
	w.Flush()
}

func formatOptional(v *float64, format string, scale float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v/scale)
}

func joinOrDash(symbols []string) string {
	if len(symbols) == 0 {
		return "-"
	}
	return strings.Join(symbols, ", ")
}
