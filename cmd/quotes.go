package cmd

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mselser95/market-dashboard/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var quotesCmd = &cobra.Command{
	Use:   "quotes [SYMBOL...]",
	Short: "Print quotes for symbols",
	Long: `Fetches and prints quotes. Without arguments the market overview
symbols (indices, volatility, rates and macro) are shown.`,
	RunE: runQuotes,
}

//nolint:gochecknoglobals // Cobra boilerplate
var moversCmd = &cobra.Command{
	Use:   "movers",
	Short: "Print the top gainers or losers of the mover universe",
	RunE:  runMovers,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(quotesCmd)
	rootCmd.AddCommand(moversCmd)
	moversCmd.Flags().StringP("direction", "d", "gainers", "gainers or losers")
	moversCmd.Flags().IntP("limit", "l", 0, "Number of movers (default TOP_MOVERS_COUNT)")
}

func runQuotes(cmd *cobra.Command, args []string) error {
	o, err := newOneShot()
	if err != nil {
		return err
	}
	defer o.close()

	symbols := parseSymbols(args)
	if len(symbols) == 0 {
		symbols = o.cfg.Universe.Overview()
	}

	ctx, cancel := oneShotContext()
	defer cancel()

	quotes := o.fetcher.GetQuotesBatch(ctx, symbols)
	printQuotes(cmd.OutOrStdout(), symbols, quotes)
	return nil
}

func runMovers(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetString("direction")
	direction, ok := types.ParseDirection(raw)
	if !ok {
		return fmt.Errorf("invalid direction %q: use gainers or losers", raw)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 0 {
		return errors.New("limit cannot be negative")
	}

	o, err := newOneShot()
	if err != nil {
		return err
	}
	defer o.close()

	if limit == 0 {
		limit = o.cfg.TopMoversCount
	}

	ctx, cancel := oneShotContext()
	defer cancel()

	movers := o.fetcher.GetTopMovers(ctx, direction, limit)
	if len(movers) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No movers available.")
		return nil
	}
	printQuoteRows(cmd.OutOrStdout(), movers)
	return nil
}

// printQuotes prints one row per requested symbol, in request order.
func printQuotes(out io.Writer, symbols []string, quotes map[string]types.Quote) {
	rows := make([]types.Quote, 0, len(symbols))
	missing := 0
	for _, s := range symbols {
		q, ok := quotes[s]
		if !ok {
			missing++
			continue
		}
		rows = append(rows, q)
	}

	printQuoteRows(out, rows)
	if missing > 0 {
		fmt.Fprintf(out, "\n%d of %d symbols unavailable\n", missing, len(symbols))
	}
}

func printQuoteRows(out io.Writer, rows []types.Quote) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "SYMBOL\tPRICE\tCHANGE\tCHANGE%%\tVOLUME\t\n")
	for _, q := range rows {
		fmt.Fprintf(w, "%s\t%.2f\t%+.2f\t%+.2f%%\t%d\t\n", q.Symbol, q.Price, q.Change, q.ChangePct, q.Volume)
	}
	w.Flush()
}
