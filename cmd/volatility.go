package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mselser95/market-dashboard/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var volatilityCmd = &cobra.Command{
	Use:     "volatility [SYMBOL...]",
	Aliases: []string{"iv"},
	Short:   "Print the historical volatility proxy for symbols",
	Long: `Computes annualized 20-day and 30-day historical volatility from one
year of daily closes and prints their ratio as a percentile proxy. Without
arguments the configured IV list is used.`,
	RunE: runVolatility,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(volatilityCmd)
}

func runVolatility(cmd *cobra.Command, args []string) error {
	o, err := newOneShot()
	if err != nil {
		return err
	}
	defer o.close()

	symbols := parseSymbols(args)
	if len(symbols) == 0 {
		symbols = o.cfg.Universe.IVStocks
	}

	ctx, cancel := oneShotContext()
	defer cancel()

	records := o.fetcher.GetIVDataBatch(ctx, symbols)
	printVolatility(cmd.OutOrStdout(), symbols, records)
	return nil
}

func printVolatility(out io.Writer, symbols []string, records map[string]types.VolatilityRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "SYMBOL\tVOL 20D\tVOL 30D\tPERCENTILE\t\n")
	for _, s := range symbols {
		r, ok := records[s]
		if !ok {
			fmt.Fprintf(w, "%s\t-\t-\t-\t\n", s)
			continue
		}
		fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%.0f\t\n", r.Symbol, r.CurrentVol, r.Trailing30dVol, r.PercentileProxy)
	}
	w.Flush()
}
