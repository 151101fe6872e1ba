package cmd

import (
	"fmt"
	"io"

	"github.com/mselser95/market-dashboard/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Print the latest headlines across configured feeds",
	RunE:  runNews,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(newsCmd)
	newsCmd.Flags().IntP("limit", "l", 0, "Number of headlines (default NEWS_LIMIT)")
	newsCmd.Flags().BoolP("verbose", "v", false, "Show summaries and links")
}

func runNews(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	verbose, _ := cmd.Flags().GetBool("verbose")

	o, err := newOneShot()
	if err != nil {
		return err
	}
	defer o.close()

	if limit <= 0 {
		limit = o.cfg.NewsLimit
	}

	ctx, cancel := oneShotContext()
	defer cancel()

	headlines := o.fetcher.GetNewsHeadlines(ctx, limit)
	printHeadlines(cmd.OutOrStdout(), headlines, verbose)
	return nil
}

func printHeadlines(out io.Writer, headlines []types.Headline, verbose bool) {
	if len(headlines) == 0 {
		fmt.Fprintln(out, "No headlines available.")
		return
	}

	for _, h := range headlines {
		fmt.Fprintf(out, "[%s] %s  %s\n", h.Source, h.PublishedAt.Format("Jan 02 15:04"), h.Title)
		if verbose {
			if h.Summary != "" {
				fmt.Fprintf(out, "    %s\n", h.Summary)
			}
			if h.Link != "" {
				fmt.Fprintf(out, "    %s\n", h.Link)
			}
		}
	}
}
