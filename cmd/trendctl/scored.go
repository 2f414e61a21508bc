package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/okian/trendhub/internal/domain/types"
)

var flagLimit int

var scoredCmd = &cobra.Command{
	Use:   "scored",
	Short: "Rank trends by momentum score",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagLimit < 0 {
			return fmt.Errorf("--limit must not be negative")
		}
		ctx := cmd.Context()
		b, err := build(ctx)
		if err != nil {
			return err
		}
		resp := b.ScoredTrends(ctx, params(), flagLimit)
		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), resp)
		}
		return printScored(cmd.OutOrStdout(), resp)
	},
}

func init() {
	scoredCmd.Flags().IntVarP(&flagLimit, "limit", "n", 20, "maximum trends to print; 0 prints all")
	rootCmd.AddCommand(scoredCmd)
}

func printScored(out io.Writer, resp types.ScoredResponse) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNAME\tSCORE\tLIFECYCLE\tCONFIDENCE\tMENTIONS\tSOURCES")
	for i, t := range resp.Trends {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			humanize.Ordinal(i+1), t.Name, t.MomentumScore, t.Lifecycle, t.Confidence,
			humanize.Comma(int64(t.MentionCount)), strings.Join(t.Origins(), ","))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if resp.Total > resp.Count {
		if _, err := fmt.Fprintf(out, "\nshowing %d of %s trends\n", resp.Count, humanize.Comma(int64(resp.Total))); err != nil {
			return err
		}
	}
	return printFooter(out, resp.Count, resp.Sources, resp.Failures)
}
