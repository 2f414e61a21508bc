package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/okian/trendhub/internal/adapters/sources/textutil"
	"github.com/okian/trendhub/internal/domain/collection"
	"github.com/okian/trendhub/internal/domain/model"
	"github.com/okian/trendhub/internal/domain/types"
)

func init() {
	for _, c := range model.AllCapabilities() {
		rootCmd.AddCommand(collectCmd(c))
	}
}

func collectCmd(capability model.Capability) *cobra.Command {
	return &cobra.Command{
		Use:   string(capability),
		Short: fmt.Sprintf("Collect %s from every capable source", capability),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := build(ctx)
			if err != nil {
				return err
			}
			c := b.Collect(ctx, capability, params())
			if flagJSON {
				return writeJSON(cmd.OutOrStdout(), types.CollectionResponse{
					RunID:      c.RunID,
					Capability: c.Capability,
					Records:    c.Records,
					Sources:    c.Sources,
					Failures:   c.Failures,
				})
			}
			return printCollection(cmd.OutOrStdout(), c, time.Now())
		},
	}
}

func printCollection(out io.Writer, c collection.Collection, now time.Time) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	switch c.Capability {
	case model.Deals:
		fmt.Fprintln(tw, "COMPANY\tFUNDING\tSOURCE\tSEEN")
		for _, r := range c.Records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.CompanyName, r.FundingType, r.Source, seen(r, now))
		}
	case model.Founders:
		fmt.Fprintln(tw, "NAME\tTITLE\tSOURCE\tSEEN")
		for _, r := range c.Records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, r.Title, r.Source, seen(r, now))
		}
	default:
		fmt.Fprintln(tw, "NAME\tCATEGORY\tMENTIONS\tSOURCE\tSEEN")
		for _, r := range c.Records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				textutil.Truncate(r.Name, 40), r.Category, humanize.Comma(int64(r.MentionCount)), r.Source, seen(r, now))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return printFooter(out, len(c.Records), c.Sources, c.Failures)
}

func printFooter(out io.Writer, n int, sources []string, failures []model.Failure) error {
	if _, err := fmt.Fprintf(out, "\n%s records from %d sources\n", humanize.Comma(int64(n)), len(sources)); err != nil {
		return err
	}
	for _, f := range failures {
		if _, err := fmt.Fprintf(out, "  %s failed: %s\n", f.Source, f.Error); err != nil {
			return err
		}
	}
	return nil
}

func seen(r model.Record, now time.Time) string {
	if r.CreatedAt == nil {
		return "-"
	}
	return humanize.RelTime(*r.CreatedAt, now, "ago", "from now")
}
