package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/trendhub/internal/domain/types"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured sources and what they provide",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := build(cmd.Context())
		if err != nil {
			return err
		}
		st := b.Status()
		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), st)
		}
		return printSources(cmd.OutOrStdout(), st)
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func printSources(out io.Writer, st types.APIStatusResponse) error {
	ids := make([]string, 0, len(st.APIs))
	for id := range st.APIs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tENABLED\tSTATUS\tPRIORITY\tMETHODS")
	for _, id := range ids {
		a := st.APIs[id]
		enabled := "no"
		if a.Enabled {
			enabled = "yes"
		}
		status := a.Status
		if a.Note != "" {
			status += " (" + a.Note + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", id, a.Name, enabled, status, a.Priority, strings.Join(a.Methods, ","))
	}
	return tw.Flush()
}
