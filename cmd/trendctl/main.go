// Command trendctl runs one collection in-process and prints the result.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	service "github.com/okian/trendhub/internal/app"
	"github.com/okian/trendhub/internal/config"
	"github.com/okian/trendhub/pkg/logger"
)

var (
	flagJSON    bool
	flagQuery   string
	flagVerbose bool
)

// build is replaced in tests.
var build = func(ctx context.Context) (Backend, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := service.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

var rootCmd = &cobra.Command{
	Use:           "trendctl",
	Short:         "Query startup trend, deal and founder sources",
	Long:          "trendctl fans out to every configured source, merges the answers and prints them as a table or JSON.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !flagVerbose {
			return nil
		}
		if err := logger.InitWithFormat("text"); err != nil {
			return err
		}
		return logger.SetLevelString("debug")
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "print JSON instead of a table")
	rootCmd.PersistentFlags().StringVarP(&flagQuery, "query", "q", "", "free-text query passed to sources that support it")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log source activity to stderr")
}

func main() {
	if err := execute(context.Background(), os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "trendctl:", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, out io.Writer, args []string) error {
	rootCmd.SetOut(out)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}
