// Package cli implements edactl, the command-line front end of the EDA
// workbench. Each command loads one CSV file, resolves missing values with
// the configured strategies and runs an analysis or a recipe against it.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/eda/internal/logging"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	cfgFile string
	debug   bool

	// flag overrides, applied only when set
	missingNumeric     string
	missingCategorical string
	delimiter          string
	format             string

	settings *Settings
	logger   *slog.Logger
}

// NewRootCommand builds the edactl command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "edactl",
		Short:         "Explore CSV datasets from the command line",
		Long:          `edactl loads a CSV file, resolves missing values and prints statistics, correlations, outliers or custom metrics. Recipes replay filters, edits and undos and write the result.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfgFile, "config", "", "config file (default is ~/.eda/config.yaml)")
	f.BoolVar(&a.debug, "debug", false, "enable debug logging on stderr")
	f.StringVar(&a.missingNumeric, "missing-numeric", "", "numeric missing-value strategy: drop_rows|leave|fill_mean|fill_median|fill_mode")
	f.StringVar(&a.missingCategorical, "missing-categorical", "", "categorical missing-value strategy: leave|drop_rows")
	f.StringVar(&a.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (sniffed if omitted)")
	f.StringVar(&a.format, "format", "", "output format: table|yaml|json")

	root.AddCommand(
		a.describeCommand(),
		a.outliersCommand(),
		a.corrCommand(),
		a.pivotCommand(),
		a.metricCommand(),
		a.runCommand(),
	)
	return root
}

// init loads settings and applies flag overrides.
func (a *app) init(cmd *cobra.Command) error {
	s, err := LoadSettings(a.cfgFile)
	if err != nil {
		return err
	}

	f := cmd.Flags()
	if f.Changed("missing-numeric") {
		s.MissingNumeric = a.missingNumeric
	}
	if f.Changed("missing-categorical") {
		s.MissingCategorical = a.missingCategorical
	}
	if f.Changed("delimiter") {
		s.Delimiter = a.delimiter
	}
	if f.Changed("format") {
		s.Format = a.format
	}
	if err := s.Validate(); err != nil {
		return err
	}
	a.settings = s

	level := "warn"
	if a.debug {
		level = "debug"
	}
	a.logger = logging.New(cmd.ErrOrStderr(), level, "text")
	return nil
}

// Execute runs edactl with os.Args and exits non-zero on failure.
func Execute() {
	if err := ExecuteContext(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// ExecuteContext runs edactl with args, writing to stdout and stderr.
func ExecuteContext(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "✗ Error:", err)
		return err
	}
	return nil
}
