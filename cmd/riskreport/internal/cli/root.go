// Package cli implements the riskreport commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/meenmo/bondrisk/config"
	"github.com/meenmo/bondrisk/logging"
)

// app holds what the subcommands share once the root flags are parsed.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	stdout io.Writer
	stderr io.Writer
}

// Run executes the command line and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "riskreport: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCmd builds the riskreport command tree.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{log: zerolog.Nop(), stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "riskreport",
		Short: "Fixed-rate bond portfolio risk report",
		Long: `riskreport prices a portfolio of fixed-rate bonds from a position file and
reports DV01, accrued interest and notional by maturity bucket together with
the portfolio P&L under parallel yield shifts.

Parameters come from an optional config file, BONDRISK_* environment
variables and a .env file in the working directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}

			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				cfg.Log.Level = "debug"
			}
			if logFile, _ := cmd.Flags().GetString("log-file"); logFile != "" {
				cfg.Log.FilePath = logFile
			}
			cfg.Log.Color = cfg.Log.Color && isTerminal(stderr)

			a.cfg = cfg
			a.log = logging.New(cfg.Log, stderr)
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().String("config", "", "config file (YAML, TOML or JSON)")
	root.PersistentFlags().Bool("debug", false, "enable debug logging")
	root.PersistentFlags().String("log-file", "", "also write JSON logs to this rotating file")

	root.AddCommand(newReportCmd(a), newRunsCmd(a), newShowCmd(a), newYieldCmd(a))
	return root
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
