package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meenmo/bondrisk/cmd/riskreport/internal/loader"
	"github.com/meenmo/bondrisk/cmd/riskreport/internal/report"
	"github.com/meenmo/bondrisk/logging"
	"github.com/meenmo/bondrisk/portfolio"
	"github.com/meenmo/bondrisk/store"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		positionsPath string
		archivePath   string
		reportDate    string
		asJSON        bool
		detail        bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Analyze a position file and print the risk report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.WithOperation(a.log, "report")

			if reportDate != "" {
				a.cfg.ReportDate = reportDate
			}
			pc, err := a.cfg.Portfolio()
			if err != nil {
				return err
			}

			positions, err := loader.Load(positionsPath)
			if err != nil {
				return err
			}
			log.Debug().Str("file", positionsPath).Int("positions", len(positions)).Msg("Positions loaded")

			rep, err := portfolio.Run(ctx, positions, pc, portfolio.WithLogger(log))
			if err != nil {
				return err
			}

			if archivePath != "" {
				s, err := store.Open(ctx, archivePath)
				if err != nil {
					return err
				}
				defer s.Close()
				if _, err := s.SaveReport(ctx, rep); err != nil {
					return err
				}
				log.Info().Str("run_id", rep.RunID).Str("archive", archivePath).Msg("Report archived")
			}

			w := report.New(a.stdout, isTerminal(a.stdout))
			w.Detail = detail
			if asJSON {
				return w.JSON(rep)
			}
			return w.Text(rep)
		},
	}

	cmd.Flags().StringVarP(&positionsPath, "positions", "p", "", "position file (CSV)")
	cmd.Flags().StringVar(&archivePath, "archive", "", "SQLite file to archive the run in")
	cmd.Flags().StringVar(&reportDate, "report-date", "", "accrued interest date (overrides config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of tables")
	cmd.Flags().BoolVar(&detail, "detail", false, "include per-bond analytics")
	_ = cmd.MarkFlagRequired("positions")
	return cmd
}

func newRunsCmd(a *app) *cobra.Command {
	var (
		archivePath string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List archived runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(cmd.Context(), archivePath)
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN ID\tREPORT DATE\tCREATED\tPOSITIONS\tANALYZED\tFAILED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n",
					r.RunID, r.ReportDate.Format("2006-01-02"), r.CreatedAt.Format("2006-01-02 15:04:05"),
					r.Positions, r.Analyzed, r.Failed)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&archivePath, "archive", "", "SQLite archive file")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list (0 for all)")
	_ = cmd.MarkFlagRequired("archive")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var (
		archivePath string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Print an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(cmd.Context(), archivePath)
			if err != nil {
				return err
			}
			defer s.Close()

			rep, err := s.LoadReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := report.New(a.stdout, isTerminal(a.stdout))
			w.Detail = true
			if asJSON {
				return w.JSON(rep)
			}
			return w.Text(rep)
		},
	}

	cmd.Flags().StringVar(&archivePath, "archive", "", "SQLite archive file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of tables")
	_ = cmd.MarkFlagRequired("archive")
	return cmd
}
