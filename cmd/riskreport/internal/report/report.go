// Package report renders a portfolio.Report as text tables or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/meenmo/bondrisk/portfolio"
	"github.com/meenmo/bondrisk/utils"
)

const dateLayout = "2006-01-02"

// Writer prints reports to out.
type Writer struct {
	out    io.Writer
	title  *color.Color
	warn   *color.Color
	Detail bool // include the per-bond analytics table
}

// New returns a Writer; color enables ANSI section titles.
func New(out io.Writer, useColor bool) *Writer {
	title := color.New(color.FgCyan, color.Bold)
	warn := color.New(color.FgYellow)
	if !useColor {
		title.DisableColor()
		warn.DisableColor()
	}
	return &Writer{out: out, title: title, warn: warn}
}

// Text prints the bucket aggregates, the scenario P&L and any failures.
func (w *Writer) Text(rep *portfolio.Report) error {
	reportDate := rep.ReportDate.Format(dateLayout)

	w.title.Fprintf(w.out, "Portfolio risk report  run %s  (%d positions, %d analyzed)\n\n",
		rep.RunID, rep.Positions, len(rep.Analytics))

	w.title.Fprintln(w.out, "Aggregated DV01/Accrued interest/Notional:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Maturity\tAgg DV01\tAgg AccruedInterest (%s)\tPositionNotional\tBonds\t\n", reportDate)
	for _, b := range rep.Buckets {
		fmt.Fprintf(tw, "%dY\t%s\t%s\t%s\t%d\t\n",
			b.Bucket, money(b.DV01), money(b.AccruedInterest), b.Notional.StringFixed(2), b.Count)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w.out)
	w.title.Fprintln(w.out, "Portfolio PnL:")
	tw = tabwriter.NewWriter(w.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Yield Changes (bp)\tProfit (Yield-)\tLoss (Yield+)\t\n")
	for _, s := range rep.Scenarios {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", strconv.FormatFloat(s.ShiftBp, 'f', -1, 64), money(s.Profit), money(s.Loss))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if w.Detail && len(rep.Analytics) > 0 {
		fmt.Fprintln(w.out)
		w.title.Fprintln(w.out, "Bond analytics:")
		tw = tabwriter.NewWriter(w.out, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintf(tw, "SecurityID\tSettle\tTenor\tYTM (%%)\tMacaulay\tModified\tDV01\tAccrued\tNotional\t\n")
		for _, a := range rep.Analytics {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%.6f\t%.4f\t%.4f\t%.6f\t%.6f\t%s\t\n",
				a.SecurityID, a.Settlement.Format(dateLayout), a.Tenor, a.YTM*100,
				a.Macaulay, a.Modified, a.DV01, a.AccruedInterest, a.Notional.StringFixed(2))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(rep.Failures) > 0 {
		fmt.Fprintln(w.out)
		w.warn.Fprintf(w.out, "Excluded positions (%d):\n", len(rep.Failures))
		for _, f := range rep.Failures {
			fmt.Fprintf(w.out, "  %s: %v\n", f.SecurityID, f.Err)
		}
	}
	return nil
}

func money(v float64) string {
	return strconv.FormatFloat(utils.RoundTo(v, 2), 'f', 2, 64)
}

type jsonReport struct {
	RunID      string       `json:"run_id"`
	ReportDate string       `json:"report_date"`
	CreatedAt  time.Time    `json:"created_at"`
	Positions  int          `json:"positions"`
	Buckets    []jsonBucket `json:"buckets"`
	Scenarios  []jsonPnL    `json:"scenarios"`
	Bonds      []jsonBond   `json:"bonds"`
	Failures   []jsonError  `json:"failures"`
}

type jsonBucket struct {
	Maturity        int     `json:"maturity"`
	DV01            float64 `json:"agg_dv01"`
	AccruedInterest float64 `json:"agg_accrued_interest"`
	Notional        string  `json:"position_notional"`
	Count           int     `json:"bonds"`
}

type jsonPnL struct {
	ShiftBp float64 `json:"shift_bp"`
	Profit  float64 `json:"profit"`
	Loss    float64 `json:"loss"`
}

type jsonBond struct {
	SecurityID      string  `json:"security_id"`
	Settlement      string  `json:"settlement"`
	Tenor           int     `json:"tenor"`
	YTM             float64 `json:"ytm"`
	Macaulay        float64 `json:"macaulay_duration"`
	Modified        float64 `json:"modified_duration"`
	Simple          float64 `json:"simple_duration"`
	DV01            float64 `json:"dv01"`
	CleanPrice      float64 `json:"clean_price"`
	DirtyPrice      float64 `json:"dirty_price"`
	AccruedInterest float64 `json:"accrued_interest"`
	Notional        string  `json:"position_notional"`
}

type jsonError struct {
	SecurityID string `json:"security_id"`
	Error      string `json:"error"`
}

// JSON prints rep as an indented JSON document. Ratios keep 10 decimals,
// currency amounts 2.
func (w *Writer) JSON(rep *portfolio.Report) error {
	out := jsonReport{
		RunID:      rep.RunID,
		ReportDate: rep.ReportDate.Format(dateLayout),
		CreatedAt:  rep.CreatedAt,
		Positions:  rep.Positions,
		Buckets:    make([]jsonBucket, 0, len(rep.Buckets)),
		Scenarios:  make([]jsonPnL, 0, len(rep.Scenarios)),
		Bonds:      make([]jsonBond, 0, len(rep.Analytics)),
		Failures:   make([]jsonError, 0, len(rep.Failures)),
	}
	for _, b := range rep.Buckets {
		out.Buckets = append(out.Buckets, jsonBucket{
			Maturity:        b.Bucket,
			DV01:            utils.RoundTo(b.DV01, 2),
			AccruedInterest: utils.RoundTo(b.AccruedInterest, 2),
			Notional:        b.Notional.String(),
			Count:           b.Count,
		})
	}
	for _, s := range rep.Scenarios {
		out.Scenarios = append(out.Scenarios, jsonPnL{
			ShiftBp: s.ShiftBp,
			Profit:  utils.RoundTo(s.Profit, 2),
			Loss:    utils.RoundTo(s.Loss, 2),
		})
	}
	for _, a := range rep.Analytics {
		out.Bonds = append(out.Bonds, jsonBond{
			SecurityID:      a.SecurityID,
			Settlement:      a.Settlement.Format(dateLayout),
			Tenor:           a.Tenor,
			YTM:             utils.RoundTo(a.YTM, 10),
			Macaulay:        utils.RoundTo(a.Macaulay, 10),
			Modified:        utils.RoundTo(a.Modified, 10),
			Simple:          utils.RoundTo(a.Simple, 10),
			DV01:            utils.RoundTo(a.DV01, 10),
			CleanPrice:      utils.RoundTo(a.CleanPrice, 10),
			DirtyPrice:      utils.RoundTo(a.DirtyPrice, 10),
			AccruedInterest: utils.RoundTo(a.AccruedInterest, 10),
			Notional:        a.Notional.String(),
		})
	}
	for _, f := range rep.Failures {
		out.Failures = append(out.Failures, jsonError{SecurityID: f.SecurityID, Error: f.Err.Error()})
	}

	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
