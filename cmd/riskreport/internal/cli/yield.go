package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/meenmo/bondrisk/bond"
	"github.com/meenmo/bondrisk/portfolio"
	"github.com/meenmo/bondrisk/utils"
)

// errTaskFailed makes the command exit non-zero after printing every result.
var errTaskFailed = errors.New("one or more yield tasks failed")

type yieldInput struct {
	TaskID          string  `json:"task_id,omitempty"`
	IssueDate       string  `json:"issue_date"`
	FirstCouponDate string  `json:"first_coupon_date,omitempty"`
	MaturityDate    string  `json:"maturity_date"`
	SettlementDate  string  `json:"settlement_date"`
	CouponRate      float64 `json:"coupon_rate"` // percent
	Frequency       int     `json:"frequency,omitempty"`
	DayCount        string  `json:"day_count,omitempty"`
	CleanPrice      float64 `json:"clean_price"`
}

type yieldOutput struct {
	TaskID          string  `json:"task_id,omitempty"`
	SettlementDate  string  `json:"settlement_date,omitempty"`
	CleanPrice      float64 `json:"clean_price,omitempty"`
	DirtyPrice      float64 `json:"dirty_price,omitempty"`
	AccruedInterest float64 `json:"accrued_interest,omitempty"`
	Yield           float64 `json:"yield,omitempty"`
	Macaulay        float64 `json:"macaulay_duration,omitempty"`
	Modified        float64 `json:"modified_duration,omitempty"`
	DV01            float64 `json:"dv01,omitempty"`
	Iterations      int     `json:"iterations,omitempty"`
	Error           string  `json:"error,omitempty"`
}

func newYieldCmd(a *app) *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "yield",
		Short: "Solve yield and duration for bonds given as JSON",
		Long: `yield reads one bond (a JSON object) or many (a JSON array) from --input or
stdin and prints the yield to maturity, durations and DV01 implied by each
clean price, in the same shape as the input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(inputPath, cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			inputs, isArray, err := parseInputs(raw)
			if err != nil {
				return fmt.Errorf("parse JSON: %w", err)
			}

			pc, err := a.cfg.Portfolio()
			if err != nil {
				return err
			}

			hadError := false
			outputs := make([]yieldOutput, 0, len(inputs))
			for _, in := range inputs {
				out, err := solveTask(in, pc)
				if err != nil {
					hadError = true
					a.log.Warn().Str("task_id", in.TaskID).Err(err).Msg("Yield task failed")
					outputs = append(outputs, yieldOutput{TaskID: in.TaskID, Error: err.Error()})
					continue
				}
				outputs = append(outputs, out)
			}

			var b []byte
			if isArray {
				b, err = json.Marshal(outputs)
			} else {
				b, err = json.Marshal(outputs[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, string(b))

			if hadError {
				return errTaskFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "JSON input path (reads stdin if omitted)")
	return cmd
}

// solveTask prices one bond with the same defaults, calendar and payment
// adjustment the portfolio report uses.
func solveTask(in yieldInput, pc portfolio.Config) (yieldOutput, error) {
	parse := func(field, s string, required bool) (time.Time, error) {
		if strings.TrimSpace(s) == "" {
			if required {
				return time.Time{}, fmt.Errorf("%s is required", field)
			}
			return time.Time{}, nil
		}
		d, err := utils.ParseDate(s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid %s: %v", field, err)
		}
		return d, nil
	}

	issue, err := parse("issue_date", in.IssueDate, true)
	if err != nil {
		return yieldOutput{}, err
	}
	maturity, err := parse("maturity_date", in.MaturityDate, true)
	if err != nil {
		return yieldOutput{}, err
	}
	settlement, err := parse("settlement_date", in.SettlementDate, true)
	if err != nil {
		return yieldOutput{}, err
	}
	firstCoupon, err := parse("first_coupon_date", in.FirstCouponDate, false)
	if err != nil {
		return yieldOutput{}, err
	}

	dc := pc.DayCount
	if in.DayCount != "" {
		if dc, err = utils.ParseDayCount(in.DayCount); err != nil {
			return yieldOutput{}, err
		}
	}
	freq := pc.Frequency
	if in.Frequency != 0 {
		freq = in.Frequency
	}

	s, err := bond.BuildSchedule(bond.ScheduleInput{
		IssueDate:         issue,
		MaturityDate:      maturity,
		FirstCouponDate:   firstCoupon,
		Frequency:         freq,
		CouponRate:        in.CouponRate / 100,
		Face:              pc.Face,
		DayCount:          dc,
		Calendar:          pc.Calendar,
		PaymentAdjustment: pc.PaymentAdjustment,
	})
	if err != nil {
		return yieldOutput{}, err
	}
	ytm, err := bond.SolveYield(s, in.CleanPrice, settlement, pc.Solver)
	if err != nil {
		return yieldOutput{}, err
	}
	risk, err := bond.ComputeRisk(s, ytm.Yield, settlement)
	if err != nil {
		return yieldOutput{}, err
	}

	return yieldOutput{
		TaskID:          in.TaskID,
		SettlementDate:  settlement.Format("2006-01-02"),
		CleanPrice:      in.CleanPrice,
		DirtyPrice:      utils.RoundTo(ytm.Price.Dirty, 10),
		AccruedInterest: utils.RoundTo(ytm.Price.Accrued, 10),
		Yield:           utils.RoundTo(ytm.Yield, 12),
		Macaulay:        utils.RoundTo(risk.Macaulay, 10),
		Modified:        utils.RoundTo(risk.Modified, 10),
		DV01:            utils.RoundTo(risk.DV01, 12),
		Iterations:      ytm.Iterations,
	}, nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(stdin)
}

func parseInputs(raw []byte) ([]yieldInput, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false, fmt.Errorf("empty input")
	}
	if trimmed[0] == '[' {
		var inputs []yieldInput
		if err := json.Unmarshal(trimmed, &inputs); err != nil {
			return nil, true, err
		}
		if len(inputs) == 0 {
			return nil, true, fmt.Errorf("empty input array")
		}
		return inputs, true, nil
	}
	var input yieldInput
	if err := json.Unmarshal(trimmed, &input); err != nil {
		return nil, false, err
	}
	return []yieldInput{input}, false, nil
}
