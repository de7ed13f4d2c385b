package portfolio

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/meenmo/bondrisk/bond"
	"github.com/meenmo/bondrisk/calendar"
	"github.com/meenmo/bondrisk/utils"
)

// Analyze computes the analytics of a single position. It is a pure function
// of its arguments and safe to call concurrently.
func Analyze(p BondPosition, cfg Config) (BondAnalytics, error) {
	if err := checkPosition(p); err != nil {
		return BondAnalytics{}, err
	}

	dc := cfg.DayCount
	if p.DayCountBasis != "" {
		dc = p.DayCountBasis
	}
	dc, err := utils.ParseDayCount(string(dc))
	if err != nil {
		return BondAnalytics{}, err
	}
	freq := cfg.Frequency
	if p.PaymentFrequency != 0 {
		freq = p.PaymentFrequency
	}

	dated := p.IssueDate
	if !p.AccrualDate.IsZero() {
		dated = p.AccrualDate
	}

	s, err := bond.BuildSchedule(bond.ScheduleInput{
		IssueDate:         dated,
		MaturityDate:      p.MaturityDate,
		FirstCouponDate:   p.FirstCouponDate,
		Frequency:         freq,
		CouponRate:        p.CouponRate / 100,
		Face:              cfg.Face,
		DayCount:          dc,
		Calendar:          cfg.Calendar,
		PaymentAdjustment: cfg.PaymentAdjustment,
	})
	if err != nil {
		return BondAnalytics{}, err
	}

	settlement, err := SettlementDate(p, cfg.Calendar)
	if err != nil {
		return BondAnalytics{}, err
	}

	ytm, err := bond.SolveYield(s, p.CleanPrice, settlement, cfg.Solver)
	if err != nil {
		return BondAnalytics{}, err
	}
	risk, err := bond.ComputeRisk(s, ytm.Yield, settlement)
	if err != nil {
		return BondAnalytics{}, err
	}

	notional := p.PositionNotional.InexactFloat64()
	shocks, err := bond.ShockPnL(s, ytm.Yield, p.CleanPrice, notional, settlement, cfg.ShiftsBp)
	if err != nil {
		return BondAnalytics{}, err
	}

	return BondAnalytics{
		SecurityID:      p.SecurityID,
		Settlement:      settlement,
		Tenor:           p.MaturityDate.Year() - p.IssueDate.Year(),
		YTM:             ytm.Yield,
		Macaulay:        risk.Macaulay,
		Modified:        risk.Modified,
		DV01:            risk.DV01,
		Simple:          risk.Simple,
		CleanPrice:      risk.Price.Clean,
		DirtyPrice:      risk.Price.Dirty,
		AccruedInterest: s.AccruedInterest(cfg.ReportDate),
		Notional:        p.PositionNotional,
		Shocks:          shocks,
	}, nil
}

// SettlementDate is the position's evaluation date advanced by its settlement
// lag: the number of calendar days between issue and first settlement, counted
// as business days on cal. A zero lag rolls the evaluation date Following.
func SettlementDate(p BondPosition, cal calendar.Calendar) (time.Time, error) {
	eval := utils.DateOnly(p.EvaluationDate)
	if p.FirstSettlementDate.IsZero() {
		return cal.AdjustFollowing(eval), nil
	}
	lag := int(math.Round(utils.Days(utils.DateOnly(p.IssueDate), utils.DateOnly(p.FirstSettlementDate))))
	if lag < 0 {
		return time.Time{}, fmt.Errorf("%w: first settlement %s before issue %s", ErrInvalidPosition,
			p.FirstSettlementDate.Format("2006-01-02"), p.IssueDate.Format("2006-01-02"))
	}
	if lag == 0 {
		return cal.AdjustFollowing(eval), nil
	}
	return cal.AddBusinessDays(eval, lag), nil
}

func checkPosition(p BondPosition) error {
	switch {
	case strings.TrimSpace(p.SecurityID) == "":
		return fmt.Errorf("%w: security id is required", ErrInvalidPosition)
	case p.EvaluationDate.IsZero():
		return fmt.Errorf("%w: evaluation date is required", ErrInvalidPosition)
	case math.IsNaN(p.CouponRate) || math.IsInf(p.CouponRate, 0) || p.CouponRate < 0:
		return fmt.Errorf("%w: coupon rate %v", ErrInvalidPosition, p.CouponRate)
	}
	switch strings.ToUpper(strings.TrimSpace(p.CouponType)) {
	case "", "FIXED":
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedCoupon, p.CouponType)
}
