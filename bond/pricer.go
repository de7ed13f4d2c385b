package bond

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/meenmo/bondrisk/utils"
)

// PriceResult holds the prices of a bond per the schedule's face.
type PriceResult struct {
	Dirty   float64
	Clean   float64
	Accrued float64
}

// Price discounts the cash flows paid after settlement at yield y, compounded
// at the coupon frequency:
//
//	dirty = Σ CF_i / (1 + y/f)^n_i      n_i = coupon periods from settlement to payment
//	clean = dirty − accrued(settlement)
func Price(s *Schedule, y float64, settlement time.Time) (PriceResult, error) {
	ft, err := newFlowTimes(s, settlement)
	if err != nil {
		return PriceResult{}, fmt.Errorf("Price: %w", err)
	}
	if err := ft.checkYield(y); err != nil {
		return PriceResult{}, fmt.Errorf("Price: %w", err)
	}

	dirty := floats.Sum(ft.presentValues(y))
	accrued := s.AccruedInterest(settlement)
	return PriceResult{
		Dirty:   dirty,
		Clean:   dirty - accrued,
		Accrued: accrued,
	}, nil
}

// CleanPrice is Price(...).Clean.
func CleanPrice(s *Schedule, y float64, settlement time.Time) (float64, error) {
	p, err := Price(s, y, settlement)
	if err != nil {
		return 0, err
	}
	return p.Clean, nil
}

// ---------------------------------------------------------------------------
// discounting helpers (unexported)
// ---------------------------------------------------------------------------

// flowTimes is the settlement-dependent view of a schedule used for discounting.
type flowTimes struct {
	amounts   []float64
	periods   []float64 // n_i, coupon periods from settlement
	years     []float64 // t_i, years from settlement under the schedule day count
	frequency float64
}

func newFlowTimes(s *Schedule, settlement time.Time) (flowTimes, error) {
	if s == nil || len(s.Cashflows) == 0 {
		return flowTimes{}, invalidSchedule("empty schedule")
	}
	settlement = utils.DateOnly(settlement)
	if settlement.IsZero() {
		return flowTimes{}, invalidSchedule("settlement date is required")
	}
	if !s.LastPaymentDate().After(settlement) {
		return flowTimes{}, invalidSchedule("settlement %s on or after final payment %s",
			settlement.Format("2006-01-02"), s.LastPaymentDate().Format("2006-01-02"))
	}

	ft := flowTimes{frequency: float64(s.Frequency)}
	for _, cf := range s.Cashflows {
		if !cf.Date.After(settlement) {
			continue
		}
		ft.amounts = append(ft.amounts, cf.Amount())
		ft.periods = append(ft.periods, s.periods(settlement, cf.Date))
		ft.years = append(ft.years, s.YearFraction(settlement, cf.Date))
	}
	return ft, nil
}

func (ft flowTimes) checkYield(y float64) error {
	if math.IsNaN(y) || 1+y/ft.frequency <= 0 {
		return fmt.Errorf("%w: 1 + y/f must be positive (y=%v, f=%v)", ErrInvalidYield, y, ft.frequency)
	}
	return nil
}

func (ft flowTimes) presentValues(y float64) []float64 {
	base := 1 + y/ft.frequency
	pv := make([]float64, len(ft.amounts))
	for i, amt := range ft.amounts {
		pv[i] = amt / math.Pow(base, ft.periods[i])
	}
	return pv
}

// dirtyPriceAndDeriv returns (price, dPrice/dy):
//
//	dP/dy = Σ −(n_i/f) · CF_i / (1+y/f)^(n_i+1)
func (ft flowTimes) dirtyPriceAndDeriv(y float64) (float64, float64) {
	pv := ft.presentValues(y)
	price := floats.Sum(pv)
	deriv := -floats.Dot(ft.periods, pv) / (ft.frequency * (1 + y/ft.frequency))
	return price, deriv
}
