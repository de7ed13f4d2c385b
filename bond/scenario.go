package bond

import (
	"fmt"
	"time"
)

// ShockResult is the repricing of one position under a parallel yield shift.
//
// Profit and Loss are signed P&L of a long position in currency units:
// a positive-coupon bond has Profit > 0 (yield down) and Loss < 0 (yield up).
type ShockResult struct {
	ShiftBp   float64
	PriceDown float64 // clean price at ytm − Δ
	PriceUp   float64 // clean price at ytm + Δ
	Profit    float64
	Loss      float64
}

// ShockPnL reprices the schedule at ytm ± Δ for each shift Δ (in bp). The
// shock is applied to the solved yield; the yield is never re-solved.
//
//	Profit = (clean(ytm − Δ) − cleanPrice) × notional / face
//	Loss   = (clean(ytm + Δ) − cleanPrice) × notional / face
func ShockPnL(s *Schedule, ytm, cleanPrice, notional float64, settlement time.Time, shiftsBp []float64) ([]ShockResult, error) {
	ft, err := newFlowTimes(s, settlement)
	if err != nil {
		return nil, fmt.Errorf("ShockPnL: %w", err)
	}
	accrued := s.AccruedInterest(settlement)

	cleanAt := func(y float64) (float64, error) {
		if err := ft.checkYield(y); err != nil {
			return 0, err
		}
		p, _ := ft.dirtyPriceAndDeriv(y)
		return p - accrued, nil
	}

	out := make([]ShockResult, 0, len(shiftsBp))
	for _, bp := range shiftsBp {
		delta := bp / 10000
		down, err := cleanAt(ytm - delta)
		if err != nil {
			return nil, fmt.Errorf("ShockPnL: shift -%vbp: %w", bp, err)
		}
		up, err := cleanAt(ytm + delta)
		if err != nil {
			return nil, fmt.Errorf("ShockPnL: shift +%vbp: %w", bp, err)
		}
		out = append(out, ShockResult{
			ShiftBp:   bp,
			PriceDown: down,
			PriceUp:   up,
			Profit:    (down - cleanPrice) * notional / s.Face,
			Loss:      (up - cleanPrice) * notional / s.Face,
		})
	}
	return out, nil
}
