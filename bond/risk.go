package bond

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
)

// RiskResult holds duration-based risk measures at a given yield.
type RiskResult struct {
	// Macaulay is the PV-weighted average time to payment, in years.
	Macaulay float64
	// Modified is Macaulay / (1 + y/f).
	Modified float64
	// DV01 is the clean price change per basis point, per the schedule's face.
	DV01 float64
	// Simple is the undiscounted cash-flow-weighted average time, in years.
	Simple float64
	Price  PriceResult
}

// ComputeRisk evaluates duration measures at yield y and settlement:
//
//	Macaulay = Σ t_i · PV_i / dirty
//	Modified = Macaulay / (1 + y/f)
//	DV01     = Modified × clean / 10000
//	Simple   = Σ t_i · CF_i / Σ CF_i
func ComputeRisk(s *Schedule, y float64, settlement time.Time) (RiskResult, error) {
	ft, err := newFlowTimes(s, settlement)
	if err != nil {
		return RiskResult{}, fmt.Errorf("ComputeRisk: %w", err)
	}
	if err := ft.checkYield(y); err != nil {
		return RiskResult{}, fmt.Errorf("ComputeRisk: %w", err)
	}

	pv := ft.presentValues(y)
	dirty := floats.Sum(pv)
	if dirty <= 0 {
		return RiskResult{}, fmt.Errorf("ComputeRisk: non-positive dirty price %v", dirty)
	}
	accrued := s.AccruedInterest(settlement)
	clean := dirty - accrued

	macaulay := floats.Dot(ft.years, pv) / dirty
	modified := macaulay / (1 + y/ft.frequency)

	return RiskResult{
		Macaulay: macaulay,
		Modified: modified,
		DV01:     modified * clean / 10000,
		Simple:   floats.Dot(ft.years, ft.amounts) / floats.Sum(ft.amounts),
		Price:    PriceResult{Dirty: dirty, Clean: clean, Accrued: accrued},
	}, nil
}
