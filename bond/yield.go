package bond

import (
	"fmt"
	"math"
	"time"
)

// SolverConfig holds the yield root-finder parameters.
type SolverConfig struct {
	// Tolerance is the absolute clean-price tolerance for convergence (≤ 1e-8).
	Tolerance float64

	// MaxIterations bounds the Newton/bisection loop.
	MaxIterations int

	// LowerBound and UpperBound delimit the yield search domain (decimal).
	// A zero bound takes its default on its own.
	LowerBound float64
	UpperBound float64

	// DerivativeThreshold is the minimum |dP/dy| for a Newton step.
	// Below this, the solver bisects instead.
	DerivativeThreshold float64
}

// DefaultSolverConfig provides production-ready default values.
var DefaultSolverConfig = SolverConfig{
	Tolerance:           1e-10,
	MaxIterations:       100,
	LowerBound:          -0.99,
	UpperBound:          10.0,
	DerivativeThreshold: 1e-15,
}

func (c SolverConfig) withDefaults() SolverConfig {
	if c.Tolerance <= 0 {
		c.Tolerance = DefaultSolverConfig.Tolerance
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultSolverConfig.MaxIterations
	}
	if c.LowerBound == 0 {
		c.LowerBound = DefaultSolverConfig.LowerBound
	}
	if c.UpperBound == 0 {
		c.UpperBound = DefaultSolverConfig.UpperBound
	}
	if c.DerivativeThreshold <= 0 {
		c.DerivativeThreshold = DefaultSolverConfig.DerivativeThreshold
	}
	return c
}

// YieldResult is the output of SolveYield.
type YieldResult struct {
	// Yield is the yield to maturity as a decimal, compounded at the coupon frequency.
	Yield float64
	// Price is the bond priced at Yield.
	Price PriceResult
	// Iterations is the number of solver steps taken.
	Iterations int
}

// SolveYield finds y such that the clean price at settlement equals targetClean.
//
// Clean price is strictly decreasing in y, so the root is bracketed by the
// search domain: clean(upper) ≤ target ≤ clean(lower). The solver takes
// Newton-Raphson steps with the analytic derivative and falls back to
// bisection whenever a step leaves the current bracket. It fails with
// *YieldRootNotFoundError rather than returning an unconverged estimate.
func SolveYield(s *Schedule, targetClean float64, settlement time.Time, cfg SolverConfig) (YieldResult, error) {
	cfg = cfg.withDefaults()

	ft, err := newFlowTimes(s, settlement)
	if err != nil {
		return YieldResult{}, err
	}
	if math.IsNaN(targetClean) || math.IsInf(targetClean, 0) || targetClean <= 0 {
		return YieldResult{}, &YieldRootNotFoundError{TargetPrice: targetClean, Reason: "target price must be positive and finite"}
	}

	accrued := s.AccruedInterest(settlement)
	residual := func(y float64) (float64, float64) {
		p, d := ft.dirtyPriceAndDeriv(y)
		return p - accrued - targetClean, d
	}

	// 1 + y/f must stay positive.
	lo := math.Max(cfg.LowerBound, -ft.frequency+1e-9)
	hi := cfg.UpperBound
	if !(lo < hi) {
		return YieldResult{}, &YieldRootNotFoundError{
			TargetPrice: targetClean,
			Reason:      fmt.Sprintf("empty yield domain [%.4f, %.4f]", lo, hi),
		}
	}
	fLo, _ := residual(lo)
	fHi, _ := residual(hi)
	if fLo < 0 || fHi > 0 {
		return YieldResult{}, &YieldRootNotFoundError{
			TargetPrice: targetClean,
			Reason:      fmt.Sprintf("price outside achievable range [%.6f, %.6f] for yields in [%.4f, %.4f]", fHi+targetClean, fLo+targetClean, lo, hi),
		}
	}

	// Horizon to the last payment, which may be rolled past maturity.
	years := ft.years[len(ft.years)-1]
	y := clamp(estimatedYield(s.CouponRate*100, s.Face, targetClean, years)/100, lo, hi)

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		f, dPdy := residual(y)

		if math.Abs(f) <= cfg.Tolerance {
			dirty := f + targetClean + accrued
			return YieldResult{
				Yield:      y,
				Price:      PriceResult{Dirty: dirty, Clean: dirty - accrued, Accrued: accrued},
				Iterations: iter + 1,
			}, nil
		}

		// Price too high means the root lies at a higher yield.
		if f > 0 {
			lo = y
		} else {
			hi = y
		}

		next := math.NaN()
		if math.Abs(dPdy) >= cfg.DerivativeThreshold {
			next = y - f/dPdy
		}
		if !(next > lo && next < hi) {
			next = 0.5 * (lo + hi)
		}
		if next == y {
			return YieldResult{}, &YieldRootNotFoundError{
				TargetPrice: targetClean, LastYield: y, Residual: f, Iterations: iter + 1,
				Reason: "bracket collapsed before reaching tolerance",
			}
		}
		y = next
	}

	f, _ := residual(y)
	return YieldResult{}, &YieldRootNotFoundError{
		TargetPrice: targetClean, LastYield: y, Residual: f, Iterations: cfg.MaxIterations,
		Reason: "did not converge",
	}
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// estimatedYield is the textbook YTM approximation used as the starting point,
// in percent:
//
//	(C + (F − P)/n) / ((F + P)/2)
func estimatedYield(couponPct, face, price, years float64) float64 {
	if years <= 0 {
		years = 1
	}
	cp := couponPct / 100 * face
	return (cp + (face-price)/years) / ((face + price) / 2) * 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
