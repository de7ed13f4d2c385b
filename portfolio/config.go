package portfolio

import (
	"math"
	"slices"
	"time"

	"github.com/meenmo/bondrisk/bond"
	"github.com/meenmo/bondrisk/calendar"
	"github.com/meenmo/bondrisk/utils"
)

// Config holds the run-wide parameters. It has no defaults of its own;
// the config package supplies them.
type Config struct {
	// ReportDate is the date accrued interest is reported at.
	ReportDate time.Time

	// DayCount and Frequency apply to positions that leave them blank.
	DayCount  utils.DayCount
	Frequency int

	Face float64

	// Buckets are the tenors (in years) reported; other tenors are dropped.
	Buckets []int

	// ShiftsBp are the parallel yield shifts, in basis points.
	ShiftsBp []float64

	// Calendar rolls settlement and payment dates. Only its explicit holidays
	// and weekends are non-business days.
	Calendar          calendar.Calendar
	PaymentAdjustment calendar.BusinessDayConvention

	// Workers bounds the number of positions analyzed concurrently.
	Workers int

	Solver bond.SolverConfig
}

// Validate reports the first inconsistency as an ErrInvalidConfig.
func (c Config) Validate() error {
	if c.ReportDate.IsZero() {
		return invalidConfig("report date is required")
	}
	if _, err := utils.ParseDayCount(string(c.DayCount)); err != nil {
		return invalidConfig("%v", err)
	}
	if c.Frequency <= 0 || 12%c.Frequency != 0 {
		return invalidConfig("frequency %d must divide 12", c.Frequency)
	}
	if !(c.Face > 0) || math.IsInf(c.Face, 0) {
		return invalidConfig("face %v must be positive", c.Face)
	}
	if len(c.Buckets) == 0 {
		return invalidConfig("at least one maturity bucket is required")
	}
	for i, b := range c.Buckets {
		if b <= 0 {
			return invalidConfig("bucket %d must be positive", b)
		}
		if slices.Contains(c.Buckets[:i], b) {
			return invalidConfig("bucket %d listed twice", b)
		}
	}
	for i, s := range c.ShiftsBp {
		if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 {
			return invalidConfig("shift %v must be a non-negative number of basis points", s)
		}
		if slices.Contains(c.ShiftsBp[:i], s) {
			return invalidConfig("shift %vbp listed twice", s)
		}
	}
	switch c.PaymentAdjustment {
	case "", calendar.Unadjusted, calendar.Following, calendar.ModifiedFollowing, calendar.Preceding:
	default:
		return invalidConfig("unknown payment adjustment %q", c.PaymentAdjustment)
	}
	if c.Workers <= 0 {
		return invalidConfig("workers must be positive, got %d", c.Workers)
	}
	s := c.Solver
	if !(s.Tolerance > 0) || s.Tolerance > 1e-8 {
		return invalidConfig("solver tolerance %v must be in (0, 1e-8]", s.Tolerance)
	}
	if s.MaxIterations <= 0 {
		return invalidConfig("solver max iterations must be positive")
	}
	if !(s.LowerBound < s.UpperBound) {
		return invalidConfig("solver bounds [%v, %v] are invalid", s.LowerBound, s.UpperBound)
	}
	return nil
}
