package bond

import (
	"math"
	"time"
)

// Cashflow is a single dated cash payment for a bond.
//
// Amounts are per the schedule's face (per-100 by default), not in currency units.
type Cashflow struct {
	// AccrualStart and AccrualEnd bound the unadjusted coupon period.
	AccrualStart time.Time
	AccrualEnd   time.Time
	// Date is the payment date after business-day adjustment.
	Date time.Time
	// Fraction is the period length measured in regular coupon periods.
	Fraction  float64
	Coupon    float64
	Principal float64
}

func (c Cashflow) Amount() float64 {
	return c.Coupon + c.Principal
}

// Regular reports whether the coupon period is a full standard period.
func (c Cashflow) Regular() bool {
	return math.Abs(c.Fraction-1) < 1e-9
}
