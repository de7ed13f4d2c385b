package bond

import (
	"sort"
	"time"

	"github.com/meenmo/bondrisk/calendar"
	"github.com/meenmo/bondrisk/utils"
)

// maxCouponPeriods bounds schedule generation (100 years of monthly coupons).
const maxCouponPeriods = 1200

// ScheduleInput holds the terms needed to generate a fixed-rate bond schedule.
type ScheduleInput struct {
	// IssueDate is the dated date: the start of the first accrual period.
	IssueDate    time.Time
	MaturityDate time.Time
	// FirstCouponDate is optional. When set it becomes the first payment date
	// and the period before it is a stub.
	FirstCouponDate time.Time
	// Frequency is coupons per year (1, 2, 3, 4, 6 or 12).
	Frequency int
	// CouponRate is the annual coupon as a decimal (0.03 for 3%).
	CouponRate float64
	// Face is the redemption amount; 100 gives per-100 prices.
	Face     float64
	DayCount utils.DayCount
	// Calendar and PaymentAdjustment roll payment dates. Accrual dates stay unadjusted.
	Calendar          calendar.Calendar
	PaymentAdjustment calendar.BusinessDayConvention
}

// Schedule is the ordered cash-flow schedule of a fixed-rate bond.
//
// The regular coupon grid is anchored at maturity: g_k = EDATE(maturity, -k·12/f).
// Every period is measured in grid periods, so regular periods have Fraction 1
// and stubs report their true length.
type Schedule struct {
	Cashflows    []Cashflow
	IssueDate    time.Time
	MaturityDate time.Time
	Frequency    int
	CouponRate   float64
	Face         float64
	DayCount     utils.DayCount

	monthsPerPeriod int
}

// BuildSchedule generates coupon and redemption cash flows by stepping back
// from maturity and snapping the earliest payment to FirstCouponDate.
//
// Coupon amounts:
//
//	regular period:   face × c / f
//	irregular period: face × c × yearFraction(start, end)
func BuildSchedule(in ScheduleInput) (*Schedule, error) {
	issue := utils.DateOnly(in.IssueDate)
	maturity := utils.DateOnly(in.MaturityDate)
	first := utils.DateOnly(in.FirstCouponDate)

	if issue.IsZero() || maturity.IsZero() {
		return nil, invalidSchedule("issue and maturity dates are required")
	}
	if !maturity.After(issue) {
		return nil, invalidSchedule("maturity %s not after issue %s", maturity.Format("2006-01-02"), issue.Format("2006-01-02"))
	}
	if !first.IsZero() && (!first.After(issue) || !first.Before(maturity)) {
		return nil, invalidSchedule("first coupon %s outside (%s, %s)", first.Format("2006-01-02"), issue.Format("2006-01-02"), maturity.Format("2006-01-02"))
	}
	if in.Frequency <= 0 || 12%in.Frequency != 0 {
		return nil, invalidSchedule("unsupported coupon frequency %d", in.Frequency)
	}
	if in.Face <= 0 {
		return nil, invalidSchedule("face must be positive, got %v", in.Face)
	}
	if in.CouponRate < 0 {
		return nil, invalidSchedule("negative coupon rate %v", in.CouponRate)
	}

	s := &Schedule{
		IssueDate:       issue,
		MaturityDate:    maturity,
		Frequency:       in.Frequency,
		CouponRate:      in.CouponRate,
		Face:            in.Face,
		DayCount:        in.DayCount,
		monthsPerPeriod: 12 / in.Frequency,
	}

	floor := issue
	if !first.IsZero() {
		floor = first
	}

	// Grid dates newest first, then the snapped first coupon.
	var ends []time.Time
	for k := 0; ; k++ {
		if k > maxCouponPeriods {
			return nil, invalidSchedule("more than %d coupon periods", maxCouponPeriods)
		}
		d := s.gridDate(k)
		if !d.After(floor) {
			break
		}
		ends = append(ends, d)
	}
	if !first.IsZero() {
		ends = append(ends, first)
	}
	for i, j := 0, len(ends)-1; i < j; i, j = i+1, j-1 {
		ends[i], ends[j] = ends[j], ends[i]
	}

	s.Cashflows = make([]Cashflow, 0, len(ends))
	start := issue
	for i, end := range ends {
		cf := Cashflow{
			AccrualStart: start,
			AccrualEnd:   end,
			Date:         in.Calendar.Roll(end, in.PaymentAdjustment),
			Fraction:     s.periods(start, end),
		}
		if cf.Regular() {
			cf.Coupon = s.Face * s.CouponRate / float64(s.Frequency)
		} else {
			cf.Coupon = s.Face * s.CouponRate * s.YearFraction(start, end)
		}
		if i == len(ends)-1 {
			cf.Principal = s.Face
		}
		s.Cashflows = append(s.Cashflows, cf)
		start = end
	}

	return s, nil
}

// YearFraction measures [start, end] with the schedule's day count.
//
// ACT/ACT ICMA is evaluated against the regular coupon grid, so a regular
// period is exactly 1/f years and stubs are weighted by their own reference periods.
func (s *Schedule) YearFraction(start, end time.Time) float64 {
	if s.DayCount == utils.ActActICMA {
		return s.periods(start, end) / float64(s.Frequency)
	}
	return utils.YearFraction(start, end, s.DayCount)
}

// AccruedInterest returns accrued coupon at date d, per the schedule's face:
//
//	face × c × yearFraction(periodStart, d)
//
// It is zero before the dated date and from maturity on.
func (s *Schedule) AccruedInterest(d time.Time) float64 {
	d = utils.DateOnly(d)
	cf, ok := s.periodContaining(d)
	if !ok {
		return 0
	}
	return s.Face * s.CouponRate * s.YearFraction(cf.AccrualStart, d)
}

// LastPaymentDate is the (adjusted) redemption date.
func (s *Schedule) LastPaymentDate() time.Time {
	if len(s.Cashflows) == 0 {
		return s.MaturityDate
	}
	return s.Cashflows[len(s.Cashflows)-1].Date
}

// periodContaining finds the accrual period with AccrualStart <= d < AccrualEnd.
func (s *Schedule) periodContaining(d time.Time) (Cashflow, bool) {
	i := sort.Search(len(s.Cashflows), func(i int) bool {
		return s.Cashflows[i].AccrualEnd.After(d)
	})
	if i >= len(s.Cashflows) || d.Before(s.Cashflows[i].AccrualStart) {
		return Cashflow{}, false
	}
	return s.Cashflows[i], true
}

// gridDate is the k-th regular coupon date counted back from maturity.
// Negative k extends the grid past maturity.
func (s *Schedule) gridDate(k int) time.Time {
	return utils.AddMonth(s.MaturityDate, -k*s.monthsPerPeriod)
}

// periods measures [a, b] in regular coupon periods: each grid interval
// contributes overlap / interval length.
func (s *Schedule) periods(a, b time.Time) float64 {
	if b.Before(a) {
		panic(&utils.DayCountDomainError{Start: a, End: b})
	}
	if !b.After(a) {
		return 0
	}

	k := 0
	for s.gridDate(k).Before(b) {
		k--
	}

	total := 0.0
	for ; s.gridDate(k).After(a); k++ {
		end := s.gridDate(k)
		start := s.gridDate(k + 1)
		lo, hi := maxTime(a, start), minTime(b, end)
		if hi.After(lo) {
			total += utils.YearFractionICMA(lo, hi, start, end, 1)
		}
	}
	return total
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
