package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DayCount identifies a day count convention.
type DayCount string

const (
	ActActISDA DayCount = "ACT/ACT ISDA"
	ActActICMA DayCount = "ACT/ACT ICMA"
	Act360     DayCount = "ACT/360"
	Act365F    DayCount = "ACT/365F"
	Thirty360  DayCount = "30/360"
	ThirtyE360 DayCount = "30E/360"
)

// ErrUnknownDayCount is returned by ParseDayCount for unrecognised conventions.
var ErrUnknownDayCount = errors.New("unknown day count convention")

// DayCountDomainError is raised (as a panic value) when a year fraction is
// requested for an interval whose end precedes its start.
type DayCountDomainError struct {
	Start time.Time
	End   time.Time
}

func (e *DayCountDomainError) Error() string {
	return fmt.Sprintf("day count: end %s before start %s", e.End.Format("2006-01-02"), e.Start.Format("2006-01-02"))
}

func checkDomain(start, end time.Time) {
	if end.Before(start) {
		panic(&DayCountDomainError{Start: start, End: end})
	}
}

// YearFraction computes year fraction between two dates using the specified day count convention.
// Supported conventions: ACT/ACT ISDA, ACT/360, ACT/365F, 30E/360, 30/360.
//
// ACT/ACT ICMA needs a reference coupon period (see YearFractionICMA); without
// one it is evaluated as ACT/ACT ISDA. Unknown conventions fall back to ACT/365F.
// Calling it with end before start panics with *DayCountDomainError.
func YearFraction(start, end time.Time, convention DayCount) float64 {
	checkDomain(start, end)

	switch convention {
	case ActActISDA, ActActICMA:
		return actActISDA(start, end)
	case Act360:
		return Days(start, end) / 360.0
	case Act365F:
		return Days(start, end) / 365.0
	case ThirtyE360:
		// 30E/360 ISDA (Eurobond basis)
		// D1 and D2 are capped at 30
		d1 := start.Day()
		if d1 > 30 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 > 30 {
			d2 = 30
		}
		return thirty360(start, end, d1, d2)
	case Thirty360:
		// 30/360 bond basis: D2 is only capped when D1 was.
		d1 := start.Day()
		if d1 > 30 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 > 30 && d1 == 30 {
			d2 = 30
		}
		return thirty360(start, end, d1, d2)
	default:
		return Days(start, end) / 365.0
	}
}

// YearFractionICMA returns the ACT/ACT ICMA year fraction of [start, end]
// measured against the regular coupon period [refStart, refEnd]:
//
//	days(start, end) / (frequency × days(refStart, refEnd))
func YearFractionICMA(start, end, refStart, refEnd time.Time, frequency int) float64 {
	checkDomain(start, end)
	checkDomain(refStart, refEnd)
	refDays := Days(refStart, refEnd)
	if refDays == 0 || frequency <= 0 {
		return 0
	}
	return Days(start, end) / (float64(frequency) * refDays)
}

// actActISDA splits the interval at calendar-year boundaries and weights each
// piece by the length of its own year.
func actActISDA(start, end time.Time) float64 {
	y1, y2 := start.Year(), end.Year()
	if y1 == y2 {
		return Days(start, end) / daysInYear(y1)
	}
	startNext := time.Date(y1+1, time.January, 1, 0, 0, 0, 0, start.Location())
	endFirst := time.Date(y2, time.January, 1, 0, 0, 0, 0, end.Location())
	return Days(start, startNext)/daysInYear(y1) +
		float64(y2-y1-1) +
		Days(endFirst, end)/daysInYear(y2)
}

func thirty360(start, end time.Time, d1, d2 int) float64 {
	y1, m1 := start.Year(), int(start.Month())
	y2, m2 := end.Year(), int(end.Month())
	return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
}

func daysInYear(year int) float64 {
	if time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay() == 366 {
		return 366
	}
	return 365
}

// ParseDayCount maps the textual bases found in position files
// ("ActualActual", "Actual/Actual (ISDA)", "ACT/365", "30/360 US", ...) to a DayCount.
func ParseDayCount(s string) (DayCount, error) {
	key := strings.ToUpper(strings.Join(strings.Fields(s), ""))
	key = strings.NewReplacer("ACTUAL", "ACT", "(", "", ")", "", "_", "", "-", "").Replace(key)

	switch key {
	case "ACT/ACT", "ACTACT", "ACT/ACTISDA", "ACTACTISDA", "ACT/ACTHISTORICAL":
		return ActActISDA, nil
	case "ACT/ACTICMA", "ACTACTICMA", "ACT/ACTISMA", "ACT/ACTBOND", "ICMA":
		return ActActICMA, nil
	case "ACT/360", "A360":
		return Act360, nil
	case "ACT/365", "ACT/365F", "ACT/365FIXED", "A365F":
		return Act365F, nil
	case "30/360", "30U/360", "30/360US", "BONDBASIS":
		return Thirty360, nil
	case "30E/360", "EUROBOND", "30/360ISMA":
		return ThirtyE360, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDayCount, s)
}
