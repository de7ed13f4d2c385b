package calendar

import (
	"fmt"
	"strings"
	"time"
)

// CalendarID labels a calendar in logs and config. It carries no holidays of
// its own: every holiday comes from the list passed to New.
type CalendarID string

const (
	WeekendsOnly CalendarID = "WEEKENDS"
	USD          CalendarID = "USD"
)

// BusinessDayConvention selects how a date falling on a non-business day is rolled.
type BusinessDayConvention string

const (
	Unadjusted        BusinessDayConvention = "UNADJUSTED"
	Following         BusinessDayConvention = "FOLLOWING"
	ModifiedFollowing BusinessDayConvention = "MODIFIED_FOLLOWING"
	Preceding         BusinessDayConvention = "PRECEDING"
)

// ParseConvention accepts the usual spellings ("Modified Following", "MF", "following").
func ParseConvention(s string) (BusinessDayConvention, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	switch key {
	case "", "NONE", "UNADJUSTED":
		return Unadjusted, nil
	case "F", "FOLLOWING":
		return Following, nil
	case "MF", "MODIFIED_FOLLOWING", "MODIFIEDFOLLOWING":
		return ModifiedFollowing, nil
	case "P", "PRECEDING":
		return Preceding, nil
	}
	return "", fmt.Errorf("calendar: unknown business day convention %q", s)
}

// Calendar is a business-day calendar: weekends plus an explicit holiday list.
//
// Holidays are supplied by the caller; the zero value is a weekends-only calendar.
type Calendar struct {
	ID       CalendarID
	holidays map[string]struct{}
}

// New builds a calendar from its identifier and holiday dates.
func New(id CalendarID, holidays ...time.Time) Calendar {
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[h.Format("2006-01-02")] = struct{}{}
	}
	return Calendar{ID: id, holidays: set}
}

func (c Calendar) isHoliday(t time.Time) bool {
	_, ok := c.holidays[t.Format("2006-01-02")]
	return ok
}

// Holidays returns the number of registered holidays.
func (c Calendar) Holidays() int {
	return len(c.holidays)
}

// IsBusinessDay checks weekends and holiday sets.
func (c Calendar) IsBusinessDay(t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !c.isHoliday(t)
}

// Roll applies conv to t.
func (c Calendar) Roll(t time.Time, conv BusinessDayConvention) time.Time {
	switch conv {
	case Following:
		return c.AdjustFollowing(t)
	case ModifiedFollowing:
		return c.Adjust(t)
	case Preceding:
		return c.AdjustPreceding(t)
	default:
		return t
	}
}

// Adjust applies Modified Following.
func (c Calendar) Adjust(t time.Time) time.Time {
	origMonth := t.Month()
	for !c.IsBusinessDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !c.IsBusinessDay(t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AdjustFollowing applies a simple Following convention (no month preservation).
func (c Calendar) AdjustFollowing(t time.Time) time.Time {
	for !c.IsBusinessDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AdjustPreceding rolls back to the previous business day.
func (c Calendar) AdjustPreceding(t time.Time) time.Time {
	for !c.IsBusinessDay(t) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func (c Calendar) AddBusinessDays(t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if c.IsBusinessDay(t) {
			n -= step
		}
	}
	return t
}
