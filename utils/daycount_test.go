package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/bondrisk/utils"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestYearFraction_ActActISDA(t *testing.T) {
	t.Parallel()

	// Same non-leap year.
	assert.InDelta(t, 181.0/365.0, utils.YearFraction(date(2021, 1, 1), date(2021, 7, 1), utils.ActActISDA), 1e-15)

	// Straddling a leap year: 2023-11-01 -> 2024-05-01.
	// 61 days in 2023 (/365) and 121 days in 2024 (/366).
	want := 61.0/365.0 + 121.0/366.0
	assert.InDelta(t, want, utils.YearFraction(date(2023, 11, 1), date(2024, 5, 1), utils.ActActISDA), 1e-15)

	// Whole years in the middle count as exactly one each.
	want = 184.0/365.0 + 3 + 181.0/365.0
	assert.InDelta(t, want, utils.YearFraction(date(2021, 7, 1), date(2025, 7, 1), utils.ActActISDA), 1e-12)
}

func TestYearFraction_FixedBases(t *testing.T) {
	t.Parallel()

	start := date(2025, 1, 31)
	end := date(2025, 7, 31)

	assert.InDelta(t, 181.0/360.0, utils.YearFraction(start, end, utils.Act360), 1e-15)
	assert.InDelta(t, 181.0/365.0, utils.YearFraction(start, end, utils.Act365F), 1e-15)
	assert.InDelta(t, 0.5, utils.YearFraction(start, end, utils.Thirty360), 1e-15)
	assert.InDelta(t, 0.5, utils.YearFraction(start, end, utils.ThirtyE360), 1e-15)

	// 30/360 only caps D2 when D1 was capped; 30E/360 always caps.
	assert.InDelta(t, 60.0/360.0, utils.YearFraction(date(2025, 3, 30), date(2025, 5, 31), utils.Thirty360), 1e-15)
	assert.InDelta(t, 62.0/360.0, utils.YearFraction(date(2025, 3, 29), date(2025, 5, 31), utils.Thirty360), 1e-15)
	assert.InDelta(t, 61.0/360.0, utils.YearFraction(date(2025, 3, 29), date(2025, 5, 31), utils.ThirtyE360), 1e-15)
}

func TestYearFraction_EmptyIntervalIsZero(t *testing.T) {
	t.Parallel()

	d := date(2024, 2, 29)
	for _, dc := range []utils.DayCount{utils.ActActISDA, utils.Act360, utils.Act365F, utils.Thirty360, utils.ThirtyE360} {
		assert.Zero(t, utils.YearFraction(d, d, dc), string(dc))
	}
}

func TestYearFraction_EndBeforeStartPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		r := recover()
		require.NotNil(t, r)
		domainErr, ok := r.(*utils.DayCountDomainError)
		require.True(t, ok, "panic value %T", r)
		assert.Contains(t, domainErr.Error(), "before start")
	}()
	utils.YearFraction(date(2025, 6, 1), date(2025, 1, 1), utils.ActActISDA)
}

func TestYearFractionICMA(t *testing.T) {
	t.Parallel()

	refStart := date(2025, 1, 15)
	refEnd := date(2025, 7, 15) // 181 days

	assert.InDelta(t, 0.5, utils.YearFractionICMA(refStart, refEnd, refStart, refEnd, 2), 1e-15)
	assert.InDelta(t, 90.0/(2*181.0), utils.YearFractionICMA(refStart, refStart.AddDate(0, 0, 90), refStart, refEnd, 2), 1e-15)
	assert.Zero(t, utils.YearFractionICMA(refStart, refEnd, refStart, refStart, 2))
}

func TestParseDayCount(t *testing.T) {
	t.Parallel()

	cases := map[string]utils.DayCount{
		"ActualActual":         utils.ActActISDA,
		"ACT/ACT":              utils.ActActISDA,
		"Actual/Actual (ISDA)": utils.ActActISDA,
		"act/act icma":         utils.ActActICMA,
		"Actual/Actual (ISMA)": utils.ActActICMA,
		"ACT/360":              utils.Act360,
		"Actual/365 (Fixed)":   utils.Act365F,
		"30/360":               utils.Thirty360,
		"30/360 US":            utils.Thirty360,
		"30E/360":              utils.ThirtyE360,
	}
	for in, want := range cases {
		got, err := utils.ParseDayCount(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := utils.ParseDayCount("BUS/252")
	require.ErrorIs(t, err, utils.ErrUnknownDayCount)
}
