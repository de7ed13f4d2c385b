package bond_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/bondrisk/bond"
	"github.com/meenmo/bondrisk/utils"
)

func TestComputeRisk_TenYearPar(t *testing.T) {
	t.Parallel()

	s := tenYearPar(t, utils.ActActICMA)
	settle := date(2021, 10, 15)

	ytm, err := bond.SolveYield(s, 100, settle, bond.DefaultSolverConfig)
	require.NoError(t, err)
	assert.InDelta(t, 0.03, ytm.Yield, 1e-4)

	r, err := bond.ComputeRisk(s, ytm.Yield, settle)
	require.NoError(t, err)

	assert.InDelta(t, 8.713084183429, r.Macaulay, 1e-6)
	assert.GreaterOrEqual(t, r.Modified, 8.5)
	assert.LessOrEqual(t, r.Modified, 8.7)
	assert.InDelta(t, 8.584319392541, r.Modified, 1e-6)
	assert.Less(t, r.Modified, r.Macaulay)
	assert.InDelta(t, 0.0858431939, r.DV01, 1e-8)
	assert.InDelta(t, 8.903846153846, r.Simple, 1e-9)
	assert.InDelta(t, 100, r.Price.Clean, 1e-8)
}

func TestComputeRisk_ISDA(t *testing.T) {
	t.Parallel()

	s := tenYearPar(t, utils.ActActISDA)
	r, err := bond.ComputeRisk(s, 0.03, date(2021, 10, 15))
	require.NoError(t, err)

	assert.InDelta(t, 8.712972952889, r.Macaulay, 1e-6)
	assert.InDelta(t, 8.584209805802, r.Modified, 1e-6)
}

func TestComputeRisk_MidPeriod(t *testing.T) {
	t.Parallel()

	s := tenYearPar(t, utils.ActActICMA)
	r, err := bond.ComputeRisk(s, 0.03, date(2022, 1, 14))
	require.NoError(t, err)

	// Half a period closer to every payment.
	assert.InDelta(t, 8.713084183429-0.25, r.Macaulay, 1e-9)
	assert.InDelta(t, 8.338013973822, r.Modified, 1e-6)
	assert.InDelta(t, 0.0833778120966, r.DV01, 1e-9)
	assert.InDelta(t, 0.75, r.Price.Accrued, 1e-12)
}

func TestComputeRisk_DV01MatchesFiniteDifference(t *testing.T) {
	t.Parallel()

	s := tenYearPar(t, utils.ActActICMA)
	settle := date(2021, 10, 15)
	const y, h = 0.03, 1e-6

	r, err := bond.ComputeRisk(s, y, settle)
	require.NoError(t, err)

	down, err := bond.CleanPrice(s, y-h, settle)
	require.NoError(t, err)
	up, err := bond.CleanPrice(s, y+h, settle)
	require.NoError(t, err)

	fd := (down - up) / (2 * h) / 10000
	assert.InDelta(t, fd, r.DV01, 1e-8)
}

func TestComputeRisk_ZeroCouponDurationIsMaturity(t *testing.T) {
	t.Parallel()

	s, err := bond.BuildSchedule(bond.ScheduleInput{
		IssueDate:    date(2021, 10, 15),
		MaturityDate: date(2031, 10, 15),
		Frequency:    2,
		Face:         100,
		DayCount:     utils.ActActICMA,
	})
	require.NoError(t, err)

	r, err := bond.ComputeRisk(s, 0.05, date(2021, 10, 15))
	require.NoError(t, err)
	assert.InDelta(t, 10.0, r.Macaulay, 1e-12)
	assert.InDelta(t, 10.0, r.Simple, 1e-12)
	assert.InDelta(t, 10.0/1.025, r.Modified, 1e-12)
}

func TestComputeRisk_Errors(t *testing.T) {
	t.Parallel()

	s := tenYearPar(t, utils.ActActISDA)

	_, err := bond.ComputeRisk(s, 0.03, date(2040, 1, 1))
	require.ErrorIs(t, err, bond.ErrInvalidSchedule)

	_, err = bond.ComputeRisk(s, -3, date(2022, 1, 1))
	require.ErrorIs(t, err, bond.ErrInvalidYield)
}
