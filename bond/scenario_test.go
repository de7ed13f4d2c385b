package bond_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/bondrisk/bond"
	"github.com/meenmo/bondrisk/utils"
)

func TestShockPnL_TenYearPar(t *testing.T) {
	t.Parallel()

	s := tenYearPar(t, utils.ActActICMA)
	settle := date(2021, 10, 15)

	got, err := bond.ShockPnL(s, 0.03, 100, 1_000_000, settle, []float64{5, 10, 25})
	require.NoError(t, err)
	require.Len(t, got, 3)

	want := []struct{ bp, profit, loss float64 }{
		{5, 4302.756, -4281.600},
		{10, 8626.780, -8542.157},
		{25, 21727.59, -21198.67},
	}
	for i, w := range want {
		assert.Equal(t, w.bp, got[i].ShiftBp)
		assert.InDelta(t, w.profit, got[i].Profit, 0.01, "%vbp profit", w.bp)
		assert.InDelta(t, w.loss, got[i].Loss, 0.01, "%vbp loss", w.bp)
	}
}

func TestShockPnL_SignsAndConvexity(t *testing.T) {
	t.Parallel()

	s := tenYearPar(t, utils.ActActISDA)
	settle := date(2022, 1, 14)

	clean, err := bond.CleanPrice(s, 0.035, settle)
	require.NoError(t, err)
	r, err := bond.ComputeRisk(s, 0.035, settle)
	require.NoError(t, err)

	got, err := bond.ShockPnL(s, 0.035, clean, 100, settle, []float64{1, 25, 100})
	require.NoError(t, err)

	for _, g := range got {
		assert.Positive(t, g.Profit, "%vbp", g.ShiftBp)
		assert.Negative(t, g.Loss, "%vbp", g.ShiftBp)
		assert.Greater(t, g.Profit, -g.Loss, "convexity at %vbp", g.ShiftBp)
		assert.Greater(t, g.PriceDown, clean)
		assert.Less(t, g.PriceUp, clean)
	}

	// First-order agreement with DV01 for a 25bp move.
	approx := r.Modified * r.Price.Dirty / 10000 * 25
	assert.InEpsilon(t, approx, got[1].Profit, 0.03)
	assert.InEpsilon(t, approx, -got[1].Loss, 0.03)
}

func TestShockPnL_ZeroShift(t *testing.T) {
	t.Parallel()

	s := tenYearPar(t, utils.ActActICMA)
	got, err := bond.ShockPnL(s, 0.03, 100, 500, date(2021, 10, 15), []float64{0})
	require.NoError(t, err)
	assert.InDelta(t, 0, got[0].Profit, 1e-9)
	assert.InDelta(t, 0, got[0].Loss, 1e-9)
}

func TestShockPnL_ShiftBreachesYieldDomain(t *testing.T) {
	t.Parallel()

	s := tenYearPar(t, utils.ActActICMA)
	_, err := bond.ShockPnL(s, -1.95, 100, 100, date(2021, 10, 15), []float64{1000})
	require.ErrorIs(t, err, bond.ErrInvalidYield)
}
