package portfolio

import (
	"slices"

	"github.com/shopspring/decimal"
)

// aggregateBuckets groups analytics by tenor. Only configured tenors that hold
// at least one bond are emitted, ascending.
func aggregateBuckets(analytics []BondAnalytics, buckets []int, face float64) []AggregateBucket {
	byTenor := make(map[int]*AggregateBucket, len(buckets))
	for _, b := range buckets {
		byTenor[b] = &AggregateBucket{Bucket: b, Notional: decimal.Zero}
	}

	for _, a := range analytics {
		agg, ok := byTenor[a.Tenor]
		if !ok {
			continue
		}
		notional := a.Notional.InexactFloat64()
		agg.DV01 += a.DV01 * notional / face
		agg.AccruedInterest += a.AccruedInterest * notional
		agg.Notional = agg.Notional.Add(a.Notional)
		agg.Count++
	}

	out := make([]AggregateBucket, 0, len(byTenor))
	for _, agg := range byTenor {
		if agg.Count > 0 {
			out = append(out, *agg)
		}
	}
	slices.SortFunc(out, func(a, b AggregateBucket) int { return a.Bucket - b.Bucket })
	return out
}

// aggregateScenarios sums the per-bond shock rows. Every BondAnalytics carries
// one row per shift, in the order of shifts.
func aggregateScenarios(analytics []BondAnalytics, shifts []float64) []ScenarioPnL {
	out := make([]ScenarioPnL, len(shifts))
	for i, s := range shifts {
		out[i].ShiftBp = s
	}
	for _, a := range analytics {
		for i, sh := range a.Shocks {
			out[i].Profit += sh.Profit
			out[i].Loss += sh.Loss
		}
	}
	return out
}
