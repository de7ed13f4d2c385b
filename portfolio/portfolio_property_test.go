package portfolio_test

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"github.com/meenmo/bondrisk/portfolio"
)

func TestProperty_BucketNotionalIsExact(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng.Seed(1012)
	parameters.MaxShrinkCount = 0
	properties := gopter.NewProperties(parameters)

	cfg := testConfig()

	properties.Property("bucket notionals sum exactly the bonds of that tenor", prop.ForAll(
		func(tenors []int, cents []int64) bool {
			n := min(len(tenors), len(cents))
			if n == 0 {
				return true
			}
			positions := make([]portfolio.BondPosition, n)
			want := map[int]decimal.Decimal{}
			for i := 0; i < n; i++ {
				notional := decimal.New(cents[i], -2)
				p := parBond(fmt.Sprintf("B%03d", i), tenors[i], 3, "0")
				p.PositionNotional = notional
				positions[i] = p
				if slices.Contains(cfg.Buckets, tenors[i]) {
					want[tenors[i]] = want[tenors[i]].Add(notional)
				}
			}

			rep, err := portfolio.Run(context.Background(), positions, cfg)
			if err != nil || len(rep.Failures) != 0 || len(rep.Buckets) != len(want) {
				return false
			}
			for i, b := range rep.Buckets {
				if i > 0 && rep.Buckets[i-1].Bucket >= b.Bucket {
					return false
				}
				if !b.Notional.Equal(want[b.Bucket]) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(8, gen.IntRange(0, 5).Map(func(i int) int { return []int{3, 5, 7, 10, 20, 30}[i] })),
		gen.SliceOfN(8, gen.Int64Range(1, 1_000_000_000_00)),
	))

	properties.TestingRun(t)
}
