package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/bondrisk/bond"
	"github.com/meenmo/bondrisk/calendar"
	"github.com/meenmo/bondrisk/utils"
)

const parBondJSON = `{"task_id":"par","issue_date":"2021-10-15","maturity_date":"2031-10-15",
"settlement_date":"2021-10-15","coupon_rate":3,"clean_price":100}`

func TestYield_SingleFromStdin(t *testing.T) {
	var stdout, stderr bytes.Buffer
	root := NewRootCmd(&stdout, &stderr)
	root.SetIn(strings.NewReader(parBondJSON))
	root.SetArgs([]string{"yield"})
	require.NoError(t, root.ExecuteContext(context.Background()), stderr.String())

	var got yieldOutput
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, "par", got.TaskID)
	assert.Empty(t, got.Error)
	assert.InDelta(t, 0.03, got.Yield, 1e-9)
	assert.InDelta(t, 8.712972952889, got.Macaulay, 1e-8)
	assert.InDelta(t, 8.584209805802, got.Modified, 1e-8)
	assert.InDelta(t, 0.08584209805802, got.DV01, 1e-10)
	assert.Zero(t, got.AccruedInterest)
}

func TestYield_ArrayWithFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	body := `[` + parBondJSON + `,
{"task_id":"mid","issue_date":"2021-10-15","maturity_date":"2031-10-15","settlement_date":"2022-01-14",
 "coupon_rate":3,"frequency":2,"day_count":"ACT/ACT ICMA","clean_price":97.25},
{"task_id":"bad","issue_date":"2021-10-15","maturity_date":"2031-10-15","settlement_date":"2032-01-01",
 "coupon_rate":3,"clean_price":100}]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	code, stdout, stderr := run(t, "yield", "--input", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, errTaskFailed.Error())

	var got []yieldOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	require.Len(t, got, 3)

	assert.Empty(t, got[1].Error)
	assert.InDelta(t, 0.0333229517, got[1].Yield, 1e-8)
	assert.InDelta(t, 0.75, got[1].AccruedInterest, 1e-10)
	assert.InDelta(t, 98.0, got[1].DirtyPrice, 1e-8)

	assert.Equal(t, "bad", got[2].TaskID)
	assert.NotEmpty(t, got[2].Error)
	assert.Zero(t, got[2].Yield)
}

func TestYield_UsesConfiguredPaymentAdjustment(t *testing.T) {
	// Final payment 2022-10-15 is a Saturday; Following rolls it to Monday.
	task := `{"issue_date":"2021-10-15","maturity_date":"2022-10-15","settlement_date":"2022-04-15",
"coupon_rate":3,"day_count":"ACT/ACT ICMA","clean_price":100}`

	solve := func() yieldOutput {
		var stdout, stderr bytes.Buffer
		root := NewRootCmd(&stdout, &stderr)
		root.SetIn(strings.NewReader(task))
		root.SetArgs([]string{"yield"})
		require.NoError(t, root.ExecuteContext(context.Background()), stderr.String())
		var got yieldOutput
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
		return got
	}

	unadjusted := solve()
	assert.InDelta(t, 0.03, unadjusted.Yield, 1e-9)

	t.Setenv("BONDRISK_PAYMENT_ADJUSTMENT", "FOLLOWING")
	following := solve()

	s, err := bond.BuildSchedule(bond.ScheduleInput{
		IssueDate:         time.Date(2021, 10, 15, 0, 0, 0, 0, time.UTC),
		MaturityDate:      time.Date(2022, 10, 15, 0, 0, 0, 0, time.UTC),
		Frequency:         2,
		CouponRate:        0.03,
		Face:              100,
		DayCount:          utils.ActActICMA,
		Calendar:          calendar.New(calendar.USD),
		PaymentAdjustment: calendar.Following,
	})
	require.NoError(t, err)
	want, err := bond.SolveYield(s, 100, time.Date(2022, 4, 15, 0, 0, 0, 0, time.UTC), bond.DefaultSolverConfig)
	require.NoError(t, err)

	assert.InDelta(t, want.Yield, following.Yield, 1e-9)
	assert.Less(t, following.Yield, unadjusted.Yield, "a later payment at the same price yields less")
}

func TestYield_BadInput(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"empty array":   "[]",
		"malformed":     "{",
		"missing issue": `{"maturity_date":"2031-10-15","settlement_date":"2021-10-15","clean_price":100}`,
		"bad day count": `{"issue_date":"2021-10-15","maturity_date":"2031-10-15","settlement_date":"2021-10-15","clean_price":100,"day_count":"30/360 SIA"}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			root := NewRootCmd(&stdout, &stderr)
			root.SetIn(strings.NewReader(in))
			root.SetArgs([]string{"yield"})
			assert.Error(t, root.ExecuteContext(context.Background()))
		})
	}
}
