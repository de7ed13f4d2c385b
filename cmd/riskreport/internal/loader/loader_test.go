package loader

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/bondrisk/utils"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLoad_SamplePortfolio(t *testing.T) {
	t.Parallel()

	positions, err := Load(filepath.Join("..", "..", "testdata", "sample_portfolio.csv"))
	require.NoError(t, err)
	require.Len(t, positions, 6)

	p := positions[1]
	assert.Equal(t, "91282CCS8", p.SecurityID)
	assert.Equal(t, date(2021, 8, 15), p.IssueDate)
	assert.Equal(t, date(2021, 8, 16), p.FirstSettlementDate)
	assert.Equal(t, date(2022, 2, 15), p.FirstCouponDate)
	assert.Equal(t, date(2031, 8, 15), p.MaturityDate)
	assert.Equal(t, date(2021, 10, 12), p.EvaluationDate)
	assert.Equal(t, utils.ActActISDA, p.DayCountBasis)
	assert.Equal(t, "Fixed", p.CouponType)
	assert.Equal(t, 1.25, p.CouponRate)
	assert.Equal(t, 2, p.PaymentFrequency)
	assert.Equal(t, 99.0, p.CleanPrice)
	assert.True(t, p.PositionNotional.Equal(decimal.NewFromInt(25_000_000)), p.PositionNotional.String())

	assert.Equal(t, 4, positions[5].PaymentFrequency)
	assert.Equal(t, "Floating", positions[5].CouponType)
}

func TestParse_NumbersAndOptionalColumns(t *testing.T) {
	t.Parallel()

	in := "SecurityID ,IssueDate,MaturityDate,Coupon,Date,Price,PositionNotional,DaycountBasisType\n" +
		"\n" +
		`A1,2021-10-15,2031-10-15,3,2021-10-15,"1,000.5","(2,500,000.25)",BUS/252` + "\n"

	positions, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, positions, 1)

	p := positions[0]
	assert.Equal(t, 1000.5, p.CleanPrice)
	assert.True(t, p.PositionNotional.Equal(decimal.RequireFromString("-2500000.25")))
	assert.True(t, p.FirstSettlementDate.IsZero())
	assert.True(t, p.AccrualDate.IsZero())
	assert.Zero(t, p.PaymentFrequency)
	assert.Equal(t, utils.DayCount("BUS/252"), p.DayCountBasis, "unknown bases fail per bond later")
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	header := "SecurityID,IssueDate,MaturityDate,Coupon,Date,Price,PositionNotional,InterestPaymentFrequency\n"

	_, err := Parse(strings.NewReader("SecurityID,IssueDate\nA,2021-01-01\n"))
	require.ErrorIs(t, err, ErrMissingColumn)

	cases := map[string]struct {
		row    string
		column string
	}{
		"bad date":      {"A,15.10.2021,2031-10-15,3,2021-10-15,100,1,2", "IssueDate"},
		"missing price": {"A,2021-10-15,2031-10-15,3,2021-10-15,,1,2", "Price"},
		"bad notional":  {"A,2021-10-15,2031-10-15,3,2021-10-15,100,lots,2", "PositionNotional"},
		"bad frequency": {"A,2021-10-15,2031-10-15,3,2021-10-15,100,1,Fortnightly", "InterestPaymentFrequency"},
		"no id":         {",2021-10-15,2031-10-15,3,2021-10-15,100,1,2", "SecurityID"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(strings.NewReader(header + tc.row + "\n"))
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, 2, perr.Line)
			assert.Equal(t, tc.column, perr.Column)
		})
	}
}

func TestParse_ErrorLineSkipsBlankRows(t *testing.T) {
	t.Parallel()

	in := "SecurityID,IssueDate,MaturityDate,Coupon,Date,Price,PositionNotional\n" +
		"A,2021-10-15,2031-10-15,3,2021-10-15,100,1\n" +
		"\n" +
		",,,,,,\n" +
		"B,2021-10-15,2031-10-15,3,2021-10-15,oops,1\n"

	_, err := Parse(strings.NewReader(in))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 5, perr.Line)
	assert.Equal(t, "Price", perr.Column)
}

func TestParseFrequency(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"":            0,
		"Annual":      1,
		"Semi-Annual": 2,
		"semiannual":  2,
		"Quarterly":   4,
		"Monthly":     12,
		"2":           2,
		" 4 ":         4,
	}
	for in, want := range cases {
		got, err := ParseFrequency(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"5", "0", "-2", "weekly"} {
		_, err := ParseFrequency(bad)
		assert.Error(t, err, bad)
	}
}
