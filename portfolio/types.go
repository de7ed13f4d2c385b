package portfolio

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/bondrisk/bond"
	"github.com/meenmo/bondrisk/utils"
)

// BondPosition is one row of a position file: a fixed-rate bond and the
// quantity held. CouponRate is in percent; CleanPrice is per 100 face.
type BondPosition struct {
	SecurityID          string
	IssueDate           time.Time
	FirstSettlementDate time.Time
	AccrualDate         time.Time // dated date; IssueDate when zero
	DayCountBasis       utils.DayCount
	CouponType          string
	CouponRate          float64
	FirstCouponDate     time.Time
	PaymentFrequency    int
	MaturityDate        time.Time
	EvaluationDate      time.Time
	CleanPrice          float64
	PositionNotional    decimal.Decimal
}

// BondAnalytics is the per-bond output of a run.
type BondAnalytics struct {
	SecurityID      string
	Settlement      time.Time
	Tenor           int // maturity year minus issue year
	YTM             float64
	Macaulay        float64
	Modified        float64
	DV01            float64 // per Face
	Simple          float64
	CleanPrice      float64
	DirtyPrice      float64
	AccruedInterest float64 // at Config.ReportDate, per Face
	Notional        decimal.Decimal
	Shocks          []bond.ShockResult
}

// AggregateBucket sums the bonds whose tenor equals Bucket.
type AggregateBucket struct {
	Bucket          int
	DV01            float64 // Σ DV01 × notional / face
	AccruedInterest float64 // Σ accrued × notional
	Notional        decimal.Decimal
	Count           int
}

// ScenarioPnL is the book-level P&L for one parallel yield shift.
type ScenarioPnL struct {
	ShiftBp float64
	Profit  float64 // yield down by ShiftBp
	Loss    float64 // yield up by ShiftBp
}

// Report is the result of Run.
type Report struct {
	RunID      string
	ReportDate time.Time
	CreatedAt  time.Time
	Positions  int

	Analytics []BondAnalytics // input order, failed bonds omitted
	Buckets   []AggregateBucket
	Scenarios []ScenarioPnL
	Failures  []PositionError
}
