// Package loader reads position files into portfolio.BondPosition values.
package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/meenmo/bondrisk/portfolio"
	"github.com/meenmo/bondrisk/utils"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing column")

// ParseError locates a bad cell in the position file.
type ParseError struct {
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %s: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// positionRow mirrors the position file. Every cell is read as text and
// converted by toPosition so that errors carry the line and column.
type positionRow struct {
	SecurityID               string `csv:"SecurityID"`
	IssueDate                string `csv:"IssueDate"`
	FirstSettlementDate      string `csv:"FirstSettlementDate"`
	AccrualDate              string `csv:"AccrualDate"`
	DaycountBasisType        string `csv:"DaycountBasisType"`
	CouponType               string `csv:"CouponType"`
	Coupon                   string `csv:"Coupon"`
	FirstCouponDate          string `csv:"FirstCouponDate"`
	InterestPaymentFrequency string `csv:"InterestPaymentFrequency"`
	MaturityDate             string `csv:"MaturityDate"`
	Date                     string `csv:"Date"`
	Price                    string `csv:"Price"`
	PositionNotional         string `csv:"PositionNotional"`
}

var requiredColumns = []string{"SecurityID", "IssueDate", "Coupon", "MaturityDate", "Date", "Price", "PositionNotional"}

// Load reads the position file at path.
func Load(path string) ([]portfolio.BondPosition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open positions: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a position file. Header cells are trimmed, extra columns are
// ignored and blank lines are skipped.
func Parse(r io.Reader) ([]portfolio.BondPosition, error) {
	data, lines, err := normalizeHeader(r)
	if err != nil {
		return nil, err
	}

	var rows []*positionRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode positions: %w", err)
	}

	positions := make([]portfolio.BondPosition, 0, len(rows))
	for i, row := range rows {
		p, err := row.toPosition(lines[i])
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, nil
}

// normalizeHeader trims the header cells (files in the wild carry
// " PositionNotional ") and checks the required columns. lines holds the
// file line of each data record kept.
func normalizeHeader(r io.Reader) (data []byte, lines []int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var records [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read positions: %w", err)
		}
		if len(records) > 0 {
			if isBlank(rec) {
				continue
			}
			line, _ := cr.FieldPos(0)
			lines = append(lines, line)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
	}

	header := records[0]
	present := make(map[string]bool, len(header))
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		present[header[i]] = true
	}
	for _, col := range requiredColumns {
		if !present[col] {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return nil, nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), lines, w.Error()
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func (row *positionRow) toPosition(line int) (portfolio.BondPosition, error) {
	fail := func(col string, err error) (portfolio.BondPosition, error) {
		return portfolio.BondPosition{}, &ParseError{Line: line, Column: col, Err: err}
	}

	p := portfolio.BondPosition{
		SecurityID: strings.TrimSpace(row.SecurityID),
		CouponType: strings.TrimSpace(row.CouponType),
	}
	if p.SecurityID == "" {
		return fail("SecurityID", errors.New("required"))
	}

	var err error
	dates := []struct {
		col      string
		raw      string
		dst      *time.Time
		required bool
	}{
		{"IssueDate", row.IssueDate, &p.IssueDate, true},
		{"FirstSettlementDate", row.FirstSettlementDate, &p.FirstSettlementDate, false},
		{"AccrualDate", row.AccrualDate, &p.AccrualDate, false},
		{"FirstCouponDate", row.FirstCouponDate, &p.FirstCouponDate, false},
		{"MaturityDate", row.MaturityDate, &p.MaturityDate, true},
		{"Date", row.Date, &p.EvaluationDate, true},
	}
	for _, d := range dates {
		raw := strings.TrimSpace(d.raw)
		if raw == "" {
			if d.required {
				return fail(d.col, errors.New("required"))
			}
			continue
		}
		if *d.dst, err = utils.ParseDate(raw); err != nil {
			return fail(d.col, err)
		}
	}

	if p.CouponRate, err = parseNumber(row.Coupon); err != nil {
		return fail("Coupon", err)
	}
	if p.CleanPrice, err = parseNumber(row.Price); err != nil {
		return fail("Price", err)
	}
	if p.PositionNotional, err = parseDecimal(row.PositionNotional); err != nil {
		return fail("PositionNotional", err)
	}
	if p.PaymentFrequency, err = ParseFrequency(row.InterestPaymentFrequency); err != nil {
		return fail("InterestPaymentFrequency", err)
	}

	// Unknown bases are passed through and fail that bond only.
	if basis := strings.TrimSpace(row.DaycountBasisType); basis != "" {
		if dc, err := utils.ParseDayCount(basis); err == nil {
			p.DayCountBasis = dc
		} else {
			p.DayCountBasis = utils.DayCount(basis)
		}
	}
	return p, nil
}

// cleanNumber strips thousands separators and turns accounting
// parentheses into a leading minus.
func cleanNumber(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("required")
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + strings.TrimSpace(s[1:len(s)-1])
	}
	return strings.ReplaceAll(s, ",", ""), nil
}

func parseNumber(s string) (float64, error) {
	c, err := cleanNumber(s)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(c, 64)
}

func parseDecimal(s string) (decimal.Decimal, error) {
	c, err := cleanNumber(s)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(c)
}

// ParseFrequency accepts payments per year ("2") or a name ("Semi-Annual").
// An empty cell returns 0, meaning the configured default.
func ParseFrequency(s string) (int, error) {
	key := strings.ToUpper(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.TrimSpace(s)))
	switch key {
	case "":
		return 0, nil
	case "ANNUAL", "ANNUALLY", "YEARLY":
		return 1, nil
	case "SEMIANNUAL", "SEMIANNUALLY":
		return 2, nil
	case "QUARTERLY":
		return 4, nil
	case "BIMONTHLY":
		return 6, nil
	case "MONTHLY":
		return 12, nil
	}
	n, err := strconv.Atoi(key)
	if err != nil || n <= 0 || 12%n != 0 {
		return 0, fmt.Errorf("unsupported payment frequency %q", s)
	}
	return n, nil
}
