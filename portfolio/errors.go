package portfolio

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPortfolio    = errors.New("empty portfolio")
	ErrDuplicateSecurity = errors.New("duplicate security id")
	ErrInvalidConfig     = errors.New("invalid portfolio config")
	ErrUnsupportedCoupon = errors.New("unsupported coupon type")
	ErrInvalidPosition   = errors.New("invalid position")
)

// PositionError records why one bond was excluded from a run.
type PositionError struct {
	SecurityID string
	Err        error
}

func (e PositionError) Error() string {
	return fmt.Sprintf("%s: %v", e.SecurityID, e.Err)
}

func (e PositionError) Unwrap() error {
	return e.Err
}

func invalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
