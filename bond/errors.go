package bond

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSchedule marks a bond whose dates cannot produce a cash-flow schedule.
	ErrInvalidSchedule = errors.New("invalid schedule")
	// ErrYieldRootNotFound marks a clean price that no yield in the search domain reproduces.
	ErrYieldRootNotFound = errors.New("yield root not found")
	// ErrInvalidYield is returned when 1 + y/f is not positive.
	ErrInvalidYield = errors.New("invalid yield")
)

// InvalidScheduleError describes why a schedule was rejected.
type InvalidScheduleError struct {
	Reason string
}

func (e *InvalidScheduleError) Error() string {
	return fmt.Sprintf("invalid schedule: %s", e.Reason)
}

func (e *InvalidScheduleError) Unwrap() error {
	return ErrInvalidSchedule
}

func invalidSchedule(format string, args ...any) error {
	return &InvalidScheduleError{Reason: fmt.Sprintf(format, args...)}
}

// YieldRootNotFoundError carries the solver state at the point of failure.
type YieldRootNotFoundError struct {
	TargetPrice float64
	LastYield   float64
	Residual    float64
	Iterations  int
	Reason      string
}

func (e *YieldRootNotFoundError) Error() string {
	if e.Iterations > 0 {
		return fmt.Sprintf("yield root not found for clean price %.6f: %s (iterations=%d, y=%.10f, residual=%.3e)",
			e.TargetPrice, e.Reason, e.Iterations, e.LastYield, e.Residual)
	}
	return fmt.Sprintf("yield root not found for clean price %.6f: %s", e.TargetPrice, e.Reason)
}

func (e *YieldRootNotFoundError) Unwrap() error {
	return ErrYieldRootNotFound
}
