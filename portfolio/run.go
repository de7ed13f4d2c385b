package portfolio

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/meenmo/bondrisk/logging"
)

// Option configures Run.
type Option func(*runOptions)

type runOptions struct {
	log zerolog.Logger
	now func() time.Time
}

// WithLogger sets the logger used for per-bond failures and the run summary.
func WithLogger(log zerolog.Logger) Option {
	return func(o *runOptions) { o.log = log }
}

// WithClock overrides the clock used for Report.CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *runOptions) { o.now = now }
}

// Run analyzes every position and aggregates the results.
//
// Positions are analyzed in parallel, at most cfg.Workers at a time. A bond
// that cannot be priced is recorded in Report.Failures and left out of every
// sum; Run itself fails only on an empty or inconsistent input, an invalid
// Config or a cancelled context.
func Run(ctx context.Context, positions []BondPosition, cfg Config, opts ...Option) (*Report, error) {
	o := runOptions{log: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, ErrEmptyPortfolio
	}
	seen := make(map[string]struct{}, len(positions))
	for _, p := range positions {
		if _, dup := seen[p.SecurityID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSecurity, p.SecurityID)
		}
		seen[p.SecurityID] = struct{}{}
	}

	cfg.ShiftsBp = slices.Clone(cfg.ShiftsBp)
	slices.Sort(cfg.ShiftsBp)

	runID := uuid.NewString()
	log := logging.WithRun(o.log, runID)
	start := time.Now()
	log.Info().
		Int("positions", len(positions)).
		Int("workers", cfg.Workers).
		Time("report_date", cfg.ReportDate).
		Msg("Portfolio analysis started")

	results := make([]BondAnalytics, len(positions))
	errs := make([]error, len(positions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := range positions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = Analyze(positions[i], cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("portfolio.Run: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("portfolio.Run: %w", err)
	}

	rep := &Report{
		RunID:      runID,
		ReportDate: cfg.ReportDate,
		CreatedAt:  o.now().UTC(),
		Positions:  len(positions),
	}
	for i, p := range positions {
		blog := logging.WithSecurity(log, p.SecurityID)
		if errs[i] != nil {
			rep.Failures = append(rep.Failures, PositionError{SecurityID: p.SecurityID, Err: errs[i]})
			blog.Warn().Err(errs[i]).Msg("Position excluded")
			continue
		}
		a := results[i]
		blog.Debug().
			Float64("ytm", a.YTM).
			Float64("modified_duration", a.Modified).
			Float64("dv01", a.DV01).
			Int("tenor", a.Tenor).
			Msg("Position analyzed")
		rep.Analytics = append(rep.Analytics, a)
	}

	rep.Buckets = aggregateBuckets(rep.Analytics, cfg.Buckets, cfg.Face)
	rep.Scenarios = aggregateScenarios(rep.Analytics, cfg.ShiftsBp)

	log.Info().
		Int("analyzed", len(rep.Analytics)).
		Int("failed", len(rep.Failures)).
		Int("buckets", len(rep.Buckets)).
		Dur("elapsed", time.Since(start)).
		Msg("Portfolio analysis complete")

	return rep, nil
}
