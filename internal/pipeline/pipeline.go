package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/wind-power-etl/internal/domain"
	"github.com/couchcryptid/wind-power-etl/internal/observability"
)

// Extractor reads the raw turbine tables.
type Extractor interface {
	Extract(ctx context.Context) ([]domain.TurbineTable, error)
}

// Transformer turns raw tables into the cleaned dataset.
type Transformer interface {
	Transform(ctx context.Context, tables []domain.TurbineTable) (domain.FilterResult, error)
}

// Loader writes the cleaned dataset to a destination.
type Loader interface {
	Name() string
	Load(ctx context.Context, readings []domain.Reading) error
}

// ErrAlreadyRunning is returned by Run while another run is in progress.
var ErrAlreadyRunning = errors.New("pipeline already running")

const (
	defaultBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Pipeline runs one extract-transform-load pass over the turbine tables.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loaders     []Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock

	retries        int
	initialBackoff time.Duration

	running atomic.Bool
	ready   atomic.Bool
	last    atomic.Pointer[Report]
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock sets the clock used for stage timings and retry backoff.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithLoadRetries sets how many times a failing loader is retried.
func WithLoadRetries(n int) Option {
	return func(p *Pipeline) { p.retries = max(n, 0) }
}

// WithInitialBackoff sets the first retry delay. Later delays double up to 5s.
func WithInitialBackoff(d time.Duration) Option {
	return func(p *Pipeline) { p.initialBackoff = d }
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, t Transformer, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:      e,
		transformer:    t,
		loaders:        loaders,
		logger:         logger,
		metrics:        metrics,
		clock:          clockwork.NewRealClock(),
		initialBackoff: defaultBackoff,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once a run has completed successfully,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LastReport returns the report of the most recent successful run.
func (p *Pipeline) LastReport() (Report, bool) {
	r := p.last.Load()
	if r == nil {
		return Report{}, false
	}
	return *r, true
}

// Run executes extract, transform and every loader once. Fatal domain errors
// (unknown source, insufficient data) abort the run with nothing written.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	if !p.running.CompareAndSwap(false, true) {
		return Report{}, ErrAlreadyRunning
	}
	defer p.running.Store(false)

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	report := Report{StartedAt: p.clock.Now(), Stages: make(map[string]Duration, 3)}
	p.logger.Info("pipeline started", "loaders", len(p.loaders))

	stageStart := p.clock.Now()
	tables, err := p.extractor.Extract(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("extract: %w", err)
	}
	p.observeStage(&report, "extract", stageStart)
	report.addTables(tables)

	stageStart = p.clock.Now()
	result, err := p.transformer.Transform(ctx, tables)
	if err != nil {
		return Report{}, fmt.Errorf("transform: %w", err)
	}
	p.observeStage(&report, "transform", stageStart)
	report.addResult(result)

	stageStart = p.clock.Now()
	for _, l := range p.loaders {
		if err := p.loadWithRetry(ctx, l, result.Readings); err != nil {
			return Report{}, fmt.Errorf("load %s: %w", l.Name(), err)
		}
		report.Loaders = append(report.Loaders, l.Name())
	}
	p.observeStage(&report, "load", stageStart)

	report.FinishedAt = p.clock.Now()
	p.recordSuccess(report)

	p.logger.Info("pipeline completed",
		"rows_loaded", report.RowsLoaded,
		"rows_rejected", report.RowsRejected,
		"rows_written", report.RowsWritten,
		"dropped_missing", report.DroppedMissing,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	return report, nil
}

func (p *Pipeline) observeStage(report *Report, stage string, start time.Time) {
	d := p.clock.Since(start)
	report.Stages[stage] = Duration(d)
	p.metrics.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *Pipeline) recordSuccess(report Report) {
	for src, n := range report.Removed {
		p.metrics.RowsRemoved.WithLabelValues(src.String()).Add(float64(n))
	}
	p.metrics.RowsDroppedMissing.Add(float64(report.DroppedMissing))
	p.metrics.RowsWritten.Add(float64(report.RowsWritten))
	p.metrics.LastSuccess.Set(float64(report.FinishedAt.Unix()))

	p.last.Store(&report)
	p.ready.Store(true)
}

// loadWithRetry calls l.Load, retrying with exponential backoff.
func (p *Pipeline) loadWithRetry(ctx context.Context, l Loader, readings []domain.Reading) error {
	backoff := p.initialBackoff
	for attempt := 0; ; attempt++ {
		err := l.Load(ctx, readings)
		if err == nil {
			return nil
		}
		if attempt >= p.retries || ctx.Err() != nil {
			return err
		}

		p.logger.Warn("load failed, retrying",
			"loader", l.Name(),
			"error", err,
			"attempt", attempt+1,
			"backoff", backoff,
		)
		p.metrics.LoadRetries.WithLabelValues(l.Name()).Inc()

		if !sleepWithContext(ctx, p.clock, backoff) {
			return ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}

// sleepWithContext waits for d on clock, returning false if ctx ends first.
func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
