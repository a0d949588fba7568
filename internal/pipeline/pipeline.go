package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/world-risk-etl/internal/domain"
	"github.com/couchcryptid/world-risk-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Extractor reads the raw risk table from its source.
type Extractor interface {
	Extract(ctx context.Context) (domain.Source, error)
}

// Transformer turns a raw source into a publishable snapshot.
type Transformer interface {
	Transform(ctx context.Context, src domain.Source) (domain.Snapshot, error)
}

// Loader publishes a snapshot to a destination.
type Loader interface {
	Load(ctx context.Context, snap domain.Snapshot) error
}

// Pipeline orchestrates the periodic extract-transform-load cycle.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loaders     []Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
	interval    time.Duration
	ready       atomic.Bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock replaces the clock driving the refresh ticker and backoff.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// New creates a Pipeline that refreshes every interval and publishes each
// snapshot to loaders in order.
func New(e Extractor, t Transformer, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics, interval time.Duration, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:   e,
		transformer: t,
		loaders:     loaders,
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
		interval:    interval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ready reports whether a snapshot has been published.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// CheckReadiness returns nil once a snapshot has been published, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no snapshot has been published yet")
	}
	return nil
}

// stageError marks failures of the extract and load stages. Those are
// retried with backoff; data errors wait for the next refresh. A load failure
// after at least one loader accepted the snapshot carries the snapshot and the
// loaders still missing it, so only those are retried.
type stageError struct {
	stage   string
	err     error
	snap    domain.Snapshot
	pending []Loader
}

func (e *stageError) Error() string { return e.stage + ": " + e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

// RunOnce performs one full cycle and returns the published snapshot. When a
// loader after the first fails, the snapshot still counts as published: it is
// returned together with the load error.
func (p *Pipeline) RunOnce(ctx context.Context) (domain.Snapshot, error) {
	start := p.clock.Now()

	src, err := p.extractor.Extract(ctx)
	if err != nil {
		p.metrics.IngestRuns.WithLabelValues("error").Inc()
		return domain.Snapshot{}, &stageError{stage: "extract", err: err}
	}

	snap, err := p.transformer.Transform(ctx, src)
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			p.metrics.RowsRejected.Add(float64(len(verr.Errors)))
			p.metrics.IngestRuns.WithLabelValues("rejected").Inc()
		case errors.Is(err, domain.ErrEmptyInput):
			p.metrics.IngestRuns.WithLabelValues("empty").Inc()
		default:
			p.metrics.IngestRuns.WithLabelValues("error").Inc()
		}
		return domain.Snapshot{}, err
	}
	p.metrics.RowsRejected.Add(float64(len(snap.Errors)))

	pending, err := p.load(ctx, snap, p.loaders)
	if err != nil && len(pending) == len(p.loaders) {
		p.metrics.IngestRuns.WithLabelValues("error").Inc()
		return domain.Snapshot{}, &stageError{stage: "load", err: err}
	}

	outcome := "success"
	if err != nil {
		outcome = "degraded"
	}
	p.metrics.IngestRuns.WithLabelValues(outcome).Inc()
	p.metrics.RecordsPublished.Set(float64(len(snap.Records)))
	p.metrics.Unmapped.Set(float64(len(snap.Unmapped)))
	p.metrics.IngestDuration.Observe(p.clock.Since(start).Seconds())
	p.ready.Store(true)

	p.logger.Info("snapshot published",
		"snapshot_id", snap.ID,
		"source", snap.Source,
		"rows", snap.Rows,
		"records", len(snap.Records),
		"rejected", len(snap.Errors),
		"unmapped", len(snap.Unmapped),
		"pending_sinks", len(pending),
	)
	if err != nil {
		return snap, &stageError{stage: "load", err: err, snap: snap, pending: pending}
	}
	return snap, nil
}

// load hands snap to loaders in order and stops at the first failure. It
// returns the failed loader and every loader after it.
func (p *Pipeline) load(ctx context.Context, snap domain.Snapshot, loaders []Loader) ([]Loader, error) {
	for i, l := range loaders {
		if err := l.Load(ctx, snap); err != nil {
			return loaders[i:], err
		}
	}
	return nil, nil
}

// Run refreshes immediately and then every interval until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "refresh_interval", p.interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if !p.refresh(ctx) {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}

		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

// refresh runs cycles until one succeeds or fails in a way retrying cannot
// fix. A snapshot that reached some loaders is not rebuilt: only the loaders
// still missing it are retried. Returns false if the pipeline should stop.
func (p *Pipeline) refresh(ctx context.Context) bool {
	backoff := initialBackoff
	var (
		snap    domain.Snapshot
		pending []Loader
	)
	for {
		var err error
		if len(pending) > 0 {
			if pending, err = p.load(ctx, snap, pending); err != nil {
				err = &stageError{stage: "load", err: err, snap: snap, pending: pending}
			} else {
				p.logger.Info("remaining sinks caught up", "snapshot_id", snap.ID)
			}
		} else {
			_, err = p.RunOnce(ctx)
		}
		if ctx.Err() != nil {
			return false
		}
		if err == nil {
			return true
		}

		var se *stageError
		if !errors.As(err, &se) {
			p.logger.Error("ingestion failed, keeping previous snapshot", "error", err)
			return true
		}
		snap, pending = se.snap, se.pending

		p.logger.Error("refresh failed, backing off", "error", err, "backoff", backoff, "pending_sinks", len(pending))
		if !sleepWithContext(ctx, p.clock, backoff) {
			return false
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

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
