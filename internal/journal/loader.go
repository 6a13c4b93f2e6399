// Package journal composes the data sources around the analytics engine:
// concurrent fallible fetches, the refresh service and fixture seeding.
package journal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"trade-journal/internal/analytics"
	"trade-journal/internal/observability"
	"trade-journal/internal/storage"
	"trade-journal/internal/tracing"
)

// Source names as reported in LoadReport and metrics.
const (
	SourceTrades             = "trades"
	SourcePerformanceMetrics = "performance_metrics"
	SourceSetupMetrics       = "setup_metrics"
	SourcePartialExits       = "partial_exits"
	SourcePartialExitSummary = "partial_exit_summary"
)

// SourceNames lists the sources in report order.
var SourceNames = []string{
	SourceTrades,
	SourcePerformanceMetrics,
	SourceSetupMetrics,
	SourcePartialExits,
	SourcePartialExitSummary,
}

// Source availability states.
const (
	StatusOK            = "ok"
	StatusUnavailable   = "unavailable" // backend has no data (ErrNotFound)
	StatusError         = "error"
	StatusNotConfigured = "not_configured"
)

// SourceStatus describes the outcome of one fetch.
type SourceStatus struct {
	Source  string        `json:"source"`
	Status  string        `json:"status"`
	Records int           `json:"records"`
	Latency time.Duration `json:"latency_ns"`
	Error   string        `json:"error,omitempty"`
}

// Available reports whether the fetch produced data the engine can use.
func (s SourceStatus) Available() bool {
	return s.Status == StatusOK
}

// LoadReport summarizes one load.
type LoadReport struct {
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration_ns"`
	Sources   []SourceStatus `json:"sources"` // in SourceNames order
}

// Status returns the status of the named source.
func (r *LoadReport) Status(source string) (SourceStatus, bool) {
	for _, s := range r.Sources {
		if s.Source == source {
			return s, true
		}
	}
	return SourceStatus{}, false
}

// Degraded reports whether any configured source failed.
func (r *LoadReport) Degraded() bool {
	for _, s := range r.Sources {
		if s.Status == StatusError {
			return true
		}
	}
	return false
}

// LoaderOptions configures a Loader. Nil stores are reported as not configured.
type LoaderOptions struct {
	TradeStore       storage.TradeStore
	PartialExitStore storage.PartialExitStore
	AggregateSource  storage.AggregateSource

	// FetchTimeout bounds each fetch individually. Zero means no timeout.
	FetchTimeout time.Duration
	Logger       *zap.Logger
}

// Loader fetches every engine input concurrently.
// A failing fetch never aborts the others and never surfaces as an error.
type Loader struct {
	trades       storage.TradeStore
	partialExits storage.PartialExitStore
	aggregates   storage.AggregateSource
	fetchTimeout time.Duration
	logger       *zap.Logger
}

// NewLoader creates a loader.
func NewLoader(opts LoaderOptions) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		trades:       opts.TradeStore,
		partialExits: opts.PartialExitStore,
		aggregates:   opts.AggregateSource,
		fetchTimeout: opts.FetchTimeout,
		logger:       logger,
	}
}

// fetchFunc runs one fetch and returns the number of records it produced.
type fetchFunc func(ctx context.Context) (int, error)

// Load fetches all sources and resolves them into engine inputs.
// Unavailable or failed sources are left nil in the returned Inputs.
func (l *Loader) Load(ctx context.Context) (analytics.Inputs, *LoadReport) {
	ctx, span := tracing.StartSpan(ctx, "journal.Load")
	defer span.End()

	report := &LoadReport{StartedAt: time.Now()}

	var (
		in analytics.Inputs
		mu sync.Mutex
	)

	fetches := map[string]fetchFunc{}
	if l.trades != nil {
		fetches[SourceTrades] = func(ctx context.Context) (int, error) {
			trades, err := l.trades.List(ctx)
			if err != nil {
				return 0, err
			}
			mu.Lock()
			in.Trades = trades
			mu.Unlock()
			return len(trades), nil
		}
	}
	if l.partialExits != nil {
		fetches[SourcePartialExits] = func(ctx context.Context) (int, error) {
			exits, err := l.partialExits.List(ctx)
			if err != nil {
				return 0, err
			}
			mu.Lock()
			in.PartialExits = exits
			mu.Unlock()
			return len(exits), nil
		}
		fetches[SourcePartialExitSummary] = func(ctx context.Context) (int, error) {
			summary, err := l.partialExits.Summary(ctx)
			if err != nil {
				return 0, err
			}
			mu.Lock()
			in.PartialExitSummary = summary
			mu.Unlock()
			return summary.Count, nil
		}
	}
	if l.aggregates != nil {
		fetches[SourcePerformanceMetrics] = func(ctx context.Context) (int, error) {
			m, err := l.aggregates.PerformanceMetrics(ctx)
			if err != nil {
				return 0, err
			}
			mu.Lock()
			in.Metrics = m
			mu.Unlock()
			return 1, nil
		}
		fetches[SourceSetupMetrics] = func(ctx context.Context) (int, error) {
			setups, err := l.aggregates.SetupMetrics(ctx)
			if err != nil {
				return 0, err
			}
			mu.Lock()
			in.SetupMetrics = setups
			mu.Unlock()
			return len(setups), nil
		}
	}

	statuses := make([]SourceStatus, len(SourceNames))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range SourceNames {
		fetch, ok := fetches[name]
		if !ok {
			statuses[i] = SourceStatus{Source: name, Status: StatusNotConfigured}
			continue
		}
		g.Go(func() error {
			statuses[i] = l.runFetch(gctx, name, fetch)
			return nil // failures are recorded in the status, never propagated
		})
	}
	_ = g.Wait()

	report.Sources = statuses
	report.Duration = time.Since(report.StartedAt)

	span.SetAttributes(attribute.Bool("journal.degraded", report.Degraded()))
	return resolveInputs(in), report
}

// runFetch executes one fetch under its own timeout and span.
func (l *Loader) runFetch(ctx context.Context, name string, fetch fetchFunc) SourceStatus {
	ctx, span := tracing.StartSpan(ctx, "journal.fetch", attribute.String("journal.source", name))
	defer span.End()

	if l.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.fetchTimeout)
		defer cancel()
	}

	start := time.Now()
	n, err := fetch(ctx)
	latency := time.Since(start)

	status := SourceStatus{Source: name, Records: n, Latency: latency}
	switch {
	case err == nil:
		status.Status = StatusOK
		observability.RecordSourceFetch(name, latency.Seconds(), nil)
	case errors.Is(err, storage.ErrNotFound):
		status.Status = StatusUnavailable
		observability.RecordSourceFetch(name, latency.Seconds(), nil)
		l.logger.Debug("source has no data", zap.String("source", name))
	default:
		status.Status = StatusError
		status.Error = err.Error()
		observability.RecordSourceFetch(name, latency.Seconds(), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.logger.Warn("source fetch failed",
			zap.String("source", name),
			zap.Duration("latency", latency),
			zap.Error(err),
		)
	}
	span.SetAttributes(attribute.Int("journal.records", n))
	return status
}

// resolveInputs treats an empty setup list as unavailable so the engine
// derives setups locally.
func resolveInputs(in analytics.Inputs) analytics.Inputs {
	if len(in.SetupMetrics) == 0 {
		in.SetupMetrics = nil
	}
	return in
}

// String renders a one-line summary for logs.
func (r *LoadReport) String() string {
	ok := 0
	for _, s := range r.Sources {
		if s.Available() {
			ok++
		}
	}
	return fmt.Sprintf("%d/%d sources available in %s", ok, len(r.Sources), r.Duration.Round(time.Millisecond))
}
