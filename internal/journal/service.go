package journal

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"trade-journal/internal/analytics"
	"trade-journal/internal/domain"
	"trade-journal/internal/idhash"
	"trade-journal/internal/observability"
	"trade-journal/internal/storage"
	"trade-journal/internal/tracing"
)

// Refresh origins.
const (
	OriginScheduled = "scheduled"
	OriginManual    = "manual"
	OriginStartup   = "startup"
)

// Summary sources as reported in metrics.
const (
	SummaryExternal = "external"
	SummaryLocal    = "local"
)

// SnapshotCache is a shared cache of the latest snapshot.
type SnapshotCache interface {
	// Get returns storage.ErrNotFound on a miss.
	Get(ctx context.Context) (*domain.SnapshotRecord, error)
	Set(ctx context.Context, r *domain.SnapshotRecord) error
}

// Broadcaster pushes snapshots to live subscribers.
type Broadcaster interface {
	Broadcast(r *domain.SnapshotRecord) (int, error)
}

// Result is the outcome of one refresh.
type Result struct {
	Record    *domain.SnapshotRecord
	Report    *LoadReport // nil when served from cache or before the first refresh
	Stats     analytics.Stats
	Origin    string
	FromCache bool
	Duration  time.Duration
}

// Snapshot returns the computed snapshot. Never nil.
func (r *Result) Snapshot() *domain.PerformanceSnapshot {
	if r == nil || r.Record == nil || r.Record.Snapshot == nil {
		return domain.EmptySnapshot()
	}
	return r.Record.Snapshot
}

// ServiceOptions configures a Service. Only Loader is required.
type ServiceOptions struct {
	Loader      *Loader
	Engine      *analytics.Engine
	History     storage.SnapshotStore
	Cache       SnapshotCache
	Broadcaster Broadcaster
	Logger      *zap.Logger
	Clock       func() time.Time
}

// Service runs refreshes and keeps the latest result.
type Service struct {
	loader      *Loader
	engine      *analytics.Engine
	history     storage.SnapshotStore
	cache       SnapshotCache
	broadcaster Broadcaster
	logger      *zap.Logger
	now         func() time.Time

	refreshMu sync.Mutex // serializes refreshes

	mu           sync.RWMutex
	latest       *Result
	refreshCount int
	lastRefresh  time.Time
}

// NewService creates a refresh service.
func NewService(opts ServiceOptions) *Service {
	s := &Service{
		loader:      opts.Loader,
		engine:      opts.Engine,
		history:     opts.History,
		cache:       opts.Cache,
		broadcaster: opts.Broadcaster,
		logger:      opts.Logger,
		now:         opts.Clock,
	}
	if s.loader == nil {
		s.loader = NewLoader(LoaderOptions{})
	}
	if s.engine == nil {
		s.engine = analytics.NewEngine()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Refresh produces a snapshot, serving it from the cache when one is fresh.
// It always returns a fully populated result.
func (s *Service) Refresh(ctx context.Context) *Result {
	return s.refresh(ctx, OriginScheduled, true)
}

// ForceRefresh recomputes the snapshot from the sources, bypassing the cache.
func (s *Service) ForceRefresh(ctx context.Context, origin string) *Result {
	return s.refresh(ctx, origin, false)
}

func (s *Service) refresh(ctx context.Context, origin string, useCache bool) *Result {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	ctx, span := tracing.StartSpan(ctx, "journal.Refresh", attribute.String("journal.origin", origin))
	defer span.End()

	start := time.Now()

	if useCache {
		if res := s.fromCache(ctx, origin); res != nil {
			res.Duration = time.Since(start)
			span.SetAttributes(attribute.Bool("journal.cache_hit", true))
			s.store(res)
			return res
		}
	}

	in, report := s.loader.Load(ctx)
	snap, stats := s.compute(in)
	computedAt := s.now()

	rec := &domain.SnapshotRecord{
		SnapshotID:       idhash.ComputeSnapshotID(computedAt.UnixMilli(), len(in.Trades), len(in.PartialExits)),
		ComputedAt:       computedAt,
		TradeCount:       len(in.Trades),
		PartialExitCount: len(in.PartialExits),
		Snapshot:         snap,
	}

	summarySource := SummaryLocal
	if stats.UsedExternalMetrics {
		summarySource = SummaryExternal
	}
	observability.RecordSnapshot(summarySource, time.Since(start).Seconds(), stats.TradesNormalized, snap.ProfitLoss.NetProfitLoss)
	observability.RecordExcluded("trade", stats.TradesIn-stats.TradesNormalized)
	observability.RecordExcluded("partial_exit", stats.PartialExitsIn-stats.PartialExitsNormalized)

	s.persist(ctx, rec)
	s.cacheStore(ctx, rec)
	s.broadcast(rec)

	res := &Result{
		Record:   rec,
		Report:   report,
		Stats:    stats,
		Origin:   origin,
		Duration: time.Since(start),
	}
	observability.RecordRefresh(origin, res.Duration.Seconds(), computedAt.Unix())
	s.store(res)

	s.logger.Info("snapshot refreshed",
		zap.String("snapshot_id", rec.SnapshotID),
		zap.String("origin", origin),
		zap.String("summary_source", summarySource),
		zap.Int("trades", stats.TradesIn),
		zap.Int("closed_trades", stats.TradesNormalized),
		zap.Int("partial_exits", stats.PartialExitsNormalized),
		zap.Stringer("sources", report),
		zap.Duration("duration", res.Duration),
	)
	return res
}

// compute runs the engine. A panic inside the engine yields the zero snapshot.
func (s *Service) compute(in analytics.Inputs) (snap *domain.PerformanceSnapshot, stats analytics.Stats) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("analytics engine panicked", zap.Any("panic", r))
			snap = domain.EmptySnapshot()
			stats = analytics.Stats{TradesIn: len(in.Trades), PartialExitsIn: len(in.PartialExits)}
		}
	}()
	return s.engine.ComputeWithStats(in)
}

func (s *Service) fromCache(ctx context.Context, origin string) *Result {
	if s.cache == nil {
		return nil
	}
	rec, err := s.cache.Get(ctx)
	if err != nil {
		observability.RecordCache(false)
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("snapshot cache read failed", zap.Error(err))
		}
		return nil
	}
	observability.RecordCache(true)

	if rec.Snapshot == nil {
		rec.Snapshot = domain.EmptySnapshot()
	}
	s.mu.RLock()
	seen := s.latest != nil && s.latest.Record.SnapshotID == rec.SnapshotID
	s.mu.RUnlock()
	if !seen {
		s.broadcast(rec)
	}
	return &Result{Record: rec, Origin: origin, FromCache: true}
}

func (s *Service) persist(ctx context.Context, rec *domain.SnapshotRecord) {
	if s.history == nil {
		return
	}
	err := s.history.Insert(ctx, rec)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrDuplicateKey):
		s.logger.Debug("snapshot already in history", zap.String("snapshot_id", rec.SnapshotID))
	default:
		s.logger.Warn("snapshot history insert failed",
			zap.String("snapshot_id", rec.SnapshotID),
			zap.Error(err),
		)
	}
}

func (s *Service) cacheStore(ctx context.Context, rec *domain.SnapshotRecord) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, rec); err != nil {
		s.logger.Warn("snapshot cache write failed", zap.Error(err))
	}
}

func (s *Service) broadcast(rec *domain.SnapshotRecord) {
	if s.broadcaster == nil {
		return
	}
	dropped, err := s.broadcaster.Broadcast(rec)
	if err != nil {
		s.logger.Warn("snapshot broadcast failed", zap.Error(err))
		return
	}
	if dropped > 0 {
		s.logger.Info("dropped slow live clients", zap.Int("dropped", dropped))
	}
}

func (s *Service) store(res *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = res
	s.refreshCount++
	s.lastRefresh = s.now()
}

// Latest returns the most recent result, or a zero snapshot before the first refresh.
func (s *Service) Latest() *Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return &Result{Record: &domain.SnapshotRecord{Snapshot: domain.EmptySnapshot()}}
	}
	return s.latest
}

// History returns the latest persisted snapshot.
// Returns storage.ErrNotFound when no history store is configured or it is empty.
func (s *Service) History(ctx context.Context) (*domain.SnapshotRecord, error) {
	if s.history == nil {
		return nil, storage.ErrNotFound
	}
	return s.history.GetLatest(ctx)
}

// ServiceStatus is a point-in-time view of refresh activity.
type ServiceStatus struct {
	RefreshCount int       `json:"refresh_count"`
	LastRefresh  time.Time `json:"last_refresh,omitempty"`
}

// Status returns refresh counters.
func (s *Service) Status() ServiceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ServiceStatus{RefreshCount: s.refreshCount, LastRefresh: s.lastRefresh}
}

// Run refreshes immediately and then on every tick until ctx is cancelled.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	s.logger.Info("starting refresh loop", zap.Duration("interval", interval))

	s.ForceRefresh(ctx, OriginStartup)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}
