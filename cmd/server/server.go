package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"trade-journal/internal/domain"
	"trade-journal/internal/journal"
	"trade-journal/internal/live"
	"trade-journal/internal/observability"
	"trade-journal/internal/reporting"
	"trade-journal/internal/storage"
)

// Server holds the HTTP-facing components of the analytics service.
type Server struct {
	service   *journal.Service
	hub       *live.Hub
	generator *reporting.Generator
	logger    *zap.Logger
	backend   string

	mu        sync.Mutex
	startedAt time.Time
}

// NewServer creates a server over an analytics service.
func NewServer(service *journal.Service, hub *live.Hub, backend string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		service:   service,
		hub:       hub,
		generator: reporting.NewGenerator(),
		logger:    logger,
		backend:   backend,
		startedAt: time.Now(),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("GET /status", s.handleStatus)

	// Analytics
	mux.HandleFunc("GET /api/analytics", s.handleLatest)
	mux.HandleFunc("POST /api/analytics/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/analytics/history/latest", s.handleHistoryLatest)
	mux.HandleFunc("GET /api/analytics/report.md", s.handleReport)

	// Live feed
	if s.hub != nil {
		mux.Handle("GET /ws/analytics", s.hub)
	}

	return mux
}

// SnapshotResponse is the JSON body of the analytics endpoints.
type SnapshotResponse struct {
	SnapshotID string                      `json:"snapshot_id"`
	ComputedAt time.Time                   `json:"computed_at"`
	FromCache  bool                        `json:"from_cache"`
	Snapshot   *domain.PerformanceSnapshot `json:"snapshot"`
}

func newSnapshotResponse(rec *domain.SnapshotRecord, fromCache bool) SnapshotResponse {
	resp := SnapshotResponse{FromCache: fromCache, Snapshot: domain.EmptySnapshot()}
	if rec != nil {
		resp.SnapshotID = rec.SnapshotID
		resp.ComputedAt = rec.ComputedAt
		if rec.Snapshot != nil {
			resp.Snapshot = rec.Snapshot
		}
	}
	return resp
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status         string                 `json:"status"`
	Backend        string                 `json:"backend"`
	Uptime         string                 `json:"uptime"`
	StartedAt      time.Time              `json:"started_at"`
	RefreshCount   int                    `json:"refresh_count"`
	LastRefresh    time.Time              `json:"last_refresh,omitempty"`
	LastSnapshotID string                 `json:"last_snapshot_id,omitempty"`
	FromCache      bool                   `json:"from_cache"`
	LiveClients    int                    `json:"live_clients"`
	Sources        []journal.SourceStatus `json:"sources,omitempty"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	startedAt := s.startedAt
	s.mu.Unlock()

	latest := s.service.Latest()
	st := s.service.Status()

	resp := StatusResponse{
		Status:       "running",
		Backend:      s.backend,
		Uptime:       time.Since(startedAt).Round(time.Second).String(),
		StartedAt:    startedAt,
		RefreshCount: st.RefreshCount,
		LastRefresh:  st.LastRefresh,
		FromCache:    latest.FromCache,
	}
	if latest.Record != nil {
		resp.LastSnapshotID = latest.Record.SnapshotID
	}
	if latest.Report != nil {
		resp.Sources = latest.Report.Sources
		if latest.Report.Degraded() {
			resp.Status = "degraded"
		}
	}
	if s.hub != nil {
		resp.LiveClients = s.hub.ClientCount()
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	latest := s.service.Latest()
	s.writeJSON(w, http.StatusOK, newSnapshotResponse(latest.Record, latest.FromCache))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res := s.service.ForceRefresh(r.Context(), journal.OriginManual)
	s.writeJSON(w, http.StatusOK, newSnapshotResponse(res.Record, res.FromCache))
}

func (s *Server) handleHistoryLatest(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.History(r.Context())
	if errors.Is(err, storage.ErrNotFound) {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no snapshot history"})
		return
	}
	if err != nil {
		s.logger.Error("history lookup failed", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
		return
	}
	s.writeJSON(w, http.StatusOK, newSnapshotResponse(rec, false))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report := s.generator.Build(s.service.Latest())
	observability.RecordReport("markdown")

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(reporting.RenderMarkdown(report)))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response failed", zap.Error(err))
	}
}
