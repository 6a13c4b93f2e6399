// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Analytics metrics
	SnapshotsComputed *prometheus.CounterVec
	ComputeDuration   prometheus.Histogram
	RecordsExcluded   *prometheus.CounterVec
	SnapshotTrades    prometheus.Gauge
	NetProfitLoss     prometheus.Gauge

	// Source metrics
	SourceFetchErrors  *prometheus.CounterVec
	SourceFetchLatency *prometheus.HistogramVec

	// Refresh metrics
	RefreshesTotal  *prometheus.CounterVec
	RefreshDuration prometheus.Histogram

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Live feed metrics
	LiveClients     prometheus.Gauge
	LiveBroadcasts  prometheus.Counter
	LiveSendFailure prometheus.Counter

	// Report metrics
	ReportsGenerated *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRefresh prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "trade_journal"
	}

	return &Metrics{
		// Analytics metrics
		SnapshotsComputed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "snapshots_computed_total",
			Help:      "Total number of performance snapshots computed by summary source",
		}, []string{"summary_source"}),
		ComputeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "compute_duration_seconds",
			Help:      "Snapshot computation duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		RecordsExcluded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "records_excluded_total",
			Help:      "Total number of source records excluded by normalization",
		}, []string{"kind"}),
		SnapshotTrades: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "snapshot_closed_trades",
			Help:      "Closed trades contributing to the latest snapshot",
		}),
		NetProfitLoss: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "net_profit_loss",
			Help:      "Net profit/loss of the latest snapshot",
		}),

		// Source metrics
		SourceFetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed source fetches by source",
		}, []string{"source"}),
		SourceFetchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "fetch_latency_seconds",
			Help:      "Source fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),

		// Refresh metrics
		RefreshesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "runs_total",
			Help:      "Total number of snapshot refreshes by origin",
		}, []string{"origin"}),
		RefreshDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "duration_seconds",
			Help:      "End-to-end refresh duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Cache metrics
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of snapshot cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of snapshot cache misses",
		}),

		// Live feed metrics
		LiveClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "clients",
			Help:      "Number of connected websocket clients",
		}),
		LiveBroadcasts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "broadcasts_total",
			Help:      "Total number of snapshot broadcasts",
		}),
		LiveSendFailure: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "send_failures_total",
			Help:      "Total number of failed websocket sends",
		}),

		// Report metrics
		ReportsGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "generated_total",
			Help:      "Total number of reports generated by format",
		}, []string{"format"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRefresh: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_refresh_timestamp",
			Help:      "Unix timestamp of last completed refresh",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordSnapshot records one computed snapshot.
// summarySource is "external" or "local".
func RecordSnapshot(summarySource string, seconds float64, closedTrades int, net float64) {
	DefaultMetrics.SnapshotsComputed.WithLabelValues(summarySource).Inc()
	DefaultMetrics.ComputeDuration.Observe(seconds)
	DefaultMetrics.SnapshotTrades.Set(float64(closedTrades))
	DefaultMetrics.NetProfitLoss.Set(net)
}

// RecordExcluded records source records dropped by normalization.
func RecordExcluded(kind string, n int) {
	if n > 0 {
		DefaultMetrics.RecordsExcluded.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordSourceFetch records one source fetch.
func RecordSourceFetch(source string, seconds float64, err error) {
	DefaultMetrics.SourceFetchLatency.WithLabelValues(source).Observe(seconds)
	if err != nil {
		DefaultMetrics.SourceFetchErrors.WithLabelValues(source).Inc()
	}
}

// RecordRefresh records a completed refresh.
func RecordRefresh(origin string, seconds float64, unixTime int64) {
	DefaultMetrics.RefreshesTotal.WithLabelValues(origin).Inc()
	DefaultMetrics.RefreshDuration.Observe(seconds)
	DefaultMetrics.LastSuccessfulRefresh.Set(float64(unixTime))
}

// RecordCache records a cache lookup result.
func RecordCache(hit bool) {
	if hit {
		DefaultMetrics.CacheHits.Inc()
		return
	}
	DefaultMetrics.CacheMisses.Inc()
}

// SetLiveClients updates the connected websocket clients gauge.
func SetLiveClients(n int) {
	DefaultMetrics.LiveClients.Set(float64(n))
}

// RecordBroadcast records a broadcast and the number of failed sends.
func RecordBroadcast(failures int) {
	DefaultMetrics.LiveBroadcasts.Inc()
	if failures > 0 {
		DefaultMetrics.LiveSendFailure.Add(float64(failures))
	}
}

// RecordReport increments the reports generated counter.
func RecordReport(format string) {
	DefaultMetrics.ReportsGenerated.WithLabelValues(format).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
