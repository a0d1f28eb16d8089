package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Define global variables for metrics.
// We use 'promauto' which automatically registers metrics without complex initialization.

var (
	// 1. HTTP Requests Total (Counter)
	// Counts how many requests arrive, labeled by method, path, and status code.
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netexplorer_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"}, // Labels
	)

	// 2. HTTP Request Duration (Histogram)
	// Measures server response time.
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "netexplorer_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
			// Custom buckets covering from microseconds (cached lookup) to
			// seconds (cold snapshot build).
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path"},
	)

	// 3. Network Queries Total (Counter)
	// Counts network builds by snapshot and ranking mode.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netexplorer_queries_total",
			Help: "Total number of network build queries",
		},
		[]string{"title", "year", "mode"},
	)

	// 4. Query Duration (Histogram)
	// Measures the filter pipeline alone, without HTTP overhead.
	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netexplorer_query_duration_seconds",
			Help:    "Duration of network build queries in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	// 5. Query Truncations (Counter)
	// Counts results that hit the node cap; a high rate suggests callers
	// should raise maxTotalNodes or narrow their filters.
	QueryTruncationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netexplorer_query_truncations_total",
			Help: "Total number of query results truncated by the node cap",
		},
	)

	// 6. Snapshot Sizes (Gauges)
	// Track the loaded graph sizes per (title, year) pair.
	SnapshotNodes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netexplorer_snapshot_nodes",
			Help: "Number of nodes in each loaded snapshot",
		},
		[]string{"title", "year"},
	)
	SnapshotEdges = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netexplorer_snapshot_edges",
			Help: "Number of edges in each loaded snapshot",
		},
		[]string{"title", "year"},
	)

	// 7. Loaded Snapshots (Gauge)
	SnapshotsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "netexplorer_snapshots_loaded",
			Help: "Number of snapshots currently resident in memory",
		},
	)
)
