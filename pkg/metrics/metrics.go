package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheLookups counts cache reads by table (movie|soundtrack|token) and
	// result (hit|miss|error).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmatlas_cache_lookups_total",
			Help: "Total number of cache lookups",
		},
		[]string{"table", "result"},
	)

	// CacheWriteFailures counts swallowed cache write errors by table.
	CacheWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmatlas_cache_write_failures_total",
			Help: "Total number of failed cache write-backs",
		},
		[]string{"table"},
	)

	// CacheCleanupDeleted records rows removed per table by maintenance runs.
	CacheCleanupDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmatlas_cache_cleanup_deleted_total",
			Help: "Rows deleted by cache maintenance",
		},
		[]string{"table"},
	)

	// UpstreamLatency measures request latencies against external providers.
	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filmatlas_upstream_latency_seconds",
			Help:    "External provider request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filmatlas_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
