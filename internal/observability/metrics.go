package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts post cache lookups by result (hit, miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_cache_lookups_total",
		Help: "Post cache lookups by result",
	}, []string{"result"})

	// DatabaseQueryLatency records database query latency by operation and collection.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chirp_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "collection"})

	// LikeToggles counts completed like toggles by direction (like, unlike).
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_like_toggles_total",
		Help: "Completed like toggles by direction",
	}, []string{"direction"})

	// LikeMirrorFailures counts toggles whose post-side write succeeded but
	// whose user-side mirror write failed.
	LikeMirrorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_like_mirror_failures_total",
		Help: "Like toggles that left the likedPosts mirror out of step",
	}, []string{"direction"})

	// NotificationEmitFailures counts notifications that could not be recorded.
	NotificationEmitFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_notification_emit_failures_total",
		Help: "Notifications that failed to persist or publish",
	}, []string{"type", "stage"})

	// StorageOperationLatency records image store call latency by operation and outcome.
	StorageOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chirp_storage_operation_latency_seconds",
		Help:    "Image store call latency in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"operation", "outcome"})

	// ReconcileRepairs counts mirror entries repaired by the reconciliation sweep.
	ReconcileRepairs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_like_reconcile_repairs_total",
		Help: "likedPosts entries added or removed by reconciliation",
	}, []string{"action"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, collection string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, collection).Observe(time.Since(start).Seconds())
	}
}

// TrackStorage returns a function recording the latency of an image store call
// with the outcome decided by the error it is given.
func TrackStorage(operation string) func(err error) {
	start := time.Now()
	return func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		StorageOperationLatency.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
	}
}
