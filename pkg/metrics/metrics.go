// Package metrics provides Prometheus metrics and profiling counters for
// Comet's iteration layer.
//
// Two kinds of instruments live here:
//
//   - Prometheus collectors (chunks and rows fetched, fetch latency, merged
//     rows) labeled by iterator kind, registered automatically.
//   - DurationCounter, the externally owned elapsed-time accumulator consumed
//     write-only by the timed iterator decorator.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChunksFetched counts successful fetch calls by iterator kind.
	ChunksFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comet_chunks_fetched_total",
			Help: "Total number of chunks returned by iterators",
		},
		[]string{"iterator"},
	)

	// RowsFetched counts rows returned by iterators.
	RowsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comet_rows_fetched_total",
			Help: "Total number of rows returned by iterators",
		},
		[]string{"iterator"},
	)

	// MergedRows counts rows absorbed by merge-type iterators.
	MergedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comet_merged_rows_total",
			Help: "Total number of rows absorbed or superseded during merges",
		},
		[]string{"iterator"},
	)

	// FetchLatency tracks per-fetch wall time.
	FetchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "comet_fetch_latency_seconds",
			Help:    "Wall time of individual fetch calls",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		},
		[]string{"iterator"},
	)
)

// ObserveFetch records a successful fetch of rows for the given iterator
// kind.
func ObserveFetch(iterator string, rows int, elapsed time.Duration) {
	ChunksFetched.WithLabelValues(iterator).Inc()
	RowsFetched.WithLabelValues(iterator).Add(float64(rows))
	FetchLatency.WithLabelValues(iterator).Observe(elapsed.Seconds())
}

// DurationCounter accumulates elapsed wall time. It supports only monotonic
// addition and is safe for concurrent use. The zero value is ready to use.
type DurationCounter struct {
	ns atomic.Int64
}

// Add adds d to the counter. Negative durations are ignored to keep the
// counter monotonic.
func (c *DurationCounter) Add(d time.Duration) {
	if d < 0 {
		return
	}
	c.ns.Add(int64(d))
}

// Total returns the accumulated duration.
func (c *DurationCounter) Total() time.Duration {
	return time.Duration(c.ns.Load())
}
