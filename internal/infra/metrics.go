package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight cache observability without external
// dependencies. Uses atomic operations for thread-safety.
type Metrics struct {
	// Query cache counters
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64
	refetches   atomic.Uint64
	dedupJoins  atomic.Uint64 // callers that piggybacked on an in-flight fetch

	// Mutation counters
	mutationsTotal atomic.Uint64
	mutationErrors atomic.Uint64

	// Gauges
	activeSubscriptions atomic.Int32
	streamConnected     atomic.Int32 // 1 = connected, 0 = disconnected
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordCacheHit records a query answered from fresh cached data.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss records a query that had to fetch from the backend.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// RecordRefetch records an invalidation- or staleness-triggered refetch.
func (m *Metrics) RecordRefetch() {
	m.refetches.Add(1)
}

// RecordDedupJoin records a caller sharing an in-flight request.
func (m *Metrics) RecordDedupJoin() {
	m.dedupJoins.Add(1)
}

// RecordMutation records a mutation execution.
func (m *Metrics) RecordMutation(failed bool) {
	m.mutationsTotal.Add(1)
	if failed {
		m.mutationErrors.Add(1)
	}
}

// IncrementSubscriptions increments active subscriptions by 1.
func (m *Metrics) IncrementSubscriptions() {
	m.activeSubscriptions.Add(1)
}

// DecrementSubscriptions decrements active subscriptions by 1.
func (m *Metrics) DecrementSubscriptions() {
	m.activeSubscriptions.Add(-1)
}

// SetStreamState sets the live stream connection state.
func (m *Metrics) SetStreamState(connected bool) {
	if connected {
		m.streamConnected.Store(1)
	} else {
		m.streamConnected.Store(0)
	}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	CacheHits           uint64
	CacheMisses         uint64
	Refetches           uint64
	DedupJoins          uint64
	MutationsTotal      uint64
	MutationErrors      uint64
	ActiveSubscriptions int32
	StreamConnected     bool
	Timestamp           time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		CacheHits:           m.cacheHits.Load(),
		CacheMisses:         m.cacheMisses.Load(),
		Refetches:           m.refetches.Load(),
		DedupJoins:          m.dedupJoins.Load(),
		MutationsTotal:      m.mutationsTotal.Load(),
		MutationErrors:      m.mutationErrors.Load(),
		ActiveSubscriptions: m.activeSubscriptions.Load(),
		StreamConnected:     m.streamConnected.Load() == 1,
		Timestamp:           time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.refetches.Store(0)
	m.dedupJoins.Store(0)
	m.mutationsTotal.Store(0)
	m.mutationErrors.Store(0)
	m.activeSubscriptions.Store(0)
	m.streamConnected.Store(0)
}
