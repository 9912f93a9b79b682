package coreio

import (
	"sync/atomic"
	"time"

	"github.com/birchwood-labs/coreio/internal/interfaces"
)

// LatencyBuckets defines the latency histogram buckets in nanoseconds,
// covering 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,
	10_000,
	100_000,
	1_000_000,
	10_000_000,
	100_000_000,
	1_000_000_000,
	10_000_000_000,
}

const numLatencyBuckets = 8

// Metrics tracks performance and operational statistics for one subsystem
// instance (an AIO Manager, a Signal Capture harvest loop, or a Bulk
// Transfer Dispatcher). Callers attach one Metrics per owning object.
type Metrics struct {
	// AIO completions
	AIOCompletions atomic.Uint64
	AIOBytes       atomic.Uint64
	AIOErrors      atomic.Uint64

	// Bulk transfer completions
	BulkCompletions atomic.Uint64
	BulkBytes       atomic.Uint64
	BulkErrors      atomic.Uint64

	// Signal harvests
	SignalHarvests  atomic.Uint64
	SignalRecords   atomic.Uint64
	SignalOverflows atomic.Uint64

	// Queue/pending depth statistics, shared shape across all three subsystems
	QueueDepthTotal atomic.Uint64
	QueueDepthCount atomic.Uint64
	MaxQueueDepth   atomic.Uint32

	// Latency tracking, shared shape across AIO and Bulk completions
	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a new metrics instance, stamping StartTime.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordAIOCompletion records one AIO Manager harvest result.
func (m *Metrics) RecordAIOCompletion(bytes uint64, latencyNs uint64, success bool) {
	m.AIOCompletions.Add(1)
	if success {
		m.AIOBytes.Add(bytes)
	} else {
		m.AIOErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordBulkCompletion records one Bulk Transfer Dispatcher result.
func (m *Metrics) RecordBulkCompletion(bytes uint64, latencyNs uint64, success bool) {
	m.BulkCompletions.Add(1)
	if success {
		m.BulkBytes.Add(bytes)
	} else {
		m.BulkErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordSignalHarvest records one Signal Capture harvest() call.
func (m *Metrics) RecordSignalHarvest(count int, overflowed bool) {
	m.SignalHarvests.Add(1)
	m.SignalRecords.Add(uint64(count))
	if overflowed {
		m.SignalOverflows.Add(1)
	}
}

// RecordQueueDepth records a pending/queue-depth sample.
func (m *Metrics) RecordQueueDepth(depth uint32) {
	m.QueueDepthTotal.Add(uint64(depth))
	m.QueueDepthCount.Add(1)
	for {
		current := m.MaxQueueDepth.Load()
		if depth <= current {
			break
		}
		if m.MaxQueueDepth.CompareAndSwap(current, depth) {
			break
		}
	}
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop marks this subsystem instance as stopped (destruction time).
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time, allocation-free copy of Metrics.
type MetricsSnapshot struct {
	AIOCompletions  uint64
	AIOBytes        uint64
	AIOErrors       uint64
	BulkCompletions uint64
	BulkBytes       uint64
	BulkErrors      uint64
	SignalHarvests  uint64
	SignalRecords   uint64
	SignalOverflows uint64

	AvgQueueDepth float64
	MaxQueueDepth uint32

	AvgLatencyNs uint64
	UptimeNs     uint64

	LatencyHistogram [numLatencyBuckets]uint64

	TotalOps   uint64
	TotalBytes uint64
	ErrorRate  float64
}

// Snapshot creates a point-in-time snapshot of metrics, computing derived
// rates the same way the AIO/bulk/signal harvesters would want to surface.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		AIOCompletions:  m.AIOCompletions.Load(),
		AIOBytes:        m.AIOBytes.Load(),
		AIOErrors:       m.AIOErrors.Load(),
		BulkCompletions: m.BulkCompletions.Load(),
		BulkBytes:       m.BulkBytes.Load(),
		BulkErrors:      m.BulkErrors.Load(),
		SignalHarvests:  m.SignalHarvests.Load(),
		SignalRecords:   m.SignalRecords.Load(),
		SignalOverflows: m.SignalOverflows.Load(),
		MaxQueueDepth:   m.MaxQueueDepth.Load(),
	}

	snap.TotalOps = snap.AIOCompletions + snap.BulkCompletions
	snap.TotalBytes = snap.AIOBytes + snap.BulkBytes

	if c := m.QueueDepthCount.Load(); c > 0 {
		snap.AvgQueueDepth = float64(m.QueueDepthTotal.Load()) / float64(c)
	}

	if c := m.OpCount.Load(); c > 0 {
		snap.AvgLatencyNs = m.TotalLatencyNs.Load() / c
	}

	start := m.StartTime.Load()
	if stop := m.StopTime.Load(); stop > 0 {
		snap.UptimeNs = uint64(stop - start)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - start)
	}

	totalErrors := snap.AIOErrors + snap.BulkErrors
	if snap.TotalOps > 0 {
		snap.ErrorRate = float64(totalErrors) / float64(snap.TotalOps) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	return snap
}

// Reset zeroes all counters; intended for test setup, not production use.
func (m *Metrics) Reset() {
	m.AIOCompletions.Store(0)
	m.AIOBytes.Store(0)
	m.AIOErrors.Store(0)
	m.BulkCompletions.Store(0)
	m.BulkBytes.Store(0)
	m.BulkErrors.Store(0)
	m.SignalHarvests.Store(0)
	m.SignalRecords.Store(0)
	m.SignalOverflows.Store(0)
	m.QueueDepthTotal.Store(0)
	m.QueueDepthCount.Store(0)
	m.MaxQueueDepth.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// MetricsObserver implements interfaces.Observer by recording into a Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records into m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveAIOCompletion(bytes, latencyNs uint64, success bool) {
	o.metrics.RecordAIOCompletion(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveSignalHarvest(count int, overflowed bool) {
	o.metrics.RecordSignalHarvest(count, overflowed)
}

func (o *MetricsObserver) ObserveBulkCompletion(bytes, latencyNs uint64, success bool) {
	o.metrics.RecordBulkCompletion(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveQueueDepth(depth uint32) {
	o.metrics.RecordQueueDepth(depth)
}

var _ interfaces.Observer = (*MetricsObserver)(nil)
