package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	ordersCreated   atomic.Uint64
	ordersExecuted  atomic.Uint64
	ordersCancelled atomic.Uint64
	bidsPlaced      atomic.Uint64
	bidsAccepted    atomic.Uint64
	bidsRefunded    atomic.Uint64
	errorsTotal     atomic.Uint64

	// Economic totals, in smallest currency units across all currencies.
	volumeSettled atomic.Int64
	feeRevenue    atomic.Int64

	// Gauges
	feedConnections atomic.Int32
}

// NewMetrics creates a zeroed metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordOrderCreated counts a new listing.
func (m *Metrics) RecordOrderCreated() {
	m.ordersCreated.Add(1)
}

// RecordOrderCancelled counts a cancelled listing.
func (m *Metrics) RecordOrderCancelled() {
	m.ordersCancelled.Add(1)
}

// RecordOrderExecuted counts a settled sale with its price and fee.
func (m *Metrics) RecordOrderExecuted(price, fee int64) {
	m.ordersExecuted.Add(1)
	m.volumeSettled.Add(price)
	m.feeRevenue.Add(fee)
}

// RecordBidPlaced counts a new or replacing bid.
func (m *Metrics) RecordBidPlaced() {
	m.bidsPlaced.Add(1)
}

// RecordBidAccepted counts an accepted bid.
func (m *Metrics) RecordBidAccepted() {
	m.bidsAccepted.Add(1)
}

// RecordBidRefunded counts a refund (explicit cancel, outbid, or cascade).
func (m *Metrics) RecordBidRefunded() {
	m.bidsRefunded.Add(1)
}

// RecordError counts a rejected operation.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// IncrementFeedConnections increments the live feed gauge by 1.
func (m *Metrics) IncrementFeedConnections() {
	m.feedConnections.Add(1)
}

// DecrementFeedConnections decrements the live feed gauge by 1.
func (m *Metrics) DecrementFeedConnections() {
	m.feedConnections.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	OrdersCreated   uint64
	OrdersExecuted  uint64
	OrdersCancelled uint64
	BidsPlaced      uint64
	BidsAccepted    uint64
	BidsRefunded    uint64
	ErrorsTotal     uint64
	VolumeSettled   int64
	FeeRevenue      int64
	FeedConnections int32
	Timestamp       time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		OrdersCreated:   m.ordersCreated.Load(),
		OrdersExecuted:  m.ordersExecuted.Load(),
		OrdersCancelled: m.ordersCancelled.Load(),
		BidsPlaced:      m.bidsPlaced.Load(),
		BidsAccepted:    m.bidsAccepted.Load(),
		BidsRefunded:    m.bidsRefunded.Load(),
		ErrorsTotal:     m.errorsTotal.Load(),
		VolumeSettled:   m.volumeSettled.Load(),
		FeeRevenue:      m.feeRevenue.Load(),
		FeedConnections: m.feedConnections.Load(),
		Timestamp:       time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.ordersCreated.Store(0)
	m.ordersExecuted.Store(0)
	m.ordersCancelled.Store(0)
	m.bidsPlaced.Store(0)
	m.bidsAccepted.Store(0)
	m.bidsRefunded.Store(0)
	m.errorsTotal.Store(0)
	m.volumeSettled.Store(0)
	m.feeRevenue.Store(0)
	m.feedConnections.Store(0)
}
