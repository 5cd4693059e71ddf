package infra

import (
	"testing"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.RecordOrderCreated()
	m.RecordOrderCreated()
	m.RecordOrderCancelled()
	m.RecordBidPlaced()
	m.RecordBidRefunded()
	m.RecordError()

	snap := m.Snapshot()
	if snap.OrdersCreated != 2 {
		t.Errorf("Expected 2 orders created, got %d", snap.OrdersCreated)
	}
	if snap.OrdersCancelled != 1 {
		t.Errorf("Expected 1 order cancelled, got %d", snap.OrdersCancelled)
	}
	if snap.BidsPlaced != 1 {
		t.Errorf("Expected 1 bid placed, got %d", snap.BidsPlaced)
	}
	if snap.BidsRefunded != 1 {
		t.Errorf("Expected 1 bid refunded, got %d", snap.BidsRefunded)
	}
	if snap.ErrorsTotal != 1 {
		t.Errorf("Expected 1 error, got %d", snap.ErrorsTotal)
	}
}

func TestMetrics_EconomicTotals(t *testing.T) {
	m := NewMetrics()

	m.RecordOrderExecuted(1000, 25)
	m.RecordOrderExecuted(500, 12)

	snap := m.Snapshot()
	if snap.OrdersExecuted != 2 {
		t.Errorf("Expected 2 executions, got %d", snap.OrdersExecuted)
	}
	if snap.VolumeSettled != 1500 {
		t.Errorf("Expected volume 1500, got %d", snap.VolumeSettled)
	}
	if snap.FeeRevenue != 37 {
		t.Errorf("Expected fee revenue 37, got %d", snap.FeeRevenue)
	}
}

func TestMetrics_FeedConnections(t *testing.T) {
	m := NewMetrics()

	m.IncrementFeedConnections()
	m.IncrementFeedConnections()
	m.DecrementFeedConnections()

	snap := m.Snapshot()
	if snap.FeedConnections != 1 {
		t.Errorf("Expected 1 feed connection, got %d", snap.FeedConnections)
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := NewMetrics()

	m.RecordOrderCreated()
	m.RecordOrderExecuted(1000, 25)
	m.RecordError()

	m.Reset()

	snap := m.Snapshot()
	if snap.OrdersCreated != 0 || snap.OrdersExecuted != 0 || snap.ErrorsTotal != 0 {
		t.Error("Expected zeroed counters after reset")
	}
	if snap.VolumeSettled != 0 || snap.FeeRevenue != 0 {
		t.Error("Expected zeroed totals after reset")
	}
}
