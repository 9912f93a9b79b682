package coreio

import "testing"

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	snap := m.Snapshot()
	if snap.TotalOps != 0 {
		t.Errorf("expected 0 initial ops, got %d", snap.TotalOps)
	}

	m.RecordAIOCompletion(65536, 1_000_000, true)
	m.RecordBulkCompletion(4096, 500_000, true)
	m.RecordAIOCompletion(0, 2_000_000, false)
	m.RecordSignalHarvest(3, false)
	m.RecordSignalHarvest(64, true)

	snap = m.Snapshot()
	if snap.AIOCompletions != 2 {
		t.Errorf("expected 2 AIO completions, got %d", snap.AIOCompletions)
	}
	if snap.BulkCompletions != 1 {
		t.Errorf("expected 1 bulk completion, got %d", snap.BulkCompletions)
	}
	if snap.AIOBytes != 65536 {
		t.Errorf("expected 65536 AIO bytes, got %d", snap.AIOBytes)
	}
	if snap.AIOErrors != 1 {
		t.Errorf("expected 1 AIO error, got %d", snap.AIOErrors)
	}
	if snap.SignalHarvests != 2 {
		t.Errorf("expected 2 signal harvests, got %d", snap.SignalHarvests)
	}
	if snap.SignalRecords != 67 {
		t.Errorf("expected 67 signal records, got %d", snap.SignalRecords)
	}
	if snap.SignalOverflows != 1 {
		t.Errorf("expected 1 signal overflow, got %d", snap.SignalOverflows)
	}
	if snap.TotalOps != 3 {
		t.Errorf("expected 3 total ops, got %d", snap.TotalOps)
	}

	m.RecordQueueDepth(4)
	m.RecordQueueDepth(10)
	m.RecordQueueDepth(2)
	snap = m.Snapshot()
	if snap.MaxQueueDepth != 10 {
		t.Errorf("expected max queue depth 10, got %d", snap.MaxQueueDepth)
	}

	m.Reset()
	snap = m.Snapshot()
	if snap.TotalOps != 0 {
		t.Errorf("expected 0 ops after reset, got %d", snap.TotalOps)
	}
}

func TestMetricsObserver(t *testing.T) {
	m := NewMetrics()
	o := NewMetricsObserver(m)

	o.ObserveAIOCompletion(1024, 100, true)
	o.ObserveBulkCompletion(2048, 200, true)
	o.ObserveSignalHarvest(5, false)
	o.ObserveQueueDepth(3)

	snap := m.Snapshot()
	if snap.AIOBytes != 1024 || snap.BulkBytes != 2048 {
		t.Errorf("observer did not record expected bytes: %+v", snap)
	}
	if snap.MaxQueueDepth != 3 {
		t.Errorf("expected max queue depth 3, got %d", snap.MaxQueueDepth)
	}
}
