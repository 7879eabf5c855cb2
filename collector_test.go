package crumbz

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"
)

func testFailure(msg string, crumbs ...string) Failure {
	snap := Snapshot{}
	for _, c := range crumbs {
		snap = append(snap, Text(c))
	}
	return Failure{Err: errors.New(msg), Context: snap, WorkerID: 1}
}

func TestNewCollector(t *testing.T) {
	collector := NewCollector("test-collector", 100)
	defer collector.Close()

	if collector.Name() != "test-collector" {
		t.Errorf("Expected name 'test-collector', got %s", collector.Name())
	}

	if collector.Count() != 0 {
		t.Errorf("Expected 0 failures initially, got %d", collector.Count())
	}

	if collector.DroppedCount() != 0 {
		t.Errorf("Expected 0 dropped failures initially, got %d", collector.DroppedCount())
	}
}

func TestCollectorBasicCollection(t *testing.T) {
	collector := NewCollector("test", 10)
	collector.SetSyncMode(true) // Enable sync for deterministic testing.
	defer collector.Close()

	collector.Collect(testFailure("boom", "step 1"))

	if collector.Count() != 1 {
		t.Errorf("Expected 1 failure, got %d", collector.Count())
	}

	failures := collector.Export()
	if len(failures) != 1 {
		t.Fatalf("Expected 1 exported failure, got %d", len(failures))
	}

	if failures[0].Err.Error() != "boom" {
		t.Errorf("Expected error 'boom', got %v", failures[0].Err)
	}

	if got := failures[0].Context.Strings(); len(got) != 1 || got[0] != "step 1" {
		t.Errorf("Expected context [step 1], got %v", got)
	}

	if collector.Count() != 0 {
		t.Errorf("Expected 0 failures after export, got %d", collector.Count())
	}
}

func TestCollectorBackpressure(t *testing.T) {
	// Small buffer to trigger backpressure quickly.
	collector := NewCollector("test", 1)
	defer collector.Close()

	for i := 0; i < 10000; i++ {
		collector.Collect(testFailure("boom"))
	}

	// Give time for async processing and dropping.
	time.Sleep(50 * time.Millisecond)

	droppedCount := collector.DroppedCount()
	if droppedCount == 0 {
		t.Error("Expected some failures to be dropped due to backpressure")
	}

	if total := int(droppedCount) + collector.Count(); total != 10000 {
		t.Errorf("Expected 10000 collected or dropped, got %d", total)
	}
}

func TestCollectorMemoryShrink(t *testing.T) {
	collector := NewCollector("test", 1000)
	collector.SetSyncMode(true) // Enable sync for deterministic testing.
	defer collector.Close()

	for i := 0; i < 300; i++ {
		collector.Collect(testFailure("boom"))
	}

	if got := len(collector.Export()); got != 300 {
		t.Errorf("Expected 300 failures in export, got %d", got)
	}

	if collector.Count() != 0 {
		t.Errorf("Expected 0 failures after export, got %d", collector.Count())
	}

	for i := 0; i < 5; i++ {
		collector.Collect(testFailure("small"))
	}

	if collector.Count() != 5 {
		t.Errorf("Expected 5 failures after small batch, got %d", collector.Count())
	}
}

func TestCollectorSnapshotIsolation(t *testing.T) {
	collector := NewCollector("test", 10)
	collector.SetSyncMode(true) // Enable sync for deterministic testing.
	defer collector.Close()

	f := testFailure("boom", "original")
	collector.Collect(f)

	// Mutating the handler input must not reach the buffer.
	f.Context[0] = Text("modified")

	exported := collector.Export()
	if len(exported) != 1 {
		t.Fatalf("Expected 1 exported failure, got %d", len(exported))
	}
	if got := exported[0].Context[0].String(); got != "original" {
		t.Errorf("Expected 'original', got %s", got)
	}
}

func TestCollectorReset(t *testing.T) {
	collector := NewCollector("test", 10)
	collector.SetSyncMode(true) // Enable sync for deterministic testing.
	defer collector.Close()

	for i := 0; i < 5; i++ {
		collector.Collect(testFailure("boom"))
	}

	if collector.Count() != 5 {
		t.Errorf("Expected 5 failures before reset, got %d", collector.Count())
	}

	collector.droppedCount.Store(10)

	collector.Reset()

	if collector.Count() != 0 {
		t.Errorf("Expected 0 failures after reset, got %d", collector.Count())
	}

	if collector.DroppedCount() != 0 {
		t.Errorf("Expected 0 dropped count after reset, got %d", collector.DroppedCount())
	}
}

func TestCollectorShutdown(t *testing.T) {
	collector := NewCollector("test", 10)
	collector.SetSyncMode(true) // Enable sync for deterministic testing.

	for i := 0; i < 3; i++ {
		collector.Collect(testFailure("boom"))
	}

	collector.Close()

	// Should still be able to export what was collected.
	if got := len(collector.Export()); got != 3 {
		t.Errorf("Expected 3 failures after shutdown, got %d", got)
	}

	collector.Collect(testFailure("late"))

	if collector.Count() != 0 {
		t.Errorf("Expected 0 failures after adding to closed collector, got %d", collector.Count())
	}
	if collector.DroppedCount() != 1 {
		t.Errorf("Expected 1 dropped failure, got %d", collector.DroppedCount())
	}

	// Multiple closes should be safe.
	collector.Close()
}

func TestCollectorConcurrentCollection(t *testing.T) {
	collector := NewCollector("test", 100)
	defer collector.Close()

	var wg sync.WaitGroup
	numGoroutines := 50
	perGoroutine := 10

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				collector.Collect(testFailure("boom"))
			}
		}()
	}

	wg.Wait()

	// Give time for all failures to be processed by async goroutine.
	time.Sleep(100 * time.Millisecond)

	expectedTotal := numGoroutines * perGoroutine
	actualCount := collector.Count()
	droppedCount := collector.DroppedCount()

	if total := int(droppedCount) + actualCount; total != expectedTotal {
		t.Errorf("Expected %d total failures (collected + dropped), got %d (collected: %d, dropped: %d)",
			expectedTotal, total, actualCount, droppedCount)
	}
}

func TestSetSyncMode(t *testing.T) {
	collector := NewCollector("test", 10)
	defer collector.Close()

	collector.Collect(testFailure("async"))

	// Give time for async processing.
	time.Sleep(10 * time.Millisecond)

	if collector.Count() != 1 {
		t.Errorf("Expected 1 failure in async mode, got %d", collector.Count())
	}

	collector.Export()
	collector.SetSyncMode(true)

	collector.Collect(testFailure("sync"))

	// Should be immediately available.
	failures := collector.Export()
	if len(failures) != 1 {
		t.Fatalf("Expected 1 exported failure, got %d", len(failures))
	}
	if failures[0].Err.Error() != "sync" {
		t.Errorf("Expected 'sync', got %v", failures[0].Err)
	}
}

func TestFailureRender(t *testing.T) {
	var buf bytes.Buffer
	f := testFailure("boom", "step 1", "step 2")

	if err := f.Render(&buf, " | "); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if got, want := buf.String(), "boom | step 1 | step 2\n"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
