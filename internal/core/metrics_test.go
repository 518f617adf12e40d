package core

import (
	"sync"
	"testing"
	"time"
)

func TestExpvarRecorderAccumulates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	rec.ObserveDuration("save", 20*time.Millisecond)
	rec.ObserveDuration("save", 30*time.Millisecond)
	rec.RecordResult("save", StatusOK)
	rec.RecordResult("save", StatusOK)
	rec.RecordResult("load", StatusNotFound)

	snap := rec.Snapshot()
	if got := snap.DurationsMS["save"]; got != 50 {
		t.Errorf("save duration = %v ms, want 50", got)
	}
	if snap.Results["save"][StatusOK] != 2 {
		t.Errorf("save ok = %d, want 2", snap.Results["save"][StatusOK])
	}
	if snap.Results["load"][StatusNotFound] != 1 {
		t.Errorf("load not_found = %d, want 1", snap.Results["load"][StatusNotFound])
	}
}

func TestExpvarRecorderGeneratesUniqueNames(t *testing.T) {
	a := NewExpvarMetricsRecorder("")
	b := NewExpvarMetricsRecorder("")
	if a.Name() == b.Name() {
		t.Fatalf("generated names collide: %q", a.Name())
	}
}

func TestExpvarSnapshotIsACopy(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	rec.RecordResult("save", StatusOK)
	snap := rec.Snapshot()
	snap.Results["save"][StatusOK] = 99
	snap.DurationsMS["save"] = 99

	if rec.Snapshot().Results["save"][StatusOK] != 1 {
		t.Fatalf("snapshot mutation reached recorder state")
	}
}

func TestExpvarRecorderConcurrentUse(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				rec.ObserveDuration("load", time.Millisecond)
				rec.RecordResult("load", StatusOK)
			}
		}()
	}
	wg.Wait()
	if got := rec.Snapshot().Results["load"][StatusOK]; got != 800 {
		t.Fatalf("load ok = %d, want 800", got)
	}
}
