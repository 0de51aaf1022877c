package monitoring

import (
	"sync"
	"testing"
)

func TestService_AddIsConcurrencySafe(t *testing.T) {
	s := NewService()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add("ingest_events_created_total", 2)
		}()
	}
	wg.Wait()

	if got := s.Snapshot()["ingest_events_created_total"]; got != 100 {
		t.Errorf("counter = %d, want 100", got)
	}
}

func TestService_RecordEvent(t *testing.T) {
	s := NewService()
	s.RecordEvent("sensor.deleted", map[string]string{"sensor_id": "4"})
	s.RecordEvent("sensor.deleted", nil)

	if got := s.Snapshot()["sensor_deleted_total"]; got != 2 {
		t.Errorf("sensor_deleted_total = %d, want 2", got)
	}
}

func TestService_SnapshotIsACopy(t *testing.T) {
	s := NewService()
	s.Add("x", 1)
	snap := s.Snapshot()
	snap["x"] = 99

	if got := s.Snapshot()["x"]; got != 1 {
		t.Errorf("counter after mutating snapshot = %d, want 1", got)
	}
}

func TestFormatLabels_Sorted(t *testing.T) {
	got := formatLabels(map[string]string{"b": "2", "a": "1"})
	if got != "{a=1,b=2}" {
		t.Errorf("formatLabels() = %q, want {a=1,b=2}", got)
	}
}
