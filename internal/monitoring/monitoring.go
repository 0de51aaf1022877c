package monitoring

import (
	"sort"
	"strings"
	"sync"
	"time"

	nuts "github.com/vaudience/go-nuts"
)

// Service keeps in-process counters for ingestion and cleanup events.
type Service struct {
	mu       sync.Mutex
	counters map[string]int64
	started  time.Time
}

// NewService creates a new monitoring service
func NewService() *Service {
	return &Service{
		counters: make(map[string]int64),
		started:  time.Now(),
	}
}

// Add increments the named counter by delta.
func (s *Service) Add(name string, delta int64) {
	s.mu.Lock()
	s.counters[name] += delta
	s.mu.Unlock()
}

// RecordEvent logs a monitored event and counts it under "<event>_total".
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	s.Add(counterName(eventName), 1)
	nuts.L.Infof("[Monitoring] Event %s recorded with labels: %s", eventName, formatLabels(labels))
}

// Snapshot returns a copy of all counters.
func (s *Service) Snapshot() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.counters))
	for k, v := range s.counters {
		out[k] = v
	}
	return out
}

// Uptime returns how long the service has been counting.
func (s *Service) Uptime() time.Duration {
	return time.Since(s.started)
}

func counterName(event string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(event) + "_total"
}

func formatLabels(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+labels[k])
	}
	return "{" + strings.Join(parts, ",") + "}"
}
