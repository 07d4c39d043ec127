package stats

import (
	"context"
	"sync"
)

// MemoryRecorder keeps process-local counters. It never expires anything.
type MemoryRecorder struct {
	mu       sync.Mutex
	total    map[Kind]int64
	bySource map[string]int64
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{
		total:    make(map[Kind]int64),
		bySource: make(map[string]int64),
	}
}

func (m *MemoryRecorder) Record(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total[ev.Kind] += ev.delta()
	if ev.Kind == KindSourceFailed && ev.Source != "" {
		m.bySource[ev.Source] += ev.delta()
	}
	return nil
}

func (m *MemoryRecorder) Count(kind Kind) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total[kind]
}

func (m *MemoryRecorder) Snapshot() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.total))
	for k, v := range m.total {
		out[string(k)] = v
	}
	return out
}

// FailedSources returns source_failed counts per source.
func (m *MemoryRecorder) FailedSources() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.bySource))
	for k, v := range m.bySource {
		out[k] = v
	}
	return out
}
