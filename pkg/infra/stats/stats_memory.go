package stats

import (
	"context"
	"sync"
)

// MemoryStore counts submission outcomes in process memory. Counters reset
// on restart; use the Redis store when that matters.
type MemoryStore struct {
	mu       sync.Mutex
	outcomes map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{outcomes: make(map[string]int64)}
}

func (s *MemoryStore) RecordOutcome(_ context.Context, kind string) {
	s.mu.Lock()
	s.outcomes[kind]++
	s.mu.Unlock()
}

func (s *MemoryStore) Snapshot(_ context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.outcomes))
	for kind, count := range s.outcomes {
		out[kind] = count
	}
	return out, nil
}
