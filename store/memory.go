package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps reports in memory. It backs a single reporting session
// and the tests; the server persists through the db package instead.
type MemoryStore struct {
	mu      sync.RWMutex
	reports []*Report
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, r *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Report, len(s.reports))
	copy(out, s.reports)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CapturedAt.After(out[j].CapturedAt)
	})
	return out, nil
}
