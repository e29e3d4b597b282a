package store

import (
	"sort"
	"sync"

	"nebula-nodeconf/pkg/model"
)

// MemoryStore keeps runs for the lifetime of the process. Used when no
// history database is configured and in tests.
type MemoryStore struct {
	mu   sync.RWMutex
	runs []model.Run
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) SaveRun(r model.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == r.ID {
			m.runs[i] = r
			return nil
		}
	}
	m.runs = append(m.runs, r)
	return nil
}

func (m *MemoryStore) ListRuns(limit int) ([]model.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]model.Run(nil), m.runs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
