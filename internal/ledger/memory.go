package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a Store held in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	runs    map[uuid.UUID]Run
	entries map[uuid.UUID][]Entry
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:    make(map[uuid.UUID]Run),
		entries: make(map[uuid.UUID][]Entry),
	}
}

// SaveRun implements Store.
func (m *MemoryStore) SaveRun(_ context.Context, run Run, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	m.entries[run.ID] = append([]Entry(nil), entries...)
	return nil
}

// Run implements Store.
func (m *MemoryStore) Run(_ context.Context, id uuid.UUID) (Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return Run{}, ErrRunNotFound
	}
	return run, nil
}

// Entries implements Store.
func (m *MemoryStore) Entries(_ context.Context, id uuid.UUID) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries, ok := m.entries[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return append([]Entry(nil), entries...), nil
}

var _ Store = (*MemoryStore)(nil)
