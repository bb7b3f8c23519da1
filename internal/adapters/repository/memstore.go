package repository

import (
	"context"
	"sync"
)

// MemoryStore keeps the current roster snapshot in memory.
type MemoryStore struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Snapshot returns a deep copy of the current roster.
func (s *MemoryStore) Snapshot(_ context.Context) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone(), nil
}

// Replace swaps the whole roster atomically.
func (s *MemoryStore) Replace(_ context.Context, snap Snapshot) {
	c := snap.Clone()
	s.mu.Lock()
	s.snapshot = c
	s.mu.Unlock()
}

// Counts reports the number of records per kind.
func (s *MemoryStore) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Counts()
}
