package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local CounterStore for development and tests.
// Expired entries are dropped on read; a single instance gives the same
// window semantics as Redis without sharing state across processes.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry

	now func() time.Time
}

type memoryEntry struct {
	window    Window
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if s.now().After(ent.expiresAt) {
		delete(s.entries, key)
		return nil, nil
	}

	w := ent.window
	return &w, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, w Window, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{window: w, expiresAt: s.now().Add(ttl)}
	return nil
}
