// Package memory provides an in-memory snapshot store, useful for tests and
// single-process applications that do not need durability.
package memory

import (
	"context"
	"sync"

	"github.com/DrewCarlson/Fin/pkg/domain"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
//
// State values are stored as-is: the container's contract is that committed
// states are immutable, so no defensive copy is made.
type Store[S any] struct {
	data map[string]S
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore[S any]() *Store[S] {
	return &Store[S]{
		data: make(map[string]S),
	}
}

// Save persists the state in memory.
func (s *Store[S]) Save(ctx context.Context, id string, state S) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = state
	return nil
}

// Load retrieves the state from memory.
func (s *Store[S]) Load(ctx context.Context, id string) (S, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[id]
	if !ok {
		var zero S
		return zero, domain.ErrSnapshotNotFound
	}
	return state, nil
}

// Delete removes the snapshot.
func (s *Store[S]) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the IDs of all stored snapshots.
func (s *Store[S]) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
