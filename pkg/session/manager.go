package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DrewCarlson/Fin/internal/logging"
	"github.com/DrewCarlson/Fin/pkg/domain"
	"github.com/DrewCarlson/Fin/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager coordinates access to named state domains. The processor core is
// deliberately unlocked, so this is where callers get the serialization
// discipline the pipeline assumes: WithLock guarantees one goroutine (and,
// with a DistributedLocker, one process) at a time per domain ID.
// Lock entries are reference counted and garbage collected when idle.
type Manager[S any] struct {
	store ports.SnapshotStore[S]

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option[S any] func(*Manager[S])

// WithLocker enables distributed locking across replicas.
func WithLocker[S any](locker ports.DistributedLocker) Option[S] {
	return func(m *Manager[S]) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock TTL (default 30s).
func WithLockTTL[S any](ttl time.Duration) Option[S] {
	return func(m *Manager[S]) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for deferred errors.
func WithLogger[S any](logger *slog.Logger) Option[S] {
	return func(m *Manager[S]) {
		m.logger = logger
	}
}

// NewManager creates a Manager backed by the given snapshot store.
func NewManager[S any](store ports.SnapshotStore[S], opts ...Option[S]) *Manager[S] {
	m := &Manager[S]{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
func (m *Manager[S]) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager[S]) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// Load retrieves an existing snapshot from the store.
func (m *Manager[S]) Load(ctx context.Context, id string) (S, error) {
	var state S
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, id)
		return err
	})
	return state, err
}

// LoadOrInit tries to load a snapshot. If none exists, it persists and
// returns the given initial state, atomically with respect to other callers
// of the same ID.
func (m *Manager[S]) LoadOrInit(ctx context.Context, id string, initial S) (S, error) {
	var state S
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, id)
		if err == nil {
			return nil
		}

		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			return fmt.Errorf("failed to check snapshot existence: %w", err)
		}

		state = initial
		if err := m.store.Save(ctx, id, state); err != nil {
			return fmt.Errorf("failed to initialize snapshot: %w", err)
		}
		return nil
	})
	return state, err
}

// Save persists the snapshot.
func (m *Manager[S]) Save(ctx context.Context, id string, state S) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Save(ctx, id, state)
	})
}

// Delete removes the snapshot from the store.
func (m *Manager[S]) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// List delegates to the store.
func (m *Manager[S]) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying snapshot store.
func (m *Manager[S]) Store() ports.SnapshotStore[S] {
	return m.store
}

// WithLock executes fn while holding the lock for the given domain ID.
// Dispatching into a processor from inside fn satisfies the core's
// "one action at a time" caller contract.
func (m *Manager[S]) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"snapshot_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
