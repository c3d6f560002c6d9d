package ports

import (
	"context"
)

// SnapshotStore defines the interface for persisting committed state values.
// It enables durable state domains that survive restarts: save the state on
// every commit, load it back to seed a new processor.
type SnapshotStore[S any] interface {
	// Save persists the state under the given snapshot ID.
	Save(ctx context.Context, id string, state S) error

	// Load retrieves the state for a given snapshot ID.
	// Returns domain.ErrSnapshotNotFound if the snapshot does not exist.
	Load(ctx context.Context, id string) (S, error)

	// Delete removes the snapshot for a given ID.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all stored snapshots.
	List(ctx context.Context) ([]string, error)
}
