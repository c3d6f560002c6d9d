// Package file provides a filesystem-backed snapshot store.
// Snapshots are written as JSON files with an atomic rename, so a crash
// mid-save never leaves a corrupt snapshot behind.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/DrewCarlson/Fin/pkg/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store implements ports.SnapshotStore using the local filesystem.
type Store[S any] struct {
	basePath string
}

// New creates a Store rooted at basePath.
// If basePath is empty, it defaults to ".fin/snapshots".
func New[S any](basePath string) *Store[S] {
	if basePath == "" {
		basePath = filepath.Join(".fin", "snapshots")
	}
	return &Store[S]{basePath: basePath}
}

func (s *Store[S]) path(id string) string {
	return filepath.Join(s.basePath, id+".json")
}

// Save persists the snapshot atomically: write to a temp file in the same
// directory, fsync, then rename over the destination.
func (s *Store[S]) Save(ctx context.Context, id string, state S) error {
	if id == "" {
		return fmt.Errorf("snapshot id cannot be empty")
	}

	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(s.basePath, "tmp-"+id+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path(id)); err != nil {
		return fmt.Errorf("failed to finalize snapshot: %w", err)
	}
	return nil
}

// Load retrieves a snapshot from disk.
func (s *Store[S]) Load(ctx context.Context, id string) (S, error) {
	var state S

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return state, domain.ErrSnapshotNotFound
		}
		return state, fmt.Errorf("failed to read snapshot: %w", err)
	}

	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return state, nil
}

// Delete removes the snapshot file. Deleting a missing snapshot is not an
// error.
func (s *Store[S]) Delete(ctx context.Context, id string) error {
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// List returns the IDs of all stored snapshots.
func (s *Store[S]) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}
