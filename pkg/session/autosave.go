package session

import (
	"context"
	"log/slog"

	fin "github.com/DrewCarlson/Fin"
	"github.com/DrewCarlson/Fin/internal/logging"
)

// Autosave returns a state handler that persists every committed state
// under the given snapshot ID:
//
//	proc := fin.New(initial, fin.WithStateHandler(session.Autosave(mgr, "cart", logger)))
//
// Save errors are logged, never panicked: a state handler that throws would
// propagate out of Dispatch, and losing one snapshot write is preferable to
// crashing the dispatch path.
func Autosave[S any](m *Manager[S], id string, logger *slog.Logger) fin.StateHandler[S] {
	if logger == nil {
		logger = logging.NewNop()
	}
	return func(state S) {
		if err := m.Save(context.Background(), id, state); err != nil {
			logger.Warn("autosave failed",
				"snapshot_id", id,
				"err", err,
			)
		}
	}
}
