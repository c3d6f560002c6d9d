package middleware

import (
	"context"
	"log/slog"

	fin "github.com/DrewCarlson/Fin"
	"github.com/DrewCarlson/Fin/pkg/domain"
)

// Logging returns middleware that logs every action flowing through it and
// passes the state on unchanged. Register it on the pre chain to see actions
// as dispatched, or on the post chain to see only actions that reached the
// reducer successfully.
func Logging[S any](logger *slog.Logger) fin.MiddlewareFunc[S] {
	return func(ctx context.Context, state S, action domain.Action) (S, error) {
		logger.Info("action",
			"name", action.Name,
			"action_id", action.ID,
		)
		return state, nil
	}
}
