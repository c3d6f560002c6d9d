package domain

import (
	"time"

	"github.com/google/uuid"
)

// Action is a named command dispatched into a processor.
// Actions are values: once dispatched they must be treated as read-only
// by every stage of the pipeline.
type Action struct {
	// ID is a correlation identifier, useful for tracing a dispatch
	// through logs and hooks.
	ID string `json:"id"`

	// Name identifies the action for reducers, middleware, and diagnostics.
	Name string `json:"name"`

	// Payload carries arbitrary action data. Use DecodePayload to map it
	// onto a typed struct.
	Payload any `json:"payload,omitempty"`

	// At records when the action was created.
	At time.Time `json:"at"`
}

// NewAction creates an action with a fresh correlation ID.
func NewAction(name string, payload any) Action {
	return Action{
		ID:      uuid.NewString(),
		Name:    name,
		Payload: payload,
		At:      time.Now(),
	}
}
