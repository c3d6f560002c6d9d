package domain

import (
	"context"
	"time"
)

// Stage identifies where in the pipeline an event originated.
type Stage string

const (
	StagePre     Stage = "pre"     // Pre-middleware chain
	StageReducer Stage = "reducer" // The reducer itself
	StagePost    Stage = "post"    // Post-middleware chain
)

// DispatchEvent is emitted when a pipeline run begins.
type DispatchEvent struct {
	Timestamp time.Time
	Action    Action
}

// CommitEvent is emitted after the state cell has been replaced.
type CommitEvent[S any] struct {
	Timestamp time.Time
	Action    Action
	State     S
}

// RejectEvent is emitted when a stage vetoes the action.
// State holds the working value at the point of rejection.
type RejectEvent[S any] struct {
	Timestamp time.Time
	Action    Action
	Stage     Stage
	State     S
}

// FaultEvent is emitted when a stage fails (returned a non-reject error or
// panicked). Index is the position within the middleware chain, or zero for
// the reducer.
type FaultEvent struct {
	Timestamp time.Time
	Action    Action
	Stage     Stage
	Index     int
	Err       error
}

// LifecycleHooks defines optional callbacks for processor observability.
// Hooks run synchronously inside Dispatch and are additive to the state
// handler and rejected handler; a panicking hook propagates to the caller.
type LifecycleHooks[S any] struct {
	OnDispatch func(context.Context, *DispatchEvent)
	OnCommit   func(context.Context, *CommitEvent[S])
	OnReject   func(context.Context, *RejectEvent[S])
	OnFault    func(context.Context, *FaultEvent)
}
