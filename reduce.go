package fin

import (
	"context"

	"github.com/DrewCarlson/Fin/pkg/domain"
)

// Reducer computes the next state from the current state and an action.
// Implementations must be pure: they must not mutate the received state and
// must not have effects observable outside the return values. Returning
// domain.ErrRejected signals that the action produces no new state; any
// other error (or a panic) is treated as a fault.
type Reducer[S any] interface {
	Reduce(ctx context.Context, state S, action domain.Action) (S, error)
}

// ReducerFunc adapts an inline function to the Reducer interface.
type ReducerFunc[S any] func(ctx context.Context, state S, action domain.Action) (S, error)

// Reduce calls f.
func (f ReducerFunc[S]) Reduce(ctx context.Context, state S, action domain.Action) (S, error) {
	return f(ctx, state, action)
}

// Middleware intercepts actions before or after the reducer. It has the same
// shape as a Reducer: pre-middleware may transform the state seen by the
// reducer or veto the action entirely, post-middleware may observe or enrich
// the reducer's output before commit. Unlike reducers, middleware is allowed
// to have side effects (logging is an intended use), but it must not call
// back into the owning processor's Dispatch from within its own execution.
type Middleware[S any] interface {
	Reduce(ctx context.Context, state S, action domain.Action) (S, error)
}

// MiddlewareFunc adapts an inline function to the Middleware interface.
// Standalone middleware values and closures are normalized to the same
// internal representation at registration time.
type MiddlewareFunc[S any] func(ctx context.Context, state S, action domain.Action) (S, error)

// Reduce calls f.
func (f MiddlewareFunc[S]) Reduce(ctx context.Context, state S, action domain.Action) (S, error) {
	return f(ctx, state, action)
}

// Reject is a convenience for rejecting an action from a stage:
//
//	return fin.Reject[AppState]()
//
// The returned state is never observed by the pipeline.
func Reject[S any]() (S, error) {
	var zero S
	return zero, domain.ErrRejected
}

// StateHandler observes committed state values. It is invoked exactly once
// per successful pipeline run, with the newly committed state.
type StateHandler[S any] func(state S)

// RejectedHandler observes rejections. It receives the working state at the
// point of rejection and the vetoed action. It must not panic; a panic here
// propagates to the caller of Dispatch.
type RejectedHandler[S any] func(state S, action domain.Action)
