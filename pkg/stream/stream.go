// Package stream is the continuous-sequence formulation of middleware: a
// stage transforms a stream of actions rather than intercepting a single
// dispatch. It is an extension around the core pipeline, not part of its
// contract: the processor still sees one synchronous dispatch per action.
package stream

import (
	"context"

	"github.com/DrewCarlson/Fin/pkg/domain"
	"github.com/DrewCarlson/Fin/pkg/ports"
)

// Transformer reshapes a continuous sequence of actions. Implementations
// must close their output channel when the input channel closes or the
// context is done.
type Transformer func(ctx context.Context, in <-chan domain.Action) <-chan domain.Action

// Filter returns a Transformer that drops actions failing the predicate.
// Dropping an action here is the stream analogue of a pre-middleware
// rejection, except no rejected handler fires: the action simply never
// reaches the dispatcher.
func Filter(keep func(domain.Action) bool) Transformer {
	return func(ctx context.Context, in <-chan domain.Action) <-chan domain.Action {
		out := make(chan domain.Action)
		go func() {
			defer close(out)
			for action := range in {
				if !keep(action) {
					continue
				}
				select {
				case out <- action:
				case <-ctx.Done():
					return
				}
			}
		}()
		return out
	}
}

// Map returns a Transformer that replaces each action with fn(action).
func Map(fn func(domain.Action) domain.Action) Transformer {
	return func(ctx context.Context, in <-chan domain.Action) <-chan domain.Action {
		out := make(chan domain.Action)
		go func() {
			defer close(out)
			for action := range in {
				select {
				case out <- fn(action):
				case <-ctx.Done():
					return
				}
			}
		}()
		return out
	}
}

// Chain composes transformers so the first one sees the raw sequence.
func Chain(ts ...Transformer) Transformer {
	return func(ctx context.Context, in <-chan domain.Action) <-chan domain.Action {
		out := in
		for _, t := range ts {
			out = t(ctx, out)
		}
		return out
	}
}

// Pump dispatches every action from the (transformed) sequence into d, one
// at a time in arrival order, preserving the core's single-pipeline model.
// It returns when the input channel closes, or the context's error if it is
// canceled first. Dispatch errors (lifecycle misuse) abort the pump.
func Pump(ctx context.Context, d ports.Dispatcher, in <-chan domain.Action, ts ...Transformer) error {
	actions := Chain(ts...)(ctx, in)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case action, ok := <-actions:
			if !ok {
				return nil
			}
			if err := d.Dispatch(ctx, action); err != nil {
				return err
			}
		}
	}
}
