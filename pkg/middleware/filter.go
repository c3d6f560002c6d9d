package middleware

import (
	"context"

	fin "github.com/DrewCarlson/Fin"
	"github.com/DrewCarlson/Fin/pkg/domain"
)

// Deny returns pre-middleware that rejects any action whose name is in the
// given list, vetoing its delivery to the reducer. Typical use is routing a
// class of actions to another subsystem while keeping them out of this
// state domain.
func Deny[S any](names ...string) fin.MiddlewareFunc[S] {
	denied := nameSet(names)
	return func(ctx context.Context, state S, action domain.Action) (S, error) {
		if denied[action.Name] {
			return state, domain.ErrRejected
		}
		return state, nil
	}
}

// Allow returns pre-middleware that rejects every action whose name is NOT
// in the given list.
func Allow[S any](names ...string) fin.MiddlewareFunc[S] {
	allowed := nameSet(names)
	return func(ctx context.Context, state S, action domain.Action) (S, error) {
		if !allowed[action.Name] {
			return state, domain.ErrRejected
		}
		return state, nil
	}
}

// Validate returns pre-middleware that rejects any action failing the given
// check. The validation error is logged through the processor's lifecycle
// (as a rejection, not a fault), so check functions should log details
// themselves if they need more than the action name.
func Validate[S any](check func(domain.Action) error) fin.MiddlewareFunc[S] {
	return func(ctx context.Context, state S, action domain.Action) (S, error) {
		if err := check(action); err != nil {
			return state, domain.ErrRejected
		}
		return state, nil
	}
}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
