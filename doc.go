/*
Package fin is a minimal state container: application state is mutated only
by dispatching named actions through a pipeline of middleware and a single
pure reducer, with every successful run committing a new state value and
notifying an observer.

It separates the state transition logic (Reducer) from interception and
instrumentation (Middleware) and from the surrounding application (observer,
rejected handler, adapters). The processor core is synchronous and
deliberately unlocked; persistence, HTTP exposure, metrics, and
cross-goroutine serialization live in the pkg/ subpackages as external
collaborators.

# Concept

A Processor owns exactly one current state value. Dispatching an action runs
the pre-middleware chain, the reducer, and the post-middleware chain, in
registration order, threading a working state value through the stages. Any
stage may veto the action by rejecting, which stops the run without a
commit. Middleware failures are absorbed and skipped; a reducer failure
abandons the run. The externally visible state changes only when a run
completes, never reflecting a partially applied pipeline.

# Usage

	package main

	import (
		"context"
		"fmt"

		fin "github.com/DrewCarlson/Fin"
		"github.com/DrewCarlson/Fin/pkg/domain"
	)

	type Counter struct {
		Value int
	}

	func main() {
		proc := fin.New(Counter{},
			fin.WithReducerFunc(func(ctx context.Context, s Counter, a domain.Action) (Counter, error) {
				switch a.Name {
				case "increment":
					return Counter{Value: s.Value + 1}, nil
				default:
					return fin.Reject[Counter]()
				}
			}),
			fin.WithStateHandler(func(s Counter) {
				fmt.Println("count:", s.Value)
			}),
		)

		ctx := context.Background()
		if err := proc.Dispatch(ctx, domain.NewAction("increment", nil)); err != nil {
			panic(err)
		}
	}

For persistence see pkg/adapters, for stock middleware see pkg/middleware,
and for serialized multi-goroutine access see pkg/session. The alternate
continuous-sequence formulation of middleware lives in pkg/stream and is not
part of the core contract.
*/
package fin
