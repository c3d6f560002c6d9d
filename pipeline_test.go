package fin_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fin "github.com/DrewCarlson/Fin"
	"github.com/DrewCarlson/Fin/pkg/domain"
)

func appendMiddleware(suffix string) fin.MiddlewareFunc[string] {
	return func(ctx context.Context, state string, action domain.Action) (string, error) {
		return state + suffix, nil
	}
}

func appendReducer(suffix string) fin.ReducerFunc[string] {
	return func(ctx context.Context, state string, action domain.Action) (string, error) {
		return state + suffix, nil
	}
}

func identityReducer[S any]() fin.ReducerFunc[S] {
	return func(ctx context.Context, state S, action domain.Action) (S, error) {
		return state, nil
	}
}

func rejectAll[S any]() fin.MiddlewareFunc[S] {
	return func(ctx context.Context, state S, action domain.Action) (S, error) {
		return fin.Reject[S]()
	}
}

func TestDispatch_CommitComposition(t *testing.T) {
	var notified []string
	proc := fin.New("start",
		fin.WithReducer[string](appendReducer("|reduce")),
		fin.WithPreMiddleware[string](appendMiddleware("|pre1"), appendMiddleware("|pre2")),
		fin.WithPostMiddleware[string](appendMiddleware("|post1")),
		fin.WithStateHandler(func(s string) {
			notified = append(notified, s)
		}),
	)

	err := proc.Dispatch(context.Background(), domain.NewAction("go", nil))
	require.NoError(t, err)

	want := "start|pre1|pre2|reduce|post1"
	assert.Equal(t, want, proc.State())
	require.Len(t, notified, 1, "observer must be invoked exactly once per commit")
	assert.Equal(t, want, notified[0])
}

func TestDispatch_NoReducer(t *testing.T) {
	proc := fin.New("initial")

	err := proc.Dispatch(context.Background(), domain.NewAction("go", nil))
	assert.ErrorIs(t, err, domain.ErrNoReducer)
	assert.Equal(t, "initial", proc.State())
}

func TestDispatch_SetReducerBetweenDispatches(t *testing.T) {
	proc := fin.New("x")
	ctx := context.Background()

	assert.ErrorIs(t, proc.Dispatch(ctx, domain.NewAction("go", nil)), domain.ErrNoReducer)

	proc.SetReducer(appendReducer("|a"))
	require.NoError(t, proc.Dispatch(ctx, domain.NewAction("go", nil)))
	assert.Equal(t, "x|a", proc.State())

	proc.SetReducer(appendReducer("|b"))
	require.NoError(t, proc.Dispatch(ctx, domain.NewAction("go", nil)))
	assert.Equal(t, "x|a|b", proc.State())
}

func TestDispatch_PreRejectionShortCircuit(t *testing.T) {
	reducerRan := false
	postRan := false
	observerCalls := 0
	var rejectedStates []string
	var rejectedActions []domain.Action

	proc := fin.New("initial",
		fin.WithReducerFunc(func(ctx context.Context, s string, a domain.Action) (string, error) {
			reducerRan = true
			return s + "|reduce", nil
		}),
		fin.WithPreMiddleware[string](appendMiddleware("|pre1"), rejectAll[string]()),
		fin.WithPostMiddleware[string](fin.MiddlewareFunc[string](func(ctx context.Context, s string, a domain.Action) (string, error) {
			postRan = true
			return s, nil
		})),
		fin.WithStateHandler(func(string) { observerCalls++ }),
		fin.WithRejectedHandler(func(s string, a domain.Action) {
			rejectedStates = append(rejectedStates, s)
			rejectedActions = append(rejectedActions, a)
		}),
	)

	action := domain.NewAction("blocked", nil)
	require.NoError(t, proc.Dispatch(context.Background(), action))

	assert.False(t, reducerRan, "reducer must not run after a pre rejection")
	assert.False(t, postRan, "post middleware must not run after a pre rejection")
	assert.Equal(t, "initial", proc.State(), "state must be unchanged")
	assert.Zero(t, observerCalls)
	require.Len(t, rejectedStates, 1, "rejected must be invoked exactly once")
	// The rejected handler sees the working value at the point of
	// rejection, which includes the first middleware's transform.
	assert.Equal(t, "initial|pre1", rejectedStates[0])
	assert.Equal(t, action.ID, rejectedActions[0].ID)
}

func TestDispatch_ReducerRejection(t *testing.T) {
	postRan := false
	observerCalls := 0
	rejectedCalls := 0

	proc := fin.New("initial",
		fin.WithReducerFunc(func(ctx context.Context, s string, a domain.Action) (string, error) {
			return fin.Reject[string]()
		}),
		fin.WithPostMiddleware[string](fin.MiddlewareFunc[string](func(ctx context.Context, s string, a domain.Action) (string, error) {
			postRan = true
			return s, nil
		})),
		fin.WithStateHandler(func(string) { observerCalls++ }),
		fin.WithRejectedHandler(func(string, domain.Action) { rejectedCalls++ }),
	)

	require.NoError(t, proc.Dispatch(context.Background(), domain.NewAction("go", nil)))

	assert.False(t, postRan)
	assert.Equal(t, "initial", proc.State())
	assert.Zero(t, observerCalls)
	assert.Equal(t, 1, rejectedCalls)
}

func TestDispatch_PostRejection(t *testing.T) {
	observerCalls := 0
	var rejectedStates []string

	proc := fin.New("initial",
		fin.WithReducer[string](appendReducer("|reduce")),
		fin.WithPostMiddleware[string](appendMiddleware("|post1"), rejectAll[string]()),
		fin.WithStateHandler(func(string) { observerCalls++ }),
		fin.WithRejectedHandler(func(s string, a domain.Action) {
			rejectedStates = append(rejectedStates, s)
		}),
	)

	require.NoError(t, proc.Dispatch(context.Background(), domain.NewAction("go", nil)))

	assert.Equal(t, "initial", proc.State(), "post rejection must not commit")
	assert.Zero(t, observerCalls)
	require.Len(t, rejectedStates, 1)
	assert.Equal(t, "initial|reduce|post1", rejectedStates[0])
}

func TestDispatch_ReducerFaultAsymmetry(t *testing.T) {
	// A faulting reducer abandons the run: no commit, and unlike a
	// rejection, no rejected callback.
	cases := []struct {
		name    string
		reducer fin.ReducerFunc[string]
	}{
		{
			name: "returned error",
			reducer: func(ctx context.Context, s string, a domain.Action) (string, error) {
				return "", errors.New("boom")
			},
		},
		{
			name: "panic",
			reducer: func(ctx context.Context, s string, a domain.Action) (string, error) {
				panic("boom")
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			observerCalls := 0
			rejectedCalls := 0
			var faults []*domain.FaultEvent

			proc := fin.New("initial",
				fin.WithReducer[string](tc.reducer),
				fin.WithStateHandler(func(string) { observerCalls++ }),
				fin.WithRejectedHandler(func(string, domain.Action) { rejectedCalls++ }),
				fin.WithHooks(domain.LifecycleHooks[string]{
					OnFault: func(_ context.Context, e *domain.FaultEvent) {
						faults = append(faults, e)
					},
				}),
			)

			err := proc.Dispatch(context.Background(), domain.NewAction("go", nil))
			require.NoError(t, err, "reducer faults are absorbed, not surfaced")

			assert.Equal(t, "initial", proc.State())
			assert.Zero(t, observerCalls, "observer must not fire on a reducer fault")
			assert.Zero(t, rejectedCalls, "rejected must not fire on a reducer fault")
			require.Len(t, faults, 1)
			assert.Equal(t, domain.StageReducer, faults[0].Stage)
		})
	}
}

func TestDispatch_MiddlewareFaultIsolation(t *testing.T) {
	cases := []struct {
		name   string
		faulty fin.MiddlewareFunc[string]
	}{
		{
			name: "returned error",
			faulty: func(ctx context.Context, s string, a domain.Action) (string, error) {
				return "poisoned", errors.New("boom")
			},
		},
		{
			name: "panic",
			faulty: func(ctx context.Context, s string, a domain.Action) (string, error) {
				panic("boom")
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seenByNext string
			faultCount := 0

			proc := fin.New("initial",
				fin.WithReducer[string](identityReducer[string]()),
				fin.WithPreMiddleware[string](
					appendMiddleware("|pre1"),
					tc.faulty,
					fin.MiddlewareFunc[string](func(ctx context.Context, s string, a domain.Action) (string, error) {
						seenByNext = s
						return s + "|pre3", nil
					}),
				),
				fin.WithHooks(domain.LifecycleHooks[string]{
					OnFault: func(_ context.Context, e *domain.FaultEvent) {
						faultCount++
						assert.Equal(t, domain.StagePre, e.Stage)
						assert.Equal(t, 1, e.Index)
					},
				}),
			)

			require.NoError(t, proc.Dispatch(context.Background(), domain.NewAction("go", nil)))

			assert.Equal(t, "initial|pre1", seenByNext, "next entry must receive the pre-fault value")
			assert.Equal(t, "initial|pre1|pre3", proc.State(), "pipeline continues past a faulting middleware")
			assert.Equal(t, 1, faultCount)
		})
	}
}

func TestDispatch_OrderSensitivity(t *testing.T) {
	increment := fin.MiddlewareFunc[int](func(ctx context.Context, s int, a domain.Action) (int, error) {
		return s + 1, nil
	})
	double := fin.MiddlewareFunc[int](func(ctx context.Context, s int, a domain.Action) (int, error) {
		return s * 2, nil
	})

	run := func(ms ...fin.Middleware[int]) int {
		proc := fin.New(3,
			fin.WithReducer[int](identityReducer[int]()),
			fin.WithPreMiddleware[int](ms...),
		)
		require.NoError(t, proc.Dispatch(context.Background(), domain.NewAction("go", nil)))
		return proc.State()
	}

	assert.Equal(t, 8, run(increment, double))
	assert.Equal(t, 7, run(double, increment))
}

func TestDispatch_AlwaysNotifyOnCommit(t *testing.T) {
	observerCalls := 0
	proc := fin.New("same",
		fin.WithReducer[string](identityReducer[string]()),
		fin.WithStateHandler(func(s string) {
			observerCalls++
			assert.Equal(t, "same", s)
		}),
	)

	ctx := context.Background()
	require.NoError(t, proc.Dispatch(ctx, domain.NewAction("noop", nil)))
	require.NoError(t, proc.Dispatch(ctx, domain.NewAction("noop", nil)))

	assert.Equal(t, 2, observerCalls, "no value-equality suppression on commit")
}

func TestDispatch_ReentrancyDetected(t *testing.T) {
	var nestedErr error
	var proc *fin.Processor[string]

	proc = fin.New("initial",
		fin.WithReducer[string](appendReducer("|reduce")),
		fin.WithPreMiddleware[string](fin.MiddlewareFunc[string](func(ctx context.Context, s string, a domain.Action) (string, error) {
			nestedErr = proc.Dispatch(ctx, domain.NewAction("nested", nil))
			return s, nil
		})),
	)

	require.NoError(t, proc.Dispatch(context.Background(), domain.NewAction("outer", nil)))

	assert.ErrorIs(t, nestedErr, domain.ErrReentrantDispatch)
	assert.Equal(t, "initial|reduce", proc.State(), "outer dispatch still commits")
}

func TestDispatch_Hooks(t *testing.T) {
	var dispatches, commits, rejects int

	proc := fin.New(0,
		fin.WithReducerFunc(func(ctx context.Context, s int, a domain.Action) (int, error) {
			if a.Name == "blocked" {
				return fin.Reject[int]()
			}
			return s + 1, nil
		}),
		fin.WithHooks(domain.LifecycleHooks[int]{
			OnDispatch: func(_ context.Context, _ *domain.DispatchEvent) { dispatches++ },
			OnCommit: func(_ context.Context, e *domain.CommitEvent[int]) {
				commits++
				assert.Equal(t, 1, e.State)
			},
			OnReject: func(_ context.Context, e *domain.RejectEvent[int]) {
				rejects++
				assert.Equal(t, domain.StageReducer, e.Stage)
			},
		}),
	)

	ctx := context.Background()
	require.NoError(t, proc.Dispatch(ctx, domain.NewAction("go", nil)))
	require.NoError(t, proc.Dispatch(ctx, domain.NewAction("blocked", nil)))

	assert.Equal(t, 2, dispatches)
	assert.Equal(t, 1, commits)
	assert.Equal(t, 1, rejects)
}
