package fin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DrewCarlson/Fin/pkg/domain"
	"github.com/DrewCarlson/Fin/pkg/ports"
)

var _ ports.Dispatcher = (*Processor[struct{}])(nil)

// Dispatch feeds one action through the pipeline, synchronously on the
// calling goroutine.
//
// The pipeline runs the pre-middleware chain, the reducer, and the
// post-middleware chain in order, threading a working state value through
// the stages that succeed. If every stage completes without rejecting, the
// new state is committed and the state handler is invoked exactly once,
// even when the committed value equals the previous one. If any stage
// returns domain.ErrRejected the pipeline stops, nothing is committed, and
// the rejected handler is invoked exactly once with the working state at
// that point.
//
// Faults are absorbed, not surfaced: a middleware that returns any other
// error or panics is logged and skipped, with the chain continuing on the
// pre-fault value; a reducer fault abandons the whole run with no commit
// and no rejected callback. The error return reports only lifecycle misuse:
// domain.ErrNoReducer when no reducer is configured, and
// domain.ErrReentrantDispatch when called from inside an active dispatch on
// the same processor. Panics from the state handler, the rejected handler,
// or lifecycle hooks are treated as programmer error and propagate.
func (p *Processor[S]) Dispatch(ctx context.Context, action domain.Action) error {
	if p.reducer == nil {
		return domain.ErrNoReducer
	}
	if !p.inFlight.CompareAndSwap(false, true) {
		return domain.ErrReentrantDispatch
	}
	defer p.inFlight.Store(false)

	if h := p.hooks.OnDispatch; h != nil {
		h(ctx, &domain.DispatchEvent{Timestamp: time.Now(), Action: action})
	}

	p.process(ctx, p.state, action)
	return nil
}

// process executes one full pipeline run against the given state.
// It owns the only write to the state cell.
func (p *Processor[S]) process(ctx context.Context, state S, action domain.Action) {
	working, rejected := p.runChain(ctx, domain.StagePre, p.pre, state, action)
	if rejected {
		p.reject(ctx, domain.StagePre, working, action)
		return
	}

	next, err := p.invoke(ctx, p.reducer, working, action)
	switch {
	case err == nil:
		working = next
	case errors.Is(err, domain.ErrRejected):
		p.reject(ctx, domain.StageReducer, working, action)
		return
	default:
		// A faulting reducer abandons the run entirely: no commit, and,
		// unlike a rejection, no rejected callback.
		p.fault(ctx, domain.StageReducer, 0, action, err)
		return
	}

	working, rejected = p.runChain(ctx, domain.StagePost, p.post, working, action)
	if rejected {
		p.reject(ctx, domain.StagePost, working, action)
		return
	}

	p.state = working
	if h := p.hooks.OnCommit; h != nil {
		h(ctx, &domain.CommitEvent[S]{Timestamp: time.Now(), Action: action, State: working})
	}
	if p.onState != nil {
		p.onState(working)
	}
}

// runChain threads the working state through a middleware chain in
// registration order. A rejecting entry stops the chain; a faulting entry
// is logged and skipped, leaving the working state unchanged for the next
// entry.
func (p *Processor[S]) runChain(ctx context.Context, stage domain.Stage, chain []Middleware[S], state S, action domain.Action) (S, bool) {
	working := state
	for i, m := range chain {
		next, err := p.invoke(ctx, m, working, action)
		switch {
		case err == nil:
			working = next
		case errors.Is(err, domain.ErrRejected):
			return working, true
		default:
			p.fault(ctx, stage, i, action, err)
		}
	}
	return working, false
}

// invoke runs one stage, converting a panic into a fault error.
func (p *Processor[S]) invoke(ctx context.Context, r Reducer[S], state S, action domain.Action) (next S, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			next = state
			err = fmt.Errorf("stage panic: %v", rec)
		}
	}()
	return r.Reduce(ctx, state, action)
}

func (p *Processor[S]) reject(ctx context.Context, stage domain.Stage, state S, action domain.Action) {
	p.logger.Debug("action rejected",
		"action", action.Name,
		"action_id", action.ID,
		"stage", stage,
	)
	if h := p.hooks.OnReject; h != nil {
		h(ctx, &domain.RejectEvent[S]{Timestamp: time.Now(), Action: action, Stage: stage, State: state})
	}
	if p.onRejected != nil {
		p.onRejected(state, action)
	}
}

func (p *Processor[S]) fault(ctx context.Context, stage domain.Stage, index int, action domain.Action, err error) {
	if stage == domain.StageReducer {
		p.logger.Error("reducer fault, dispatch abandoned",
			"action", action.Name,
			"action_id", action.ID,
			"err", err,
		)
	} else {
		p.logger.Warn("middleware fault, entry skipped",
			"action", action.Name,
			"action_id", action.ID,
			"stage", stage,
			"index", index,
			"err", err,
		)
	}
	if h := p.hooks.OnFault; h != nil {
		h(ctx, &domain.FaultEvent{Timestamp: time.Now(), Action: action, Stage: stage, Index: index, Err: err})
	}
}
