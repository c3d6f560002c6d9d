package fin

import (
	"log/slog"
	"sync/atomic"

	"github.com/DrewCarlson/Fin/internal/logging"
	"github.com/DrewCarlson/Fin/pkg/domain"
)

// Processor owns one current state value and mutates it exclusively through
// the dispatch pipeline: pre-middleware, reducer, post-middleware, commit.
//
// A Processor provides no internal locking. Dispatch runs synchronously on
// the calling goroutine, and "no two actions processed at once" is a
// contract upheld by the caller (dispatch from a single goroutine, or wrap
// calls in your own mutual exclusion; pkg/session provides one). Reentrant
// dispatch from within a stage is detected and refused.
type Processor[S any] struct {
	state   S
	reducer Reducer[S]
	pre     []Middleware[S]
	post    []Middleware[S]

	onState    StateHandler[S]
	onRejected RejectedHandler[S]
	hooks      domain.LifecycleHooks[S]
	logger     *slog.Logger

	inFlight atomic.Bool
}

// Option defines a functional option for configuring a Processor.
type Option[S any] func(*Processor[S])

// WithReducer sets the reducer at construction time. Dispatching without a
// reducer fails with domain.ErrNoReducer.
func WithReducer[S any](r Reducer[S]) Option[S] {
	return func(p *Processor[S]) {
		p.reducer = r
	}
}

// WithReducerFunc sets an inline reducer at construction time.
func WithReducerFunc[S any](f ReducerFunc[S]) Option[S] {
	return func(p *Processor[S]) {
		p.reducer = f
	}
}

// WithPreMiddleware appends middleware to run before the reducer,
// in the given order.
func WithPreMiddleware[S any](ms ...Middleware[S]) Option[S] {
	return func(p *Processor[S]) {
		p.pre = append(p.pre, ms...)
	}
}

// WithPostMiddleware appends middleware to run after the reducer,
// in the given order.
func WithPostMiddleware[S any](ms ...Middleware[S]) Option[S] {
	return func(p *Processor[S]) {
		p.post = append(p.post, ms...)
	}
}

// WithMiddleware appends one pre- and one post-middleware in a single option.
func WithMiddleware[S any](pre, post Middleware[S]) Option[S] {
	return func(p *Processor[S]) {
		p.pre = append(p.pre, pre)
		p.post = append(p.post, post)
	}
}

// WithStateHandler sets the observer invoked on every commit.
func WithStateHandler[S any](h StateHandler[S]) Option[S] {
	return func(p *Processor[S]) {
		p.onState = h
	}
}

// WithRejectedHandler sets the handler invoked on every rejection.
func WithRejectedHandler[S any](h RejectedHandler[S]) Option[S] {
	return func(p *Processor[S]) {
		p.onRejected = h
	}
}

// WithHooks registers lifecycle hooks for observability.
func WithHooks[S any](hooks domain.LifecycleHooks[S]) Option[S] {
	return func(p *Processor[S]) {
		p.hooks = hooks
	}
}

// WithLogger sets a structured logger for pipeline diagnostics
// (absorbed faults, rejections). Defaults to a no-op logger.
func WithLogger[S any](logger *slog.Logger) Option[S] {
	return func(p *Processor[S]) {
		p.logger = logger
	}
}

// New creates a Processor seeded with an initial state.
// The reducer, middleware chains, and handlers may be supplied here via
// options or configured later through the setter surface; only Dispatch
// requires a reducer to be present.
func New[S any](initial S, opts ...Option[S]) *Processor[S] {
	p := &Processor[S]{
		state:  initial,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logging.NewNop()
	}
	return p
}

// State returns the last committed state value.
func (p *Processor[S]) State() S {
	return p.state
}

// SetReducer replaces the reducer. Must not be called during an active
// dispatch.
func (p *Processor[S]) SetReducer(r Reducer[S]) {
	p.reducer = r
}

// SetReducerFunc replaces the reducer with an inline function.
func (p *Processor[S]) SetReducerFunc(f ReducerFunc[S]) {
	p.reducer = f
}

// SetStateHandler replaces the commit observer.
func (p *Processor[S]) SetStateHandler(h StateHandler[S]) {
	p.onState = h
}

// SetRejectedHandler replaces the rejection handler.
func (p *Processor[S]) SetRejectedHandler(h RejectedHandler[S]) {
	p.onRejected = h
}

// AddPreMiddleware appends middleware to the pre-reducer chain.
func (p *Processor[S]) AddPreMiddleware(m Middleware[S]) {
	p.pre = append(p.pre, m)
}

// AddPreMiddlewareFunc appends an inline function to the pre-reducer chain.
func (p *Processor[S]) AddPreMiddlewareFunc(f MiddlewareFunc[S]) {
	p.pre = append(p.pre, f)
}

// AddPostMiddleware appends middleware to the post-reducer chain.
func (p *Processor[S]) AddPostMiddleware(m Middleware[S]) {
	p.post = append(p.post, m)
}

// AddPostMiddlewareFunc appends an inline function to the post-reducer chain.
func (p *Processor[S]) AddPostMiddlewareFunc(f MiddlewareFunc[S]) {
	p.post = append(p.post, f)
}

// AddMiddleware appends one pre- and one post-middleware.
func (p *Processor[S]) AddMiddleware(pre, post Middleware[S]) {
	p.pre = append(p.pre, pre)
	p.post = append(p.post, post)
}
