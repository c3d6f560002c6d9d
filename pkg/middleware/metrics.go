package middleware

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/DrewCarlson/Fin/pkg/domain"
)

// Collector holds the prometheus metrics for a processor. Wire it through
// lifecycle hooks so it observes every pipeline outcome, including faults
// that never reach a middleware chain:
//
//	col := middleware.NewCollector(prometheus.DefaultRegisterer)
//	proc := fin.New(initial, fin.WithHooks(middleware.Hooks[AppState](col)))
type Collector struct {
	dispatches *prometheus.CounterVec
	commits    prometheus.Counter
	rejections *prometheus.CounterVec
	faults     *prometheus.CounterVec
}

// NewCollector creates and registers the processor metrics.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fin_actions_dispatched_total",
			Help: "Total number of actions dispatched.",
		}, []string{"action"}),
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fin_commits_total",
			Help: "Total number of committed state changes.",
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fin_rejections_total",
			Help: "Total number of rejected actions by pipeline stage.",
		}, []string{"stage"}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fin_faults_total",
			Help: "Total number of absorbed stage faults by pipeline stage.",
		}, []string{"stage"}),
	}
	reg.MustRegister(c.dispatches, c.commits, c.rejections, c.faults)
	return c
}

// Dispatches returns the per-action dispatch counter.
func (c *Collector) Dispatches() *prometheus.CounterVec { return c.dispatches }

// Commits returns the commit counter.
func (c *Collector) Commits() prometheus.Counter { return c.commits }

// Rejections returns the per-stage rejection counter.
func (c *Collector) Rejections() *prometheus.CounterVec { return c.rejections }

// Faults returns the per-stage fault counter.
func (c *Collector) Faults() *prometheus.CounterVec { return c.faults }

// Hooks adapts a Collector to a processor's lifecycle hooks.
// This is a free function because the state type parameter cannot live on a
// Collector method.
func Hooks[S any](c *Collector) domain.LifecycleHooks[S] {
	return domain.LifecycleHooks[S]{
		OnDispatch: func(_ context.Context, e *domain.DispatchEvent) {
			c.dispatches.WithLabelValues(e.Action.Name).Inc()
		},
		OnCommit: func(_ context.Context, _ *domain.CommitEvent[S]) {
			c.commits.Inc()
		},
		OnReject: func(_ context.Context, e *domain.RejectEvent[S]) {
			c.rejections.WithLabelValues(string(e.Stage)).Inc()
		},
		OnFault: func(_ context.Context, e *domain.FaultEvent) {
			c.faults.WithLabelValues(string(e.Stage)).Inc()
		},
	}
}
