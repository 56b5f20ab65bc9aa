// Package metrics exposes engine activity as Prometheus metrics, fed by lifecycle hooks.
package metrics

import (
	"context"
	"net/http"

	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ivrflow"

// Collector owns the metric vectors and the registry they are exposed from.
type Collector struct {
	registry *prometheus.Registry

	StateVisits   *prometheus.CounterVec
	FlowJumps     *prometheus.CounterVec
	Recoveries    *prometheus.CounterVec
	Reloads       *prometheus.CounterVec
	CallsEnded    prometheus.Counter
	CallDuration  prometheus.Histogram
	CallExchanges prometheus.Histogram
	ActiveFlows   prometheus.Gauge
}

// New creates a collector on a private registry, including Go runtime and process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		StateVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_visits_total",
			Help:      "Total number of turns landing on a state.",
		}, []string{"flow", "state", "class"}),
		FlowJumps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flow_jumps_total",
			Help:      "Total number of cross-flow transitions.",
		}, []string{"from", "to"}),
		Recoveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recoveries_total",
			Help:      "Turns answered by a recovery path, by kind.",
		}, []string{"kind"}),
		Reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flow_reloads_total",
			Help:      "Flow definition reload attempts, by result.",
		}, []string{"result"}),
		CallsEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_ended_total",
			Help:      "Total number of calls ended.",
		}),
		CallDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_duration_seconds",
			Help:      "Duration of ended calls.",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		CallExchanges: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_exchanges",
			Help:      "Caller turns per ended call.",
			Buckets:   prometheus.LinearBuckets(1, 2, 10),
		}),
		ActiveFlows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_flows",
			Help:      "Number of flows in the active definition set.",
		}),
	}
	c.registry.MustRegister(
		c.StateVisits, c.FlowJumps, c.Recoveries, c.Reloads,
		c.CallsEnded, c.CallDuration, c.CallExchanges, c.ActiveFlows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the registry the collector's metrics live in.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Hooks returns lifecycle hooks that record into the collector.
func (c *Collector) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(_ context.Context, e *domain.StateEvent) {
			c.StateVisits.WithLabelValues(e.Flow, e.State, e.Class.String()).Inc()
		},
		OnFlowJump: func(_ context.Context, e *domain.JumpEvent) {
			c.FlowJumps.WithLabelValues(e.From, e.To).Inc()
		},
		OnRecovery: func(_ context.Context, e *domain.RecoveryEvent) {
			c.Recoveries.WithLabelValues(e.Kind).Inc()
		},
		OnReload: func(_ context.Context, e *domain.ReloadEvent) {
			if e.Err != nil {
				c.Reloads.WithLabelValues("failure").Inc()
				return
			}
			c.Reloads.WithLabelValues("success").Inc()
			c.ActiveFlows.Set(float64(e.Flows))
		},
		OnCallEnd: func(_ context.Context, e *domain.CallEvent) {
			c.CallsEnded.Inc()
			c.CallDuration.Observe(e.Duration.Seconds())
			c.CallExchanges.Observe(float64(e.Exchanges))
		},
	}
}
