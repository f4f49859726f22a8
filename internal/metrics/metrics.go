// Package metrics exposes prometheus instrumentation for the state pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "chatkit"

// Metrics groups the collectors updated by the store, buffers, subscriptions
// and the user supplementer. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Dispatched    *prometheus.CounterVec
	Unsupported   prometheus.Counter
	Published     *prometheus.CounterVec
	Overflows     *prometheus.CounterVec
	Transitions   *prometheus.CounterVec
	UsersFetched  prometheus.Counter
	FetchFailures prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "actions_dispatched_total",
			Help:      "Actions reduced into a new state version, by signature.",
		}, []string{"signature"}),
		Unsupported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "actions_unsupported_total",
			Help:      "Actions ignored because no reducer recognises them.",
		}),
		Published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "buffer",
			Name:      "states_published_total",
			Help:      "States published by a buffer, by buffer name.",
		}, []string{"buffer"}),
		Overflows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "buffer",
			Name:      "overflows_total",
			Help:      "Incomplete states published because the queue was full.",
		}, []string{"buffer"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscription",
			Name:      "state_transitions_total",
			Help:      "Subscription lifecycle transitions, by kind and target state.",
		}, []string{"kind", "state"}),
		UsersFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "users",
			Name:      "fetched_total",
			Help:      "User profiles fetched to supplement partial users.",
		}),
		FetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "users",
			Name:      "fetch_failures_total",
			Help:      "Failed user fetch requests.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.Dispatched,
			m.Unsupported,
			m.Published,
			m.Overflows,
			m.Transitions,
			m.UsersFetched,
			m.FetchFailures,
		)
	}
	return m
}

func (m *Metrics) ActionDispatched(signature string) {
	if m == nil {
		return
	}
	m.Dispatched.WithLabelValues(signature).Inc()
}

func (m *Metrics) ActionUnsupported() {
	if m == nil {
		return
	}
	m.Unsupported.Inc()
}

func (m *Metrics) StatePublished(buffer string) {
	if m == nil {
		return
	}
	m.Published.WithLabelValues(buffer).Inc()
}

func (m *Metrics) BufferOverflow(buffer string) {
	if m == nil {
		return
	}
	m.Overflows.WithLabelValues(buffer).Inc()
}

func (m *Metrics) SubscriptionTransition(kind, state string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(kind, state).Inc()
}

func (m *Metrics) UsersFetch(n int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.FetchFailures.Inc()
		return
	}
	m.UsersFetched.Add(float64(n))
}
