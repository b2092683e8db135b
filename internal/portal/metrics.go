package portal

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cmmoran/gatecp/internal/logout"
)

const namespace = "gatecp_portal"

// Metrics uses its own registry so several servers can coexist in one process.
type Metrics struct {
	registry    *prometheus.Registry
	hops        *prometheus.CounterVec
	skipped     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	requests    *prometheus.CounterVec
	logins      *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		hops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logout_hops_total",
			Help:      "Logout navigations issued, by kind.",
		}, []string{"kind"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logout_skipped_services_total",
			Help:      "Services skipped during logout because their probe failed.",
		}, []string{"service_id"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logout_transitions_total",
			Help:      "Logout state machine transitions.",
		}, []string{"from", "to"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route pattern and status code.",
		}, []string{"route", "code"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_callbacks_total",
			Help:      "Authorization callbacks handled, by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(m.hops, m.skipped, m.transitions, m.requests, m.logins)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) transition(from, to logout.State) {
	m.transitions.WithLabelValues(from.String(), to.String()).Inc()
}

func (m *Metrics) observeHop(h logout.Hop) {
	kind := "service"
	if h.Kind == logout.HopEndSession {
		kind = "end_session"
	}
	m.hops.WithLabelValues(kind).Inc()
	for _, t := range h.Skipped {
		m.skipped.WithLabelValues(t.ID).Inc()
	}
}
