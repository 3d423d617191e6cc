package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "callrouting", Name: "events_received_total", Help: "Number of webhook events received by event type."},
		[]string{"type"},
	)
	CallsRedirected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "callrouting", Name: "calls_redirected_total", Help: "Number of incoming-call events handled, by outcome."},
		[]string{"outcome"},
	)
	RegistryOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "callrouting", Name: "registry_operations_total", Help: "Number of user registry operations by op and outcome."},
		[]string{"op", "outcome"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "callrouting", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "callrouting", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(EventsReceived)
	reg.MustRegister(CallsRedirected)
	reg.MustRegister(RegistryOps)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
