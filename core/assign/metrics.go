package assign

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	responseLatency  *prometheus.HistogramVec
	proposalsTotal   *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
	escalationsTotal prometheus.Counter
	notifySuccess    prometheus.Counter
	notifyFailure    prometheus.Counter
	acceptanceRate   *prometheus.GaugeVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.HistogramVec, *prometheus.CounterVec, *prometheus.CounterVec, prometheus.Counter, prometheus.Counter, prometheus.Counter, *prometheus.GaugeVec) {
	lat := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assignment_response_latency_seconds",
			Help:    "Latency between proposal and partner response",
			Buckets: prometheus.ExponentialBuckets(60, 4, 10),
		},
		[]string{"service_type"},
	)
	prop := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assignments_proposed_total",
			Help: "Number of assignments proposed to partners",
		},
		[]string{"service_type"},
	)
	trans := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assignment_transitions_total",
			Help: "Number of assignment state transitions",
		},
		[]string{"to_state"},
	)
	esc := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "assignment_escalations_total",
			Help: "Number of requests escalated with no eligible candidate",
		},
	)
	suc := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_request_success_total",
			Help: "Number of successful notification requests",
		},
	)
	fail := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_request_failure_total",
			Help: "Number of failed notification requests",
		},
	)
	acc := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "assignment_acceptance_rate",
			Help: "Share of proposals accepted per service type",
		},
		[]string{"service_type"},
	)
	return lat, prop, trans, esc, suc, fail, acc
}

func init() {
	responseLatency, proposalsTotal, transitionsTotal, escalationsTotal, notifySuccess, notifyFailure, acceptanceRate = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers engine metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(responseLatency, proposalsTotal, transitionsTotal, escalationsTotal, notifySuccess, notifyFailure, acceptanceRate)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	responseLatency, proposalsTotal, transitionsTotal, escalationsTotal, notifySuccess, notifyFailure, acceptanceRate = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
