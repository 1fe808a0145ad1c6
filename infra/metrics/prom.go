package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/gep-platform/assignd/core/metrics"
)

// PromSink records assignment events in Prometheus metrics.
type PromSink struct {
	proposals   *prometheus.CounterVec
	transitions *prometheus.CounterVec
	escalations *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// NewPromSink registers assignment metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	proposals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_proposal_events_total",
		Help: "Total number of assignment proposal events",
	}, []string{"partner_id", "service_type"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_transition_events_total",
		Help: "Total number of assignment state transition events",
	}, []string{"to_state"})
	escalations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_escalation_events_total",
		Help: "Total number of unfulfillable request escalations",
	}, []string{"request_id"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "partner_response_seconds",
		Help:    "Time between proposal and partner response",
		Buckets: prometheus.ExponentialBuckets(60, 4, 10),
	}, []string{"partner_id", "accepted"})

	for _, c := range []struct {
		collector prometheus.Collector
		assign    func(prometheus.Collector)
	}{
		{proposals, func(c prometheus.Collector) { proposals = c.(*prometheus.CounterVec) }},
		{transitions, func(c prometheus.Collector) { transitions = c.(*prometheus.CounterVec) }},
		{escalations, func(c prometheus.Collector) { escalations = c.(*prometheus.CounterVec) }},
		{latency, func(c prometheus.Collector) { latency = c.(*prometheus.HistogramVec) }},
	} {
		if err := reg.Register(c.collector); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				c.assign(are.ExistingCollector)
			} else {
				return nil, err
			}
		}
	}

	return &PromSink{proposals: proposals, transitions: transitions, escalations: escalations, latency: latency}, nil
}

// RecordProposal increments the counter for each proposal.
func (s *PromSink) RecordProposal(res []coremetrics.ProposalResult) error {
	for _, r := range res {
		s.proposals.WithLabelValues(r.PartnerID, r.ServiceType.String()).Inc()
	}
	return nil
}

// RecordTransition increments the transition counter.
func (s *PromSink) RecordTransition(ev coremetrics.TransitionEvent) error {
	s.transitions.WithLabelValues(string(ev.To)).Inc()
	return nil
}

// RecordEscalation increments the escalation counter.
func (s *PromSink) RecordEscalation(ev coremetrics.EscalationEvent) error {
	s.escalations.WithLabelValues(ev.RequestID).Inc()
	return nil
}

// RecordResponseLatency records the response latency histogram.
func (s *PromSink) RecordResponseLatency(lat []coremetrics.ResponseLatency) error {
	for _, r := range lat {
		s.latency.WithLabelValues(r.PartnerID, strconv.FormatBool(r.Accepted)).Observe(r.Latency.Seconds())
	}
	return nil
}
