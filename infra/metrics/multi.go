package metrics

import coremetrics "github.com/gep-platform/assignd/core/metrics"

// MultiSink fans out assignment events to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordProposal forwards the record to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordProposal(res []coremetrics.ProposalResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordProposal(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordTransition forwards transition events when supported by the sink.
func (m *MultiSink) RecordTransition(ev coremetrics.TransitionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.TransitionRecorder); ok {
			if err := rec.RecordTransition(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordEscalation forwards escalation events when supported by the sink.
func (m *MultiSink) RecordEscalation(ev coremetrics.EscalationEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.EscalationRecorder); ok {
			if err := rec.RecordEscalation(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordResponseLatency forwards latency metrics when supported by the sink.
func (m *MultiSink) RecordResponseLatency(lat []coremetrics.ResponseLatency) error {
	for _, s := range m.Sinks {
		if lr, ok := s.(coremetrics.LatencyRecorder); ok {
			if err := lr.RecordResponseLatency(lat); err != nil {
				return err
			}
		}
	}
	return nil
}
