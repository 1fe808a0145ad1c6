package metrics

import (
	"time"

	"github.com/gep-platform/assignd/core/model"
)

// ProposalResult represents a per-assignment proposal event to be recorded.
type ProposalResult struct {
	RequestID   string
	PartnerID   string
	Assignment  string
	ServiceType model.ServiceType
	Score       float64
	Rank        int
	Cost        float64
	ProposedAt  time.Time
}

// MetricsSink records proposal results for observability purposes.
type MetricsSink interface {
	RecordProposal(results []ProposalResult) error
}

// TransitionEvent captures one assignment state change.
type TransitionEvent struct {
	AssignmentID string
	RequestID    string
	From         model.AssignmentStatus
	To           model.AssignmentStatus
	Reason       string
	Time         time.Time
}

// TransitionRecorder records assignment state transitions.
type TransitionRecorder interface {
	RecordTransition(ev TransitionEvent) error
}

// EscalationEvent captures an unfulfillable request.
type EscalationEvent struct {
	RequestID string
	Reason    string
	Time      time.Time
}

// EscalationRecorder records escalations.
type EscalationRecorder interface {
	RecordEscalation(ev EscalationEvent) error
}

// ResponseLatency measures the time between proposal and partner response.
type ResponseLatency struct {
	AssignmentID string
	PartnerID    string
	Accepted     bool
	Latency      time.Duration
}

// LatencyRecorder records response latencies.
type LatencyRecorder interface {
	RecordResponseLatency(lat []ResponseLatency) error
}

// NopSink implements the sink interfaces with no-op methods.
type NopSink struct{}

func (NopSink) RecordProposal([]ProposalResult) error         { return nil }
func (NopSink) RecordTransition(TransitionEvent) error        { return nil }
func (NopSink) RecordEscalation(EscalationEvent) error        { return nil }
func (NopSink) RecordResponseLatency([]ResponseLatency) error { return nil }
