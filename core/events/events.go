package events

import (
	"time"

	"github.com/gep-platform/assignd/core/model"
)

// ProposalEvent is published when an assignment is proposed to a partner.
type ProposalEvent struct {
	RequestID    string
	AssignmentID string
	PartnerID    string
	Score        float64
	Deadline     time.Time
}

// ResponseEvent is published for each partner response handled by the engine.
type ResponseEvent struct {
	AssignmentID string
	PartnerID    string
	Accepted     bool
	Stale        bool
}

// TransitionEvent is published for every assignment state change.
type TransitionEvent struct {
	AssignmentID string
	RequestID    string
	From         model.AssignmentStatus
	To           model.AssignmentStatus
	Reason       string
}

// EscalationEvent is published when a request cannot be fulfilled.
type EscalationEvent struct {
	RequestID string
	Reason    string
}
