package model

import "time"

// AssignmentStatus is the state machine driving response tracking. proposed
// is the only non-terminal state the engine transitions out of; accepted can
// still reach completed externally.
type AssignmentStatus string

const (
	AssignmentProposed   AssignmentStatus = "proposed"
	AssignmentAccepted   AssignmentStatus = "accepted"
	AssignmentDeclined   AssignmentStatus = "declined"
	AssignmentExpired    AssignmentStatus = "expired"
	AssignmentSuperseded AssignmentStatus = "superseded"
	AssignmentCompleted  AssignmentStatus = "completed"
)

// Terminal reports whether the status admits no further engine transition.
func (s AssignmentStatus) Terminal() bool {
	switch s {
	case AssignmentDeclined, AssignmentExpired, AssignmentSuperseded, AssignmentCompleted:
		return true
	default:
		return false
	}
}

// Active reports whether the assignment still occupies its request.
func (s AssignmentStatus) Active() bool {
	return s == AssignmentProposed || s == AssignmentAccepted
}

// Assignment is a proposal of a request to a partner. Assignments are owned
// by the engine, mutated only through recorded state transitions and never
// deleted; superseded proposals stay in the history with terminal status.
type Assignment struct {
	ID               string           `json:"id"`
	RequestID        string           `json:"request_id"`
	PartnerID        string           `json:"partner_id"`
	Hours            float64          `json:"hours"`
	HourlyRate       float64          `json:"hourly_rate"`
	Cost             float64          `json:"cost"`
	Status           AssignmentStatus `json:"status"`
	Score            float64          `json:"score"`
	Rank             int              `json:"rank"`
	ResponseDeadline time.Time        `json:"response_deadline"`
	RespondedAt      time.Time        `json:"responded_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
