// Package audit persists the decision trail of the engine: every
// optimization run and every assignment state transition. Stores are strictly
// append-only; nothing is ever updated or deleted.
package audit

import (
	"context"
	"time"

	"github.com/gep-platform/assignd/core/model"
)

// RecordKind discriminates the record union.
type RecordKind string

const (
	KindRun        RecordKind = "run"
	KindTransition RecordKind = "transition"
)

// Transition captures one assignment state change.
type Transition struct {
	AssignmentID string                 `json:"assignment_id"`
	RequestID    string                 `json:"request_id"`
	From         model.AssignmentStatus `json:"from"`
	To           model.AssignmentStatus `json:"to"`
	Reason       string                 `json:"reason"`
}

// Record is one entry in the audit trail.
type Record struct {
	Timestamp  time.Time              `json:"timestamp"`
	Kind       RecordKind             `json:"kind"`
	RequestID  string                 `json:"request_id"`
	Run        *model.OptimizationRun `json:"run,omitempty"`
	Transition *Transition            `json:"transition,omitempty"`
}

// RunRecord builds a Record for an optimization run.
func RunRecord(run model.OptimizationRun) Record {
	return Record{Timestamp: run.Timestamp, Kind: KindRun, RequestID: run.RequestID, Run: &run}
}

// TransitionRecord builds a Record for an assignment state change.
func TransitionRecord(ts time.Time, tr Transition) Record {
	return Record{Timestamp: ts, Kind: KindTransition, RequestID: tr.RequestID, Transition: &tr}
}

// Query defines filters for retrieving records.
type Query struct {
	Start     time.Time
	End       time.Time
	RequestID string
	Kind      RecordKind
}

// Matches reports whether the record passes the query filters.
func (q Query) Matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.RequestID != "" && r.RequestID != q.RequestID {
		return false
	}
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}
