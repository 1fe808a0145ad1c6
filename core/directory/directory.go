// Package directory defines the read collaborators the engine consumes.
// Storage technology behind them is out of the engine's scope.
package directory

import (
	"context"

	"github.com/gep-platform/assignd/core/model"
)

// RequestSource resolves inspection requests by id.
type RequestSource interface {
	GetRequest(ctx context.Context, id string) (model.Request, error)
}

// PartnerDirectory lists partners that may serve a service type. The listing
// is a coarse pre-selection; hard constraints are applied by the engine.
type PartnerDirectory interface {
	ListEligiblePartners(ctx context.Context, t model.ServiceType) ([]model.Partner, error)
}

// AvailabilitySource returns a fresh availability snapshot for a partner over
// a window. Implementations must reflect bookings made by prior assignments.
type AvailabilitySource interface {
	GetAvailability(ctx context.Context, partnerID string, window model.TimeWindow) (model.AvailabilitySnapshot, error)
}

// AvailabilityCommitter receives the booked-hours delta after an accepted
// assignment. The engine never mutates the availability store directly.
type AvailabilityCommitter interface {
	CommitAvailabilityDelta(ctx context.Context, partnerID string, window model.TimeWindow, hoursBooked float64) error
}

// RequestUpdater propagates request lifecycle changes back to the owning
// system.
type RequestUpdater interface {
	SetRequestStatus(ctx context.Context, id string, status model.RequestStatus) error
}
