// Package notify defines the outbound notification contract of the engine.
// Delivery mechanism (email, SMS, push) is external.
package notify

import (
	"context"
	"time"
)

// Notifier emits notification requests to partners and escalations to
// operators. Implementations must be safe for concurrent use.
type Notifier interface {
	// RequestNotification asks the external delivery system to inform the
	// partner about a proposed assignment and its response deadline. It
	// returns the command identifier used for delivery tracking.
	RequestNotification(ctx context.Context, partnerID, assignmentID string, deadline time.Time) (string, error)

	// RequestEscalation reports a request that no eligible candidate can
	// serve.
	RequestEscalation(ctx context.Context, requestID, reason string) error
}
