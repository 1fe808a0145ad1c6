package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockNotifier is a simple notifier used in tests.
type MockNotifier struct {
	Notifications map[string]string // partnerID -> assignmentID
	Escalations   map[string]string // requestID -> reason
	FailPartners  map[string]bool
	mu            sync.Mutex
}

// NewMockNotifier creates a new MockNotifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{
		Notifications: make(map[string]string),
		Escalations:   make(map[string]string),
		FailPartners:  make(map[string]bool),
	}
}

// RequestNotification records the call or returns an error if configured to
// fail for the partner.
func (m *MockNotifier) RequestNotification(_ context.Context, partnerID, assignmentID string, _ time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPartners[partnerID] {
		return "", fmt.Errorf("publish failed")
	}
	m.Notifications[partnerID] = assignmentID
	return fmt.Sprintf("cmd-%s", partnerID), nil
}

// RequestEscalation records the escalation.
func (m *MockNotifier) RequestEscalation(_ context.Context, requestID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Escalations[requestID] = reason
	return nil
}

// NotificationCount returns the number of recorded notifications.
func (m *MockNotifier) NotificationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Notifications)
}

// EscalationCount returns the number of recorded escalations.
func (m *MockNotifier) EscalationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Escalations)
}
