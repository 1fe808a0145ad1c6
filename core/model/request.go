package model

import (
	"fmt"
	"time"
)

// ServiceType identifies the kind of service a customer request asks for.
type ServiceType int

const (
	ServiceDoctor ServiceType = iota
	ServiceEngineer
)

// String returns a human-readable representation of the service type.
func (t ServiceType) String() string {
	switch t {
	case ServiceDoctor:
		return "doctor"
	case ServiceEngineer:
		return "engineer"
	default:
		return "unknown"
	}
}

// RequiredSpecialty returns the partner specialty class a service type demands.
func (t ServiceType) RequiredSpecialty() Specialty {
	switch t {
	case ServiceDoctor:
		return SpecialtyOccupationalDoctor
	case ServiceEngineer:
		return SpecialtySafetyEngineer
	default:
		return SpecialtyUnknown
	}
}

// RequestStatus tracks the externally visible lifecycle of a request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAssigned  RequestStatus = "assigned"
	RequestCompleted RequestStatus = "completed"
	RequestCancelled RequestStatus = "cancelled"
)

// TimeWindow is the inclusive date range a request must be serviced in.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the number of calendar days covered by the window.
func (w TimeWindow) Days() int {
	if w.End.Before(w.Start) {
		return 0
	}
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// Weeks returns the window length in weeks, rounded up, never below one.
func (w TimeWindow) Weeks() int {
	d := w.Days()
	if d <= 0 {
		return 0
	}
	return (d + 6) / 7
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Request represents a customer inspection request to be covered by a partner.
type Request struct {
	ID                 string        `json:"id"`
	ServiceType        ServiceType   `json:"service_type"`
	Installation       Location      `json:"installation"`
	EmployeeCoverage   int           `json:"employee_coverage"`
	Window             TimeWindow    `json:"window"`
	EstimatedHours     float64       `json:"estimated_hours"`
	MaxBudget          float64       `json:"max_budget"` // 0 means no ceiling
	PreferredPartnerID string        `json:"preferred_partner_id,omitempty"`
	Status             RequestStatus `json:"status"`
}

// Validate checks that the request can be processed at all.
func (r Request) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("request id must not be empty")
	}
	if r.EstimatedHours <= 0 {
		return fmt.Errorf("request %s: estimated hours must be positive", r.ID)
	}
	if r.Window.End.Before(r.Window.Start) {
		return fmt.Errorf("request %s: window end before start", r.ID)
	}
	return nil
}

// NeededHours derives the hours a single partner would be booked for: the
// estimate, bounded by what the partner may legally work over the window.
func (r Request) NeededHours(maxWeeklyHours float64) float64 {
	h := r.EstimatedHours
	if maxWeeklyHours > 0 {
		if cap := maxWeeklyHours * float64(r.Window.Weeks()); cap < h {
			h = cap
		}
	}
	return h
}
