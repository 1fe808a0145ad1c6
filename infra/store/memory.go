package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/gep-platform/assignd/core/model"
)

// MemoryDirectory implements the read collaborators over in-memory fixtures.
// It doubles as the availability committer: accepted bookings reduce the
// free hours returned by later snapshots, preserving the freshness
// invariant.
type MemoryDirectory struct {
	mu           sync.RWMutex
	requests     map[string]model.Request
	partners     map[string]model.Partner
	availability map[string]model.AvailabilitySnapshot
}

// NewMemoryDirectory creates an empty directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		requests:     map[string]model.Request{},
		partners:     map[string]model.Partner{},
		availability: map[string]model.AvailabilitySnapshot{},
	}
}

// PutRequest registers or replaces a request.
func (d *MemoryDirectory) PutRequest(r model.Request) {
	d.mu.Lock()
	d.requests[r.ID] = r
	d.mu.Unlock()
}

// PutPartner registers or replaces a partner.
func (d *MemoryDirectory) PutPartner(p model.Partner) {
	d.mu.Lock()
	d.partners[p.ID] = p
	d.mu.Unlock()
}

// PutAvailability registers the snapshot returned for a partner.
func (d *MemoryDirectory) PutAvailability(s model.AvailabilitySnapshot) {
	d.mu.Lock()
	d.availability[s.PartnerID] = s
	d.mu.Unlock()
}

func (d *MemoryDirectory) GetRequest(_ context.Context, id string) (model.Request, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.requests[id]
	if !ok {
		return model.Request{}, fmt.Errorf("request %s not found", id)
	}
	return r, nil
}

func (d *MemoryDirectory) ListEligiblePartners(_ context.Context, t model.ServiceType) ([]model.Partner, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	required := t.RequiredSpecialty()
	var res []model.Partner
	for _, p := range d.partners {
		if p.Specialty.Covers(required) {
			res = append(res, p)
		}
	}
	return res, nil
}

func (d *MemoryDirectory) GetAvailability(_ context.Context, partnerID string, window model.TimeWindow) (model.AvailabilitySnapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.availability[partnerID]
	if !ok {
		return model.AvailabilitySnapshot{PartnerID: partnerID, Window: window}, nil
	}
	return s, nil
}

// CommitAvailabilityDelta books hours against the partner's snapshot,
// consuming free hours day by day.
func (d *MemoryDirectory) CommitAvailabilityDelta(_ context.Context, partnerID string, _ model.TimeWindow, hoursBooked float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.availability[partnerID]
	if !ok {
		return fmt.Errorf("availability for partner %s not found", partnerID)
	}
	remaining := hoursBooked
	for i := range s.Days {
		if remaining <= 0 {
			break
		}
		take := s.Days[i].FreeHours
		if take > remaining {
			take = remaining
		}
		s.Days[i].FreeHours -= take
		s.Days[i].BookedHours += take
		remaining -= take
	}
	d.availability[partnerID] = s
	return nil
}

// SetRequestStatus updates the request lifecycle state.
func (d *MemoryDirectory) SetRequestStatus(_ context.Context, id string, status model.RequestStatus) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.requests[id]
	if !ok {
		return fmt.Errorf("request %s not found", id)
	}
	r.Status = status
	d.requests[id] = r
	return nil
}
