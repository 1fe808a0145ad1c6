package assign

import (
	"context"

	"github.com/gep-platform/assignd/core/directory"
	"github.com/gep-platform/assignd/core/model"
)

// Candidate is a partner that survived hard-constraint filtering for a
// request, together with the data gathered while filtering.
type Candidate struct {
	Partner      model.Partner
	Availability model.AvailabilitySnapshot
	DistanceKm   float64
	NeededHours  float64
}

// CandidateFilter reduces the partner pool to the candidates eligible for a
// request. An empty result is a valid outcome, not an error.
type CandidateFilter interface {
	Filter(ctx context.Context, req model.Request, pool []model.Partner, excluded map[string]struct{}) ([]Candidate, error)
}

// HardConstraintFilter applies the hard eligibility constraints: specialty
// class, active flag, exclusion set, sufficient free hours in the window,
// travel distance and, unless disabled, the request budget ceiling.
type HardConstraintFilter struct {
	Availability directory.AvailabilitySource
	Config       Config
}

// NewHardConstraintFilter builds a filter reading availability snapshots
// from the given source.
func NewHardConstraintFilter(src directory.AvailabilitySource, cfg Config) *HardConstraintFilter {
	return &HardConstraintFilter{Availability: src, Config: cfg}
}

// Filter implements CandidateFilter. Availability is read fresh for every
// run; a failed read aborts the run with a DataUnavailableError.
func (f *HardConstraintFilter) Filter(ctx context.Context, req model.Request, pool []model.Partner, excluded map[string]struct{}) ([]Candidate, error) {
	required := req.ServiceType.RequiredSpecialty()
	var out []Candidate
	for _, p := range pool {
		if !p.Active {
			continue
		}
		if _, ok := excluded[p.ID]; ok {
			continue
		}
		if !p.Specialty.Covers(required) {
			continue
		}
		dist := p.Home.DistanceKm(req.Installation)
		if dist > f.Config.MaxDistanceKm {
			continue
		}
		needed := req.NeededHours(p.MaxWeeklyHours)
		if needed <= 0 {
			continue
		}
		if !f.Config.IgnoreBudgetCeiling && req.MaxBudget > 0 && needed*p.HourlyRate > req.MaxBudget {
			continue
		}
		snap, err := f.Availability.GetAvailability(ctx, p.ID, req.Window)
		if err != nil {
			return nil, dataUnavailable(req.ID, "get availability for partner "+p.ID, err)
		}
		if snap.FreeHours() < needed {
			continue
		}
		out = append(out, Candidate{Partner: p, Availability: snap, DistanceKm: dist, NeededHours: needed})
	}
	return out, nil
}
