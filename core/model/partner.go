package model

import "fmt"

// Specialty classifies the professional qualification of a partner.
type Specialty int

const (
	SpecialtyUnknown Specialty = iota
	SpecialtyOccupationalDoctor
	SpecialtyGeneralPractitioner
	SpecialtySafetyEngineer
	SpecialtyMechanicalEngineer
)

// String returns a human-readable representation of the specialty.
func (s Specialty) String() string {
	switch s {
	case SpecialtyOccupationalDoctor:
		return "occupational_doctor"
	case SpecialtyGeneralPractitioner:
		return "general_practitioner"
	case SpecialtySafetyEngineer:
		return "safety_engineer"
	case SpecialtyMechanicalEngineer:
		return "mechanical_engineer"
	default:
		return "unknown"
	}
}

// adjacent maps each required specialty to the specialties that may cover it
// with partial credit.
var adjacent = map[Specialty][]Specialty{
	SpecialtyOccupationalDoctor: {SpecialtyGeneralPractitioner},
	SpecialtySafetyEngineer:     {SpecialtyMechanicalEngineer},
}

// Covers reports whether a partner with specialty s can serve a request that
// requires the given specialty, either exactly or as an adjacent profession.
func (s Specialty) Covers(required Specialty) bool {
	if s == required {
		return true
	}
	for _, a := range adjacent[required] {
		if s == a {
			return true
		}
	}
	return false
}

// Compatibility returns 1 for an exact specialty match, credit for an
// adjacent specialty and 0 otherwise.
func (s Specialty) Compatibility(required Specialty, credit float64) float64 {
	if s == required {
		return 1
	}
	for _, a := range adjacent[required] {
		if s == a {
			return credit
		}
	}
	return 0
}

// Partner is a service provider eligible for assignments. Partner records are
// externally owned and treated as immutable during an optimization run.
type Partner struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Specialty      Specialty `json:"specialty"`
	Home           Location  `json:"home"`
	HourlyRate     float64   `json:"hourly_rate"`
	MaxWeeklyHours float64   `json:"max_weekly_hours"`
	Active         bool      `json:"active"`
}

// Validate checks that the partner record is sound.
func (p Partner) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("partner id must not be empty")
	}
	if p.HourlyRate < 0 {
		return fmt.Errorf("partner %s: hourly rate must not be negative", p.ID)
	}
	if p.MaxWeeklyHours < 0 {
		return fmt.Errorf("partner %s: max weekly hours must not be negative", p.ID)
	}
	return nil
}
