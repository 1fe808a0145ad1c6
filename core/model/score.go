package model

import "time"

// CandidateScore holds the per-factor sub-scores and the composite score of
// one candidate within an optimization run. Scores are immutable once
// produced and retained for audit.
type CandidateScore struct {
	PartnerID    string  `json:"partner_id"`
	Location     float64 `json:"location"`
	Cost         float64 `json:"cost"`
	Availability float64 `json:"availability"`
	Specialty    float64 `json:"specialty"`
	Composite    float64 `json:"composite"`
	Rank         int     `json:"rank"`

	// Raw inputs recorded so the decision can be reconstructed without
	// re-running the algorithm.
	DistanceKm float64 `json:"distance_km"`
	HourlyRate float64 `json:"hourly_rate"`
	FreeHours  float64 `json:"free_hours"`
}

// OptimizationRun is the append-only audit artifact of one scoring pass.
type OptimizationRun struct {
	ID                string             `json:"id"`
	RequestID         string             `json:"request_id"`
	Timestamp         time.Time          `json:"timestamp"`
	Weights           map[string]float64 `json:"weights"`
	Scores            []CandidateScore   `json:"scores"`
	SelectedPartnerID string             `json:"selected_partner_id,omitempty"`
	Excluded          []string           `json:"excluded,omitempty"`
}
