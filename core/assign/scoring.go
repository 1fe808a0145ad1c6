package assign

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/gep-platform/assignd/core/model"
)

// Weights controls the relative importance of the scoring factors. The four
// weights must sum to exactly 1.0.
type Weights struct {
	Location     float64 `json:"location"`
	Availability float64 `json:"availability"`
	Cost         float64 `json:"cost"`
	Specialty    float64 `json:"specialty"`
}

// DefaultWeights returns the default factor weighting.
func DefaultWeights() Weights {
	return Weights{Location: 0.4, Availability: 0.3, Cost: 0.2, Specialty: 0.1}
}

const weightSumTolerance = 1e-9

// Validate fails fast when the weights do not sum to 1.0.
func (w Weights) Validate() error {
	sum := w.Location + w.Availability + w.Cost + w.Specialty
	if math.Abs(sum-1.0) > weightSumTolerance {
		return NewConfigError("weights must sum to 1.0, got %.6f", sum)
	}
	if w.Location < 0 || w.Availability < 0 || w.Cost < 0 || w.Specialty < 0 {
		return NewConfigError("weights must not be negative")
	}
	return nil
}

// Map returns the weights keyed by factor name, as recorded in audit runs.
func (w Weights) Map() map[string]float64 {
	return map[string]float64{
		"location":     w.Location,
		"availability": w.Availability,
		"cost":         w.Cost,
		"specialty":    w.Specialty,
	}
}

// vector returns the weights in factor order (location, availability, cost,
// specialty) for the composite dot product.
func (w Weights) vector() []float64 {
	return []float64{w.Location, w.Availability, w.Cost, w.Specialty}
}

// RankedList is the immutable, ordered output of a scoring pass.
type RankedList struct {
	RequestID string
	Weights   Weights
	scores    []model.CandidateScore
}

// Scores returns a copy of the ranked candidate scores, best first.
func (l RankedList) Scores() []model.CandidateScore {
	cp := make([]model.CandidateScore, len(l.scores))
	copy(cp, l.scores)
	return cp
}

// Len returns the number of ranked candidates.
func (l RankedList) Len() int { return len(l.scores) }

// Top returns the best-ranked candidate score.
func (l RankedList) Top() (model.CandidateScore, bool) {
	if len(l.scores) == 0 {
		return model.CandidateScore{}, false
	}
	return l.scores[0], true
}

// ByPartner returns the score of the given partner.
func (l RankedList) ByPartner(id string) (model.CandidateScore, bool) {
	for _, s := range l.scores {
		if s.PartnerID == id {
			return s, true
		}
	}
	return model.CandidateScore{}, false
}

// Scorer ranks filtered candidates for a request.
type Scorer interface {
	Score(req model.Request, candidates []Candidate) (RankedList, error)
}

// WeightedScorer computes four normalized sub-scores per candidate and ranks
// by their weighted sum. Scoring is pure and deterministic: the same inputs
// always yield the same ordering and the same scores.
type WeightedScorer struct {
	Weights        Weights
	MaxDistanceKm  float64
	AdjacentCredit float64
}

// NewWeightedScorer validates the weights and returns a scorer.
func NewWeightedScorer(w Weights, cfg Config) (*WeightedScorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &WeightedScorer{
		Weights:        w,
		MaxDistanceKm:  cfg.MaxDistanceKm,
		AdjacentCredit: cfg.AdjacentSpecialtyCredit,
	}, nil
}

// Score implements Scorer.
func (s *WeightedScorer) Score(req model.Request, candidates []Candidate) (RankedList, error) {
	if err := s.Weights.Validate(); err != nil {
		return RankedList{}, err
	}
	list := RankedList{RequestID: req.ID, Weights: s.Weights}
	if len(candidates) == 0 {
		return list, nil
	}

	rates := make([]float64, len(candidates))
	for i, c := range candidates {
		rates[i] = c.Partner.HourlyRate
	}
	minRate, maxRate := floats.Min(rates), floats.Max(rates)
	required := req.ServiceType.RequiredSpecialty()
	wv := s.Weights.vector()

	scores := make([]model.CandidateScore, 0, len(candidates))
	for _, c := range candidates {
		sub := []float64{
			s.locationScore(c.DistanceKm),
			s.availabilityScore(c.Availability.FreeHours(), c.NeededHours),
			costScore(c.Partner.HourlyRate, minRate, maxRate),
			c.Partner.Specialty.Compatibility(required, s.AdjacentCredit),
		}
		scores = append(scores, model.CandidateScore{
			PartnerID:    c.Partner.ID,
			Location:     sub[0],
			Availability: sub[1],
			Cost:         sub[2],
			Specialty:    sub[3],
			Composite:    floats.Dot(wv, sub),
			DistanceKm:   c.DistanceKm,
			HourlyRate:   c.Partner.HourlyRate,
			FreeHours:    c.Availability.FreeHours(),
		})
	}

	// Ties break on availability, then rate, then partner id so that two
	// runs over the same inputs order candidates identically.
	sort.Slice(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.Composite != b.Composite {
			return a.Composite > b.Composite
		}
		if a.Availability != b.Availability {
			return a.Availability > b.Availability
		}
		if a.HourlyRate != b.HourlyRate {
			return a.HourlyRate < b.HourlyRate
		}
		return a.PartnerID < b.PartnerID
	})
	for i := range scores {
		scores[i].Rank = i + 1
	}
	list.scores = scores
	return list, nil
}

func (s *WeightedScorer) locationScore(distanceKm float64) float64 {
	if s.MaxDistanceKm <= 0 {
		return 1
	}
	score := 1 - distanceKm/s.MaxDistanceKm
	return clamp01(score)
}

func (s *WeightedScorer) availabilityScore(freeHours, neededHours float64) float64 {
	if neededHours <= 0 {
		return 0
	}
	return clamp01(freeHours / neededHours)
}

// costScore normalizes the hourly rate against the candidate pool's rate
// range. A pool with a single rate scores 1.0 for everyone.
func costScore(rate, minRate, maxRate float64) float64 {
	if maxRate == minRate {
		return 1
	}
	return clamp01((maxRate - rate) / (maxRate - minRate))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
