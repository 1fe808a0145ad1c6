package assign

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gep-platform/assignd/core/model"
)

func testWindow() model.TimeWindow {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return model.TimeWindow{Start: start, End: start.Add(13 * 24 * time.Hour)}
}

func snapshot(partnerID string, freeHours float64) model.AvailabilitySnapshot {
	return model.AvailabilitySnapshot{
		PartnerID: partnerID,
		Window:    testWindow(),
		Days:      []model.DayAvailability{{Date: testWindow().Start, FreeHours: freeHours}},
	}
}

func TestWeights_Validate(t *testing.T) {
	assert.NoError(t, DefaultWeights().Validate())
	err := Weights{Location: 0.9, Availability: 0.3, Cost: 0.2, Specialty: 0.1}.Validate()
	assert.Error(t, err)
	err = Weights{Location: 1.2, Availability: -0.4, Cost: 0.1, Specialty: 0.1}.Validate()
	assert.Error(t, err)
}

func TestWeightedScorer_RanksCloserCheaperFirst(t *testing.T) {
	cfg := Config{MaxDistanceKm: 600}
	cfg.SetDefaults()
	scorer, err := NewWeightedScorer(DefaultWeights(), cfg)
	require.NoError(t, err)

	req := model.Request{
		ID:             "req-1",
		ServiceType:    model.ServiceDoctor,
		Installation:   model.Location{City: "Athens", Lat: 37.9838, Lon: 23.7275},
		Window:         testWindow(),
		EstimatedHours: 16,
	}
	near := model.Partner{ID: "doc-near", Specialty: model.SpecialtyOccupationalDoctor, Home: model.Location{City: "Piraeus", Lat: 37.9420, Lon: 23.6465}, HourlyRate: 50, MaxWeeklyHours: 30}
	far := model.Partner{ID: "doc-far", Specialty: model.SpecialtyOccupationalDoctor, Home: model.Location{City: "Thessaloniki", Lat: 40.6401, Lon: 22.9444}, HourlyRate: 65, MaxWeeklyHours: 30}
	candidates := []Candidate{
		{Partner: far, Availability: snapshot(far.ID, 20), DistanceKm: far.Home.DistanceKm(req.Installation), NeededHours: 16},
		{Partner: near, Availability: snapshot(near.ID, 20), DistanceKm: near.Home.DistanceKm(req.Installation), NeededHours: 16},
	}

	ranked, err := scorer.Score(req, candidates)
	require.NoError(t, err)
	require.Equal(t, 2, ranked.Len())
	top, ok := ranked.Top()
	require.True(t, ok)
	assert.Equal(t, "doc-near", top.PartnerID)
	assert.Equal(t, 1, top.Rank)
	assert.Greater(t, top.Composite, ranked.Scores()[1].Composite)
	assert.InDelta(t, 1.0, top.Cost, 1e-9) // cheapest in pool
}

func TestWeightedScorer_Deterministic(t *testing.T) {
	cfg := Config{MaxDistanceKm: 600}
	cfg.SetDefaults()
	scorer, err := NewWeightedScorer(DefaultWeights(), cfg)
	require.NoError(t, err)

	req := model.Request{ID: "req-1", ServiceType: model.ServiceDoctor, Installation: model.Location{Lat: 38, Lon: 23.7}, Window: testWindow(), EstimatedHours: 10}
	var candidates []Candidate
	for _, id := range []string{"p3", "p1", "p2"} {
		p := model.Partner{ID: id, Specialty: model.SpecialtyOccupationalDoctor, Home: model.Location{Lat: 38.1, Lon: 23.8}, HourlyRate: 40, MaxWeeklyHours: 20}
		candidates = append(candidates, Candidate{Partner: p, Availability: snapshot(id, 12), DistanceKm: 14, NeededHours: 10})
	}

	first, err := scorer.Score(req, candidates)
	require.NoError(t, err)
	second, err := scorer.Score(req, candidates)
	require.NoError(t, err)
	assert.Equal(t, first.Scores(), second.Scores())
	// identical composites fall back to partner id ordering
	ids := []string{}
	for _, s := range first.Scores() {
		ids = append(ids, s.PartnerID)
	}
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids)
}

func TestWeightedScorer_SingleRatePoolCostScore(t *testing.T) {
	assert.Equal(t, 1.0, costScore(55, 55, 55))
	assert.Equal(t, 1.0, costScore(40, 40, 60))
	assert.Equal(t, 0.0, costScore(60, 40, 60))
}

func TestWeightedScorer_AdjacentSpecialtyPenalized(t *testing.T) {
	cfg := Config{MaxDistanceKm: 600, AdjacentSpecialtyCredit: 0.5}
	scorer, err := NewWeightedScorer(DefaultWeights(), cfg)
	require.NoError(t, err)

	req := model.Request{ID: "req-1", ServiceType: model.ServiceDoctor, Installation: model.Location{Lat: 38, Lon: 23.7}, Window: testWindow(), EstimatedHours: 10}
	exact := model.Partner{ID: "exact", Specialty: model.SpecialtyOccupationalDoctor, Home: model.Location{Lat: 38.1, Lon: 23.8}, HourlyRate: 40, MaxWeeklyHours: 20}
	adjacent := model.Partner{ID: "adjacent", Specialty: model.SpecialtyGeneralPractitioner, Home: model.Location{Lat: 38.1, Lon: 23.8}, HourlyRate: 40, MaxWeeklyHours: 20}
	candidates := []Candidate{
		{Partner: adjacent, Availability: snapshot(adjacent.ID, 12), DistanceKm: 14, NeededHours: 10},
		{Partner: exact, Availability: snapshot(exact.ID, 12), DistanceKm: 14, NeededHours: 10},
	}

	ranked, err := scorer.Score(req, candidates)
	require.NoError(t, err)
	top, _ := ranked.Top()
	assert.Equal(t, "exact", top.PartnerID)
	adj, ok := ranked.ByPartner("adjacent")
	require.True(t, ok)
	assert.Equal(t, 0.5, adj.Specialty)
	assert.Equal(t, 1.0, top.Specialty)
}

func TestWeightedScorer_EmptyPool(t *testing.T) {
	scorer, err := NewWeightedScorer(DefaultWeights(), Config{MaxDistanceKm: 100})
	require.NoError(t, err)
	ranked, err := scorer.Score(model.Request{ID: "req-1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, ranked.Len())
	_, ok := ranked.Top()
	assert.False(t, ok)
}
