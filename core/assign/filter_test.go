package assign

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gep-platform/assignd/core/model"
)

type fakeAvailability struct {
	snapshots map[string]model.AvailabilitySnapshot
	failFor   map[string]bool
}

func (f *fakeAvailability) GetAvailability(_ context.Context, partnerID string, window model.TimeWindow) (model.AvailabilitySnapshot, error) {
	if f.failFor[partnerID] {
		return model.AvailabilitySnapshot{}, fmt.Errorf("calendar service unreachable")
	}
	s, ok := f.snapshots[partnerID]
	if !ok {
		return model.AvailabilitySnapshot{PartnerID: partnerID, Window: window}, nil
	}
	return s, nil
}

func filterFixtures() (model.Request, []model.Partner, *fakeAvailability) {
	req := model.Request{
		ID:             "req-1",
		ServiceType:    model.ServiceDoctor,
		Installation:   model.Location{City: "Athens", Lat: 37.9838, Lon: 23.7275},
		Window:         testWindow(),
		EstimatedHours: 16,
	}
	pool := []model.Partner{
		{ID: "ok", Specialty: model.SpecialtyOccupationalDoctor, Home: model.Location{Lat: 37.99, Lon: 23.73}, HourlyRate: 50, MaxWeeklyHours: 30, Active: true},
		{ID: "inactive", Specialty: model.SpecialtyOccupationalDoctor, Home: model.Location{Lat: 37.99, Lon: 23.73}, HourlyRate: 50, MaxWeeklyHours: 30, Active: false},
		{ID: "engineer", Specialty: model.SpecialtySafetyEngineer, Home: model.Location{Lat: 37.99, Lon: 23.73}, HourlyRate: 50, MaxWeeklyHours: 30, Active: true},
		{ID: "remote", Specialty: model.SpecialtyOccupationalDoctor, Home: model.Location{City: "Thessaloniki", Lat: 40.6401, Lon: 22.9444}, HourlyRate: 50, MaxWeeklyHours: 30, Active: true},
		{ID: "booked", Specialty: model.SpecialtyOccupationalDoctor, Home: model.Location{Lat: 37.99, Lon: 23.73}, HourlyRate: 50, MaxWeeklyHours: 30, Active: true},
	}
	avail := &fakeAvailability{
		snapshots: map[string]model.AvailabilitySnapshot{
			"ok":     snapshot("ok", 20),
			"remote": snapshot("remote", 20),
			"booked": snapshot("booked", 4),
		},
		failFor: map[string]bool{},
	}
	return req, pool, avail
}

func TestHardConstraintFilter_AppliesHardConstraints(t *testing.T) {
	req, pool, avail := filterFixtures()
	cfg := Config{MaxDistanceKm: 100}
	cfg.SetDefaults()
	f := NewHardConstraintFilter(avail, cfg)

	out, err := f.Filter(context.Background(), req, pool, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "ok", out[0].Partner.ID)
	assert.Equal(t, 16.0, out[0].NeededHours)
	assert.InDelta(t, 20.0, out[0].Availability.FreeHours(), 1e-9)
}

func TestHardConstraintFilter_ExclusionSet(t *testing.T) {
	req, pool, avail := filterFixtures()
	cfg := Config{MaxDistanceKm: 100}
	cfg.SetDefaults()
	f := NewHardConstraintFilter(avail, cfg)

	out, err := f.Filter(context.Background(), req, pool, map[string]struct{}{"ok": {}})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestHardConstraintFilter_BudgetCeiling(t *testing.T) {
	req, pool, avail := filterFixtures()
	req.MaxBudget = 500 // 16h * 50 = 800 exceeds it
	cfg := Config{MaxDistanceKm: 100}
	cfg.SetDefaults()

	out, err := NewHardConstraintFilter(avail, cfg).Filter(context.Background(), req, pool, nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	cfg.IgnoreBudgetCeiling = true
	out, err = NewHardConstraintFilter(avail, cfg).Filter(context.Background(), req, pool, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "ok", out[0].Partner.ID)
}

func TestHardConstraintFilter_WeeklyHoursCapNeededHours(t *testing.T) {
	req, pool, avail := filterFixtures()
	req.EstimatedHours = 200
	// window spans 2 weeks so a 30h/week partner can serve at most 60h
	avail.snapshots["ok"] = snapshot("ok", 80)
	cfg := Config{MaxDistanceKm: 100}
	cfg.SetDefaults()

	out, err := NewHardConstraintFilter(avail, cfg).Filter(context.Background(), req, pool, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 60.0, out[0].NeededHours)
}

func TestHardConstraintFilter_AvailabilityReadFailureAborts(t *testing.T) {
	req, pool, avail := filterFixtures()
	avail.failFor["ok"] = true
	cfg := Config{MaxDistanceKm: 100}
	cfg.SetDefaults()

	_, err := NewHardConstraintFilter(avail, cfg).Filter(context.Background(), req, pool, nil)
	require.Error(t, err)
	var du *DataUnavailableError
	assert.True(t, errors.As(err, &du))
	assert.Equal(t, "req-1", du.RequestID)
}

func TestHardConstraintFilter_AdjacentSpecialtyEligible(t *testing.T) {
	req, _, avail := filterFixtures()
	gp := model.Partner{ID: "gp", Specialty: model.SpecialtyGeneralPractitioner, Home: model.Location{Lat: 37.99, Lon: 23.73}, HourlyRate: 45, MaxWeeklyHours: 30, Active: true}
	avail.snapshots["gp"] = snapshot("gp", 20)
	cfg := Config{MaxDistanceKm: 100}
	cfg.SetDefaults()

	out, err := NewHardConstraintFilter(avail, cfg).Filter(context.Background(), req, []model.Partner{gp}, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "gp", out[0].Partner.ID)
}
