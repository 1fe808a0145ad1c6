package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func window(days int) TimeWindow {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return TimeWindow{Start: start, End: start.Add(time.Duration(days-1) * 24 * time.Hour)}
}

func TestTimeWindow_DaysAndWeeks(t *testing.T) {
	assert.Equal(t, 1, window(1).Days())
	assert.Equal(t, 1, window(1).Weeks())
	assert.Equal(t, 7, window(7).Days())
	assert.Equal(t, 1, window(7).Weeks())
	assert.Equal(t, 8, window(8).Days())
	assert.Equal(t, 2, window(8).Weeks())

	inverted := TimeWindow{Start: time.Now(), End: time.Now().Add(-time.Hour)}
	assert.Equal(t, 0, inverted.Days())
	assert.Equal(t, 0, inverted.Weeks())
}

func TestRequest_NeededHours(t *testing.T) {
	req := Request{EstimatedHours: 100, Window: window(14)} // two weeks
	assert.Equal(t, 60.0, req.NeededHours(30))              // capped at 2 * 30
	assert.Equal(t, 100.0, req.NeededHours(80))
	assert.Equal(t, 100.0, req.NeededHours(0)) // no weekly cap
}

func TestRequest_Validate(t *testing.T) {
	valid := Request{ID: "r1", EstimatedHours: 8, Window: window(7)}
	assert.NoError(t, valid.Validate())

	missing := valid
	missing.ID = ""
	assert.Error(t, missing.Validate())

	zero := valid
	zero.EstimatedHours = 0
	assert.Error(t, zero.Validate())

	inverted := valid
	inverted.Window = TimeWindow{Start: time.Now(), End: time.Now().Add(-time.Hour)}
	assert.Error(t, inverted.Validate())
}

func TestServiceType_RequiredSpecialty(t *testing.T) {
	assert.Equal(t, SpecialtyOccupationalDoctor, ServiceDoctor.RequiredSpecialty())
	assert.Equal(t, SpecialtySafetyEngineer, ServiceEngineer.RequiredSpecialty())
}
