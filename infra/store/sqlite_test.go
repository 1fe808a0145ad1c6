package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gep-platform/assignd/core/assign"
	"github.com/gep-platform/assignd/core/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteAssignmentStore {
	t.Helper()
	s, err := NewSQLiteAssignmentStore(filepath.Join(t.TempDir(), "assignments.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testAssignment(id, requestID string) model.Assignment {
	now := time.Now().Truncate(time.Millisecond)
	return model.Assignment{
		ID:               id,
		RequestID:        requestID,
		PartnerID:        "p1",
		Hours:            16,
		HourlyRate:       50,
		Cost:             800,
		Status:           model.AssignmentProposed,
		Score:            0.87,
		Rank:             1,
		ResponseDeadline: now.Add(24 * time.Hour),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestSQLiteAssignmentStore_CreateGet(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	a := testAssignment("a1", "req-1")
	require.NoError(t, s.Create(ctx, a))

	got, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, a.RequestID, got.RequestID)
	assert.Equal(t, a.Status, got.Status)
	assert.Equal(t, a.Cost, got.Cost)
	assert.True(t, a.ResponseDeadline.Equal(got.ResponseDeadline))
	assert.True(t, got.RespondedAt.IsZero())

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, assign.ErrNotFound)
}

func TestSQLiteAssignmentStore_TransitionCAS(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, testAssignment("a1", "req-1")))

	now := time.Now()
	updated, err := s.Transition(ctx, "a1", model.AssignmentProposed, model.AssignmentAccepted, func(x *model.Assignment) {
		x.RespondedAt = now
	})
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentAccepted, updated.Status)

	stale, err := s.Transition(ctx, "a1", model.AssignmentProposed, model.AssignmentExpired, nil)
	require.ErrorIs(t, err, assign.ErrStaleTransition)
	assert.Equal(t, model.AssignmentAccepted, stale.Status)

	got, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentAccepted, got.Status)
	assert.False(t, got.RespondedAt.IsZero())
}

func TestSQLiteAssignmentStore_ConcurrentTransitionsOneWinner(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, testAssignment("a1", "req-1")))

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for _, to := range []model.AssignmentStatus{model.AssignmentAccepted, model.AssignmentDeclined, model.AssignmentExpired} {
		wg.Add(1)
		go func(to model.AssignmentStatus) {
			defer wg.Done()
			if _, err := s.Transition(ctx, "a1", model.AssignmentProposed, to, nil); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(to)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestSQLiteAssignmentStore_Listing(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	first := testAssignment("a1", "req-1")
	first.CreatedAt = time.Now().Add(-2 * time.Hour)
	first.ResponseDeadline = time.Now().Add(-time.Hour)
	require.NoError(t, s.Create(ctx, first))
	second := testAssignment("a2", "req-1")
	require.NoError(t, s.Create(ctx, second))
	other := testAssignment("b1", "req-2")
	require.NoError(t, s.Create(ctx, other))

	history, err := s.ListByRequest(ctx, "req-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "a1", history[0].ID)
	assert.Equal(t, "a2", history[1].ID)

	active, err := s.ActiveByRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Len(t, active, 2)

	overdue, err := s.ListProposedBefore(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "a1", overdue[0].ID)

	_, err = s.Transition(ctx, "a1", model.AssignmentProposed, model.AssignmentExpired, nil)
	require.NoError(t, err)
	active, err = s.ActiveByRequest(ctx, "req-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "a2", active[0].ID)
}
