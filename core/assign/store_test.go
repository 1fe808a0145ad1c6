package assign

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gep-platform/assignd/core/model"
)

func TestMemoryAssignmentStore_TransitionCAS(t *testing.T) {
	store := NewMemoryAssignmentStore()
	ctx := context.Background()
	a := model.Assignment{ID: "a1", RequestID: "req-1", PartnerID: "p1", Status: model.AssignmentProposed}
	require.NoError(t, store.Create(ctx, a))

	updated, err := store.Transition(ctx, "a1", model.AssignmentProposed, model.AssignmentAccepted, func(x *model.Assignment) {
		x.RespondedAt = time.Now()
	})
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentAccepted, updated.Status)
	assert.False(t, updated.RespondedAt.IsZero())

	// the losing transition sees the settled record
	stale, err := store.Transition(ctx, "a1", model.AssignmentProposed, model.AssignmentExpired, nil)
	require.ErrorIs(t, err, ErrStaleTransition)
	assert.Equal(t, model.AssignmentAccepted, stale.Status)
}

func TestMemoryAssignmentStore_ConcurrentTransitionsOneWinner(t *testing.T) {
	store := NewMemoryAssignmentStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, model.Assignment{ID: "a1", RequestID: "req-1", Status: model.AssignmentProposed}))

	targets := []model.AssignmentStatus{model.AssignmentAccepted, model.AssignmentDeclined, model.AssignmentExpired}
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for _, to := range targets {
		wg.Add(1)
		go func(to model.AssignmentStatus) {
			defer wg.Done()
			if _, err := store.Transition(ctx, "a1", model.AssignmentProposed, to, nil); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else if !errors.Is(err, ErrStaleTransition) {
				t.Errorf("unexpected error: %v", err)
			}
		}(to)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestMemoryAssignmentStore_ListProposedBefore(t *testing.T) {
	store := NewMemoryAssignmentStore()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, store.Create(ctx, model.Assignment{ID: "overdue", RequestID: "r1", Status: model.AssignmentProposed, ResponseDeadline: now.Add(-time.Hour)}))
	require.NoError(t, store.Create(ctx, model.Assignment{ID: "fresh", RequestID: "r2", Status: model.AssignmentProposed, ResponseDeadline: now.Add(time.Hour)}))
	require.NoError(t, store.Create(ctx, model.Assignment{ID: "settled", RequestID: "r3", Status: model.AssignmentAccepted, ResponseDeadline: now.Add(-time.Hour)}))

	overdue, err := store.ListProposedBefore(ctx, now)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "overdue", overdue[0].ID)
}

func TestMemoryAssignmentStore_GetNotFound(t *testing.T) {
	store := NewMemoryAssignmentStore()
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
