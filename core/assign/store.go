package assign

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gep-platform/assignd/core/model"
)

// AssignmentStore owns the assignment records. Transition is the
// single-writer gate: it applies a state change only when the assignment is
// still in the expected from-state, so concurrent accept/decline/expire
// attempts resolve to exactly one winner.
type AssignmentStore interface {
	Create(ctx context.Context, a model.Assignment) error
	Get(ctx context.Context, id string) (model.Assignment, error)
	// ActiveByRequest returns assignments in proposed or accepted state
	// for the request. The engine maintains at most one.
	ActiveByRequest(ctx context.Context, requestID string) ([]model.Assignment, error)
	// ListByRequest returns the full assignment history of a request,
	// oldest first.
	ListByRequest(ctx context.Context, requestID string) ([]model.Assignment, error)
	// ListProposedBefore returns proposed assignments whose response
	// deadline elapsed before t.
	ListProposedBefore(ctx context.Context, t time.Time) ([]model.Assignment, error)
	// Transition compare-and-sets the status from from to to, applying
	// mutate to the record under the same guard. It returns
	// ErrStaleTransition when the assignment already left the from-state.
	Transition(ctx context.Context, id string, from, to model.AssignmentStatus, mutate func(*model.Assignment)) (model.Assignment, error)
}

// MemoryAssignmentStore keeps assignments in memory, guarded by a mutex.
type MemoryAssignmentStore struct {
	mu   sync.RWMutex
	data map[string]model.Assignment
	seq  map[string]int // insertion order per id, for stable history listing
	next int
}

// NewMemoryAssignmentStore creates an empty store.
func NewMemoryAssignmentStore() *MemoryAssignmentStore {
	return &MemoryAssignmentStore{data: map[string]model.Assignment{}, seq: map[string]int{}}
}

func (s *MemoryAssignmentStore) Create(_ context.Context, a model.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[a.ID] = a
	s.seq[a.ID] = s.next
	s.next++
	return nil
}

func (s *MemoryAssignmentStore) Get(_ context.Context, id string) (model.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.data[id]
	if !ok {
		return model.Assignment{}, ErrNotFound
	}
	return a, nil
}

func (s *MemoryAssignmentStore) ActiveByRequest(_ context.Context, requestID string) ([]model.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []model.Assignment
	for _, a := range s.data {
		if a.RequestID == requestID && a.Status.Active() {
			res = append(res, a)
		}
	}
	s.sortBySeq(res)
	return res, nil
}

func (s *MemoryAssignmentStore) ListByRequest(_ context.Context, requestID string) ([]model.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []model.Assignment
	for _, a := range s.data {
		if a.RequestID == requestID {
			res = append(res, a)
		}
	}
	s.sortBySeq(res)
	return res, nil
}

func (s *MemoryAssignmentStore) ListProposedBefore(_ context.Context, t time.Time) ([]model.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []model.Assignment
	for _, a := range s.data {
		if a.Status == model.AssignmentProposed && a.ResponseDeadline.Before(t) {
			res = append(res, a)
		}
	}
	s.sortBySeq(res)
	return res, nil
}

func (s *MemoryAssignmentStore) Transition(_ context.Context, id string, from, to model.AssignmentStatus, mutate func(*model.Assignment)) (model.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.data[id]
	if !ok {
		return model.Assignment{}, ErrNotFound
	}
	if a.Status != from {
		return a, ErrStaleTransition
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	if mutate != nil {
		mutate(&a)
	}
	s.data[id] = a
	return a, nil
}

// sortBySeq orders assignments by insertion, callers hold at least RLock.
func (s *MemoryAssignmentStore) sortBySeq(res []model.Assignment) {
	sort.Slice(res, func(i, j int) bool {
		return s.seq[res[i].ID] < s.seq[res[j].ID]
	})
}
