package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gep-platform/assignd/core/model"
)

func sampleRecords(base time.Time) []Record {
	run := model.OptimizationRun{
		ID:        "run-1",
		RequestID: "req-1",
		Timestamp: base,
		Weights:   map[string]float64{"location": 0.4, "availability": 0.3, "cost": 0.2, "specialty": 0.1},
		Scores: []model.CandidateScore{
			{PartnerID: "p1", Composite: 0.9, Rank: 1},
			{PartnerID: "p2", Composite: 0.7, Rank: 2},
		},
		SelectedPartnerID: "p1",
	}
	return []Record{
		RunRecord(run),
		TransitionRecord(base.Add(time.Minute), Transition{
			AssignmentID: "a1", RequestID: "req-1",
			From: model.AssignmentProposed, To: model.AssignmentDeclined, Reason: "partner declined",
		}),
		TransitionRecord(base.Add(2*time.Minute), Transition{
			AssignmentID: "a2", RequestID: "req-2",
			From: model.AssignmentProposed, To: model.AssignmentAccepted, Reason: "partner accepted",
		}),
	}
}

func runStoreTests(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	for _, rec := range sampleRecords(base) {
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := store.Query(ctx, Query{})
	if err != nil {
		t.Fatalf("query all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records got %d", len(all))
	}

	byReq, err := store.Query(ctx, Query{RequestID: "req-1"})
	if err != nil {
		t.Fatalf("query by request: %v", err)
	}
	if len(byReq) != 2 {
		t.Fatalf("expected 2 records for req-1 got %d", len(byReq))
	}
	if byReq[0].Kind != KindRun || byReq[0].Run == nil || byReq[0].Run.SelectedPartnerID != "p1" {
		t.Errorf("run record not preserved: %+v", byReq[0])
	}
	if byReq[1].Kind != KindTransition || byReq[1].Transition == nil || byReq[1].Transition.To != model.AssignmentDeclined {
		t.Errorf("transition record not preserved: %+v", byReq[1])
	}

	runs, err := store.Query(ctx, Query{Kind: KindRun})
	if err != nil {
		t.Fatalf("query by kind: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run record got %d", len(runs))
	}

	windowed, err := store.Query(ctx, Query{Start: base.Add(30 * time.Second)})
	if err != nil {
		t.Fatalf("query by window: %v", err)
	}
	if len(windowed) != 2 {
		t.Fatalf("expected 2 records after start filter got %d", len(windowed))
	}
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, NewMemoryStore())
}

func TestJSONLStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	store, err := NewJSONLStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	runStoreTests(t, store)
}

func TestRotatingJSONLStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 1, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	runStoreTests(t, store)
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	runStoreTests(t, store)
}
