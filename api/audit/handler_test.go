package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	coreaudit "github.com/gep-platform/assignd/core/audit"
	"github.com/gep-platform/assignd/core/model"
)

func TestHandler_AuthAndFilters(t *testing.T) {
	store := coreaudit.NewMemoryStore()
	ctx := context.Background()
	if err := store.Append(ctx, coreaudit.TransitionRecord(time.Now(), coreaudit.Transition{
		AssignmentID: "a1",
		RequestID:    "req-1",
		From:         model.AssignmentProposed,
		To:           model.AssignmentAccepted,
		Reason:       "partner accepted",
	})); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, coreaudit.RunRecord(model.OptimizationRun{
		ID:        "run-1",
		RequestID: "req-2",
		Timestamp: time.Now(),
	})); err != nil {
		t.Fatalf("append: %v", err)
	}
	h := NewHandler(store, "tok")

	req := httptest.NewRequest("GET", "/api/audit?request_id=req-1", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out []coreaudit.Record
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 1 || out[0].Transition == nil || out[0].Transition.AssignmentID != "a1" {
		t.Fatalf("unexpected records: %+v", out)
	}

	// kind filter
	req = httptest.NewRequest("GET", "/api/audit?kind=run", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	out = nil
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 1 || out[0].Kind != coreaudit.KindRun {
		t.Fatalf("unexpected records: %+v", out)
	}

	// bad kind
	req = httptest.NewRequest("GET", "/api/audit?kind=bogus", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}

	// unauthorized
	req = httptest.NewRequest("GET", "/api/audit", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}
