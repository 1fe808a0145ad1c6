package audit

import (
	"encoding/json"
	"net/http"
	"time"

	coreaudit "github.com/gep-platform/assignd/core/audit"
)

// NewHandler returns an HTTP handler exposing audit records via GET /api/audit.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
func NewHandler(store coreaudit.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		q := coreaudit.Query{}
		if s := r.URL.Query().Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := r.URL.Query().Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		q.RequestID = r.URL.Query().Get("request_id")
		if k := r.URL.Query().Get("kind"); k != "" {
			switch coreaudit.RecordKind(k) {
			case coreaudit.KindRun, coreaudit.KindTransition:
				q.Kind = coreaudit.RecordKind(k)
			default:
				http.Error(w, "unknown kind", http.StatusBadRequest)
				return
			}
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
