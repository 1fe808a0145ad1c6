// Package store provides assignment store and directory implementations
// backing the engine: an embedded SQLite store for durable assignment
// history and an in-memory directory used by tests and the demo CLI.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gep-platform/assignd/core/assign"
	"github.com/gep-platform/assignd/core/model"
)

// SQLiteAssignmentStore persists assignments in a SQLite database. The
// compare-and-set transition is a conditional UPDATE on the status column;
// RowsAffected decides the winner when transitions race.
type SQLiteAssignmentStore struct {
	db *sql.DB
}

// NewSQLiteAssignmentStore opens or creates the database and ensures schema.
func NewSQLiteAssignmentStore(path string) (*SQLiteAssignmentStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS assignments (
        id TEXT PRIMARY KEY,
        request_id TEXT NOT NULL,
        partner_id TEXT NOT NULL,
        hours REAL,
        hourly_rate REAL,
        cost REAL,
        status TEXT NOT NULL,
        score REAL,
        rank INTEGER,
        response_deadline INTEGER,
        responded_at INTEGER,
        created_at INTEGER,
        updated_at INTEGER
    );
    CREATE INDEX IF NOT EXISTS idx_assignments_request ON assignments(request_id);
    CREATE INDEX IF NOT EXISTS idx_assignments_status ON assignments(status);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteAssignmentStore{db: db}, nil
}

func (s *SQLiteAssignmentStore) Create(ctx context.Context, a model.Assignment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assignments (id, request_id, partner_id, hours, hourly_rate, cost, status, score, rank, response_deadline, responded_at, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.RequestID, a.PartnerID, a.Hours, a.HourlyRate, a.Cost, string(a.Status),
		a.Score, a.Rank, a.ResponseDeadline.UnixNano(), timeToInt(a.RespondedAt),
		a.CreatedAt.UnixNano(), a.UpdatedAt.UnixNano())
	return err
}

func (s *SQLiteAssignmentStore) Get(ctx context.Context, id string) (model.Assignment, error) {
	row := s.db.QueryRowContext(ctx, selectCols+` WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Assignment{}, assign.ErrNotFound
	}
	return a, err
}

func (s *SQLiteAssignmentStore) ActiveByRequest(ctx context.Context, requestID string) ([]model.Assignment, error) {
	return s.list(ctx, ` WHERE request_id = ? AND status IN ('proposed','accepted') ORDER BY created_at`, requestID)
}

func (s *SQLiteAssignmentStore) ListByRequest(ctx context.Context, requestID string) ([]model.Assignment, error) {
	return s.list(ctx, ` WHERE request_id = ? ORDER BY created_at`, requestID)
}

func (s *SQLiteAssignmentStore) ListProposedBefore(ctx context.Context, t time.Time) ([]model.Assignment, error) {
	return s.list(ctx, ` WHERE status = 'proposed' AND response_deadline < ? ORDER BY created_at`, t.UnixNano())
}

// Transition applies the state change only when the row still carries the
// expected status. The losing writer gets ErrStaleTransition together with
// the current record.
func (s *SQLiteAssignmentStore) Transition(ctx context.Context, id string, from, to model.AssignmentStatus, mutate func(*model.Assignment)) (model.Assignment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return model.Assignment{}, err
	}
	if a.Status != from {
		return a, assign.ErrStaleTransition
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	if mutate != nil {
		mutate(&a)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE assignments SET status = ?, responded_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), timeToInt(a.RespondedAt), a.UpdatedAt.UnixNano(), id, string(from))
	if err != nil {
		return model.Assignment{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Assignment{}, err
	}
	if n == 0 {
		cur, gerr := s.Get(ctx, id)
		if gerr != nil {
			return model.Assignment{}, gerr
		}
		return cur, assign.ErrStaleTransition
	}
	return a, nil
}

// Close closes the underlying database.
func (s *SQLiteAssignmentStore) Close() error { return s.db.Close() }

const selectCols = `SELECT id, request_id, partner_id, hours, hourly_rate, cost, status, score, rank, response_deadline, responded_at, created_at, updated_at FROM assignments`

func (s *SQLiteAssignmentStore) list(ctx context.Context, where string, args ...any) ([]model.Assignment, error) {
	rows, err := s.db.QueryContext(ctx, selectCols+where, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row scanner) (model.Assignment, error) {
	var a model.Assignment
	var status string
	var deadline, responded, created, updated int64
	err := row.Scan(&a.ID, &a.RequestID, &a.PartnerID, &a.Hours, &a.HourlyRate, &a.Cost,
		&status, &a.Score, &a.Rank, &deadline, &responded, &created, &updated)
	if err != nil {
		return model.Assignment{}, err
	}
	a.Status = model.AssignmentStatus(status)
	a.ResponseDeadline = intToTime(deadline)
	a.RespondedAt = intToTime(responded)
	a.CreatedAt = intToTime(created)
	a.UpdatedAt = intToTime(updated)
	return a, nil
}

func timeToInt(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func intToTime(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(0, v)
}
