package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no assessment exists for a session.
var ErrNotFound = errors.New("assessment not found")

type Store struct {
	db *pgxpool.Pool
}

// New wraps a pool. A nil pool gives a store that saves nothing and finds nothing.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Enabled reports whether a database is configured.
func (s *Store) Enabled() bool {
	return s != nil && s.db != nil
}

// Assessment is the recorded outcome of a finished interview.
type Assessment struct {
	SessionID    string    `json:"session_id"`
	JobRole      string    `json:"job_role"`
	Passed       bool      `json:"passed"`
	Feedback     string    `json:"feedback"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// SaveAssessment records the assessment for a session. Ending the same
// interview again replaces the previous record.
func (s *Store) SaveAssessment(ctx context.Context, a Assessment) error {
	if !s.Enabled() {
		return nil
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO assessments (session_id, job_role, passed, feedback, message_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id) DO UPDATE SET
			job_role = EXCLUDED.job_role,
			passed = EXCLUDED.passed,
			feedback = EXCLUDED.feedback,
			message_count = EXCLUDED.message_count,
			created_at = now()
	`, a.SessionID, a.JobRole, a.Passed, a.Feedback, a.MessageCount)
	return err
}

// GetAssessment returns the stored assessment for a session.
func (s *Store) GetAssessment(ctx context.Context, sessionID string) (*Assessment, error) {
	if !s.Enabled() {
		return nil, ErrNotFound
	}
	var a Assessment
	err := s.db.QueryRow(ctx, `
		SELECT session_id, job_role, passed, feedback, message_count, created_at
		FROM assessments
		WHERE session_id = $1
	`, sessionID).Scan(&a.SessionID, &a.JobRole, &a.Passed, &a.Feedback, &a.MessageCount, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Ping checks database connectivity. A store without a database is always healthy.
func (s *Store) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	return s.db.Ping(ctx)
}
