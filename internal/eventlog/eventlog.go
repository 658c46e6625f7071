package eventlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EventType represents the type of interview event
type EventType string

const (
	EventSessionStarted      EventType = "session_started"
	EventAnswerSubmitted     EventType = "answer_submitted"
	EventTranscriptionEmpty  EventType = "transcription_empty"
	EventQuestionGenerated   EventType = "question_generated"
	EventAssessmentCompleted EventType = "assessment_completed"
	EventProviderError       EventType = "provider_error"
)

// Logger provides async event logging to the database
type Logger struct {
	db *pgxpool.Pool
}

// New creates a new event logger. A nil pool disables logging.
func New(db *pgxpool.Pool) *Logger {
	return &Logger{db: db}
}

// Log writes an event to the database synchronously
func (l *Logger) Log(ctx context.Context, sessionID string, eventType EventType, data map[string]any) error {
	if l == nil || l.db == nil || sessionID == "" {
		return nil // Silently skip if no DB or session ID
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		dataJSON = []byte("{}")
	}

	_, err = l.db.Exec(ctx, `
		INSERT INTO interview_events (session_id, event_type, event_data)
		VALUES ($1, $2, $3)
	`, sessionID, string(eventType), dataJSON)

	return err
}

// LogAsync logs an event without blocking the caller
func (l *Logger) LogAsync(sessionID string, eventType EventType, data map[string]any) {
	if l == nil || l.db == nil || sessionID == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = l.Log(ctx, sessionID, eventType, data)
	}()
}

// Event is a stored interview event.
type Event struct {
	Type      EventType       `json:"event_type"`
	Data      json.RawMessage `json:"event_data"`
	CreatedAt time.Time       `json:"created_at"`
}

// List returns the events of one session in insertion order.
func (l *Logger) List(ctx context.Context, sessionID string) ([]Event, error) {
	if l == nil || l.db == nil {
		return nil, nil
	}
	rows, err := l.db.Query(ctx, `
		SELECT event_type, event_data, created_at
		FROM interview_events
		WHERE session_id = $1
		ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e  Event
			et string
		)
		if err := rows.Scan(&et, &e.Data, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = EventType(et)
		events = append(events, e)
	}
	return events, rows.Err()
}
