package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kotakee/kotakee-core/internal/action"
	"github.com/kotakee/kotakee-core/internal/home"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500

	// writeTimeout bounds the insert issued from the event path.
	writeTimeout = 5 * time.Second
)

const schema = `
CREATE TABLE IF NOT EXISTS action_history (
	id         TEXT PRIMARY KEY,
	room_id    INTEGER NOT NULL,
	action_id  INTEGER NOT NULL,
	old_state  INTEGER NOT NULL,
	new_state  INTEGER NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_action_history_created_at ON action_history(created_at);
`

// Entry is one recorded action-state transition.
type Entry struct {
	ID        string    `json:"id"`
	RoomID    int       `json:"roomId"`
	ActionID  action.ID `json:"actionId"`
	OldState  int       `json:"oldState"`
	NewState  int       `json:"newState"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store records action-state transitions in SQLite.
//
// Thread Safety: all methods are safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger Logger
}

// Logger defines the logging interface used by the store.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NewStore creates the store and ensures the schema exists.
func NewStore(db *sql.DB, logger Logger) (*Store, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Record inserts one transition.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO action_history (id, room_id, action_id, old_state, new_state, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.RoomID,
		int(entry.ActionID),
		entry.OldState,
		entry.NewState,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting action history: %w", err)
	}
	return nil
}

// List returns recent transitions, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, room_id, action_id, old_state, new_state, created_at
		 FROM action_history
		 ORDER BY created_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying action history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var entry Entry
		var actionID int
		var createdAt string
		if err := rows.Scan(&entry.ID, &entry.RoomID, &actionID, &entry.OldState, &entry.NewState, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning action history: %w", err)
		}
		entry.ActionID = action.ID(actionID)
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		entry.CreatedAt = ts
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating action history: %w", err)
	}
	return entries, nil
}

// Prune deletes entries older than the given duration and returns the number
// removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339Nano)
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM action_history WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting action history: %w", err)
	}
	return result.RowsAffected()
}

// Publish records action-state events. Satisfies home.EventSink; other event
// types are ignored. The insert runs in its own goroutine because sinks must
// not block the home's lock path; a failed write is logged and dropped.
func (s *Store) Publish(event home.Event) {
	if event.Type != home.EventActionState {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		err := s.Record(ctx, Entry{
			ID:        event.ID,
			RoomID:    event.RoomID,
			ActionID:  event.ActionID,
			OldState:  event.OldState,
			NewState:  event.NewState,
			CreatedAt: event.Timestamp,
		})
		if err != nil {
			s.logger.Warn("history record failed", "error", err)
		}
	}()
}
