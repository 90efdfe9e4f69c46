package skills

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/contract"
)

// #region schema

const skillEventsSchema = `
CREATE TABLE IF NOT EXISTS skill_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	topic       TEXT NOT NULL,
	status      TEXT NOT NULL,
	evidence    TEXT,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_skill_events_session
ON skill_events(session_id, seq);
`

// #endregion

// #region store

// EventStore persists the append-only skill event log in SQLite.
type EventStore struct {
	db *sql.DB
}

// NewEventStore initializes the skill_events table and returns a store.
func NewEventStore(db *sql.DB) (*EventStore, error) {
	if _, err := db.Exec(skillEventsSchema); err != nil {
		return nil, fmt.Errorf("create skill_events table: %w", err)
	}
	return &EventStore{db: db}, nil
}

// Append writes new events for a session starting after fromSeq.
// Events already persisted are never rewritten.
func (s *EventStore) Append(sessionID string, events []Event, fromSeq int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, ev := range events {
		if ev.Seq <= fromSeq {
			continue
		}
		_, err := tx.Exec(
			`INSERT INTO skill_events (session_id, seq, topic, status, evidence, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			sessionID, ev.Seq, ev.Topic, string(ev.Status),
			nullIfEmpty(ev.Evidence), ev.CreatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert skill event: %w", err)
		}
	}
	return tx.Commit()
}

// Load reads a session's event log and rebuilds the matrix projection.
func (s *EventStore) Load(sessionID string) (*Matrix, error) {
	rows, err := s.db.Query(
		`SELECT seq, topic, status, evidence, created_at
		 FROM skill_events WHERE session_id = ? ORDER BY seq`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("load skill events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var status string
		var evidence sql.NullString
		var createdStr string
		if err := rows.Scan(&ev.Seq, &ev.Topic, &status, &evidence, &createdStr); err != nil {
			return nil, fmt.Errorf("scan skill event: %w", err)
		}
		ev.Status = contract.SkillStatus(status)
		if evidence.Valid {
			ev.Evidence = evidence.String
		}
		ev.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return Replay(events), nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion
