package transcript

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/contract"
)

// ErrFeedbackAttached is returned when a session already carries a final report.
var ErrFeedbackAttached = errors.New("final feedback already attached")

// #region schema

const transcriptSchema = `
CREATE TABLE IF NOT EXISTS transcript_entries (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	entry_idx   INTEGER NOT NULL,
	kind        TEXT NOT NULL,
	role        TEXT,
	content     TEXT NOT NULL,
	topic       TEXT,
	action      TEXT,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transcript_session
ON transcript_entries(session_id, entry_idx);

CREATE TABLE IF NOT EXISTS final_reports (
	session_id    TEXT PRIMARY KEY,
	feedback_json TEXT NOT NULL,
	rendered      TEXT NOT NULL,
	created_at    TEXT NOT NULL
);
`

// #endregion

// #region entry

// Kind distinguishes transcript entry types.
type Kind string

const (
	KindMessage  Kind = "message"
	KindNote     Kind = "note"
	KindDecision Kind = "decision"
	KindObserver Kind = "observer"
)

// Entry is one row of the full session transcript: candidate-visible
// messages interleaved with internal notes and decision provenance.
type Entry struct {
	Idx       int
	Kind      Kind
	Role      string
	Content   string
	Topic     string
	Action    string
	CreatedAt time.Time
}

// #endregion

// #region store

// Store persists the complete interview transcript. Unlike the bounded
// history tail fed to the roles, the transcript keeps every entry.
type Store struct {
	db *sql.DB
}

// NewStore initializes the transcript tables over an existing database.
func NewStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(transcriptSchema); err != nil {
		return nil, fmt.Errorf("create transcript tables: %w", err)
	}
	return &Store{db: db}, nil
}

// append writes one entry with the next monotone index for the session.
func (s *Store) append(sessionID string, kind Kind, role, content, topic, action string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRow(
		`SELECT COALESCE(MAX(entry_idx), -1) + 1 FROM transcript_entries WHERE session_id = ?`,
		sessionID,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("next entry index: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO transcript_entries (session_id, entry_idx, kind, role, content, topic, action, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, next, string(kind), nullIfEmpty(role), content,
		nullIfEmpty(topic), nullIfEmpty(action), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert transcript entry: %w", err)
	}
	return tx.Commit()
}

// Message records one candidate-visible turn.
func (s *Store) Message(sessionID, role, content, topic string) error {
	return s.append(sessionID, KindMessage, role, content, topic, "")
}

// Note records an internal annotation, e.g. an unverified-claim note.
// Never shown to the candidate.
func (s *Store) Note(sessionID, note string) error {
	return s.append(sessionID, KindNote, "", note, "", "")
}

// Observer records the accepted Observer payload for a turn, making recorded
// sessions exportable as replay fixtures.
func (s *Store) Observer(sessionID string, payload []byte) error {
	return s.append(sessionID, KindObserver, "", string(payload), "", "")
}

// Decision records provenance for one resolved policy step.
func (s *Store) Decision(sessionID, action, topic string, difficulty int, reason string) error {
	content := fmt.Sprintf("action=%s topic=%s difficulty=%d reason=%s", action, topic, difficulty, reason)
	return s.append(sessionID, KindDecision, "", content, topic, action)
}

// Load returns the full transcript for a session in order.
func (s *Store) Load(sessionID string) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT entry_idx, kind, COALESCE(role, ''), content, COALESCE(topic, ''), COALESCE(action, ''), created_at
		 FROM transcript_entries WHERE session_id = ? ORDER BY entry_idx`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var kind, created string
		if err := rows.Scan(&e.Idx, &kind, &e.Role, &e.Content, &e.Topic, &e.Action, &created); err != nil {
			return nil, fmt.Errorf("scan transcript entry: %w", err)
		}
		e.Kind = Kind(kind)
		e.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion

// #region final-report

// AttachFeedback stores the final report for a session exactly once.
func (s *Store) AttachFeedback(sessionID string, fb contract.FinalFeedback, rendered string) error {
	raw, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("marshal final feedback: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO final_reports (session_id, feedback_json, rendered, created_at)
		 VALUES (?, ?, ?, ?)`,
		sessionID, string(raw), rendered, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert final report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("final report rows: %w", err)
	}
	if n == 0 {
		return ErrFeedbackAttached
	}
	log.Printf("[TRANSCRIPT] session=%s final report stored", sessionID)
	return nil
}

// Feedback loads the stored final report, if one exists.
func (s *Store) Feedback(sessionID string) (contract.FinalFeedback, bool, error) {
	var raw string
	err := s.db.QueryRow(
		`SELECT feedback_json FROM final_reports WHERE session_id = ?`, sessionID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return contract.FinalFeedback{}, false, nil
	}
	if err != nil {
		return contract.FinalFeedback{}, false, fmt.Errorf("query final report: %w", err)
	}
	var fb contract.FinalFeedback
	if err := json.Unmarshal([]byte(raw), &fb); err != nil {
		return contract.FinalFeedback{}, false, fmt.Errorf("decode final report: %w", err)
	}
	return fb, true, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion
