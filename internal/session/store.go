package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/contract"
	_ "modernc.org/sqlite"
)

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id   TEXT PRIMARY KEY,
	phase        TEXT NOT NULL,
	difficulty   INTEGER NOT NULL,
	turn_id      INTEGER NOT NULL,
	outcome      TEXT NOT NULL,
	terminated   INTEGER NOT NULL DEFAULT 0,
	asked_json   TEXT NOT NULL,
	profile_json TEXT NOT NULL,
	topics_json  TEXT NOT NULL,
	flags_json   TEXT NOT NULL,
	last_action  TEXT,
	updated_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS session_turns (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	turn_idx    INTEGER NOT NULL,
	role        TEXT NOT NULL,
	content     TEXT NOT NULL,
	topic       TEXT,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE INDEX IF NOT EXISTS idx_session_turns
ON session_turns(session_id, turn_idx);
`

// #endregion

// #region store

// Store persists sessions in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion

// #region save

// Save upserts the session row and appends any turns past the stored count.
func (s *Store) Save(sess *Session) error {
	askedJSON, err := json.Marshal(sess.AskedQuestions())
	if err != nil {
		return fmt.Errorf("marshal asked: %w", err)
	}
	profileJSON, err := json.Marshal(sess.Profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	topicsJSON, err := json.Marshal(sess.Topics)
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}
	flagsJSON, err := json.Marshal(sess.Robustness)
	if err != nil {
		return fmt.Errorf("marshal flags: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	terminated := 0
	if sess.Terminated() {
		terminated = 1
	}
	_, err = tx.Exec(
		`INSERT INTO sessions
		 (session_id, phase, difficulty, turn_id, outcome, terminated,
		  asked_json, profile_json, topics_json, flags_json, last_action, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		  phase = excluded.phase,
		  difficulty = excluded.difficulty,
		  turn_id = excluded.turn_id,
		  outcome = excluded.outcome,
		  terminated = excluded.terminated,
		  asked_json = excluded.asked_json,
		  profile_json = excluded.profile_json,
		  topics_json = excluded.topics_json,
		  flags_json = excluded.flags_json,
		  last_action = excluded.last_action,
		  updated_at = excluded.updated_at`,
		sess.ID, string(sess.Phase), sess.Difficulty, sess.TurnID,
		string(sess.Outcome), terminated,
		string(askedJSON), string(profileJSON), string(topicsJSON), string(flagsJSON),
		string(sess.LastAction), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	var stored int
	if err := tx.QueryRow(
		`SELECT COUNT(*) FROM session_turns WHERE session_id = ?`, sess.ID,
	).Scan(&stored); err != nil {
		return fmt.Errorf("count turns: %w", err)
	}
	tail := sess.HistoryTail()
	base := sess.TurnID - len(tail) // absolute index of the first tail turn
	for i, turn := range tail {
		idx := base + i
		if idx < stored {
			continue
		}
		_, err := tx.Exec(
			`INSERT INTO session_turns (session_id, turn_idx, role, content, topic, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			sess.ID, idx, string(turn.Role), turn.Content,
			nullIfEmpty(turn.Topic), turn.Timestamp.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
	}

	return tx.Commit()
}

// #endregion

// #region load

// Load restores a session row and its recent turns.
func (s *Store) Load(sessionID string) (*Session, error) {
	var (
		phase, outcome, askedJSON, profileJSON, topicsJSON, flagsJSON string
		lastAction                                                    sql.NullString
		terminated                                                    int
	)
	sess := New()
	err := s.db.QueryRow(
		`SELECT session_id, phase, difficulty, turn_id, outcome, terminated,
		        asked_json, profile_json, topics_json, flags_json, last_action
		 FROM sessions WHERE session_id = ?`, sessionID,
	).Scan(&sess.ID, &phase, &sess.Difficulty, &sess.TurnID, &outcome, &terminated,
		&askedJSON, &profileJSON, &topicsJSON, &flagsJSON, &lastAction)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	sess.Phase = Phase(phase)
	sess.Outcome = Outcome(outcome)
	var asked []string
	if err := json.Unmarshal([]byte(askedJSON), &asked); err != nil {
		return nil, fmt.Errorf("unmarshal asked: %w", err)
	}
	for _, id := range asked {
		sess.MarkAsked(id)
	}
	if err := json.Unmarshal([]byte(profileJSON), &sess.Profile); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	if err := json.Unmarshal([]byte(topicsJSON), &sess.Topics); err != nil {
		return nil, fmt.Errorf("unmarshal topics: %w", err)
	}
	if err := json.Unmarshal([]byte(flagsJSON), &sess.Robustness); err != nil {
		return nil, fmt.Errorf("unmarshal flags: %w", err)
	}
	if lastAction.Valid {
		sess.LastAction = contract.ActionType(lastAction.String)
	}

	rows, err := s.db.Query(
		`SELECT role, content, topic, created_at FROM session_turns
		 WHERE session_id = ? ORDER BY turn_idx DESC LIMIT ?`,
		sessionID, DefaultHistoryTail,
	)
	if err != nil {
		return nil, fmt.Errorf("load turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var role string
		var topic sql.NullString
		var createdStr string
		if err := rows.Scan(&role, &t.Content, &topic, &createdStr); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Role = TurnRole(role)
		if topic.Valid {
			t.Topic = topic.String
		}
		t.Timestamp, _ = time.Parse(time.RFC3339Nano, createdStr)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Rows came newest-first; restore chronological order.
	for i := len(turns) - 1; i >= 0; i-- {
		sess.historyTail = append(sess.historyTail, turns[i])
	}

	if terminated == 1 {
		sess.terminated = true
	}
	return sess, nil
}

// SessionInfo is one row of the session listing.
type SessionInfo struct {
	ID        string  `json:"session_id"`
	Phase     Phase   `json:"phase"`
	Outcome   Outcome `json:"outcome"`
	TurnID    int     `json:"turn_id"`
	UpdatedAt string  `json:"updated_at"`
}

// ListSessions returns the most recently updated sessions.
func (s *Store) ListSessions(limit int) ([]SessionInfo, error) {
	rows, err := s.db.Query(
		`SELECT session_id, phase, outcome, turn_id, updated_at
		 FROM sessions ORDER BY updated_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var infos []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var phase, outcome string
		if err := rows.Scan(&info.ID, &phase, &outcome, &info.TurnID, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		info.Phase = Phase(phase)
		info.Outcome = Outcome(outcome)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// #endregion

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion
