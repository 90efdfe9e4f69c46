package skills

import (
	"sort"
	"time"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/contract"
)

// #region types

// Event is one appended skill assessment. The log is append-only; the
// current matrix is a projection derived from it.
type Event struct {
	Seq       int
	Topic     string
	Status    contract.SkillStatus
	Evidence  string
	CreatedAt time.Time
}

// Entry is the live projection for one topic. At most one Entry exists per
// topic; status is last-write-wins, evidence is retained for audit.
type Entry struct {
	Topic    string
	Status   contract.SkillStatus
	Evidence []string
}

// #endregion

// #region matrix

// Matrix is the per-session skill model: an append-only event log plus a
// derived topic projection. Not safe for concurrent use; each session is a
// single-writer state machine.
type Matrix struct {
	log     []Event
	entries map[string]*Entry
}

// NewMatrix returns an empty skill matrix.
func NewMatrix() *Matrix {
	return &Matrix{entries: make(map[string]*Entry)}
}

// #endregion

// #region merge

// Merge applies validated Observer skill updates to the matrix.
// Merging the same update twice yields the same state as merging it once:
// an update identical to the topic's current status and latest evidence is
// a no-op rather than a duplicate event.
func (m *Matrix) Merge(updates []contract.SkillUpdate) {
	for _, u := range updates {
		if u.Topic == "" {
			continue
		}
		if m.isDuplicate(u) {
			continue
		}
		ev := Event{
			Seq:       len(m.log) + 1,
			Topic:     u.Topic,
			Status:    u.Status,
			Evidence:  u.Evidence,
			CreatedAt: time.Now().UTC(),
		}
		m.log = append(m.log, ev)
		m.project(ev)
	}
}

func (m *Matrix) isDuplicate(u contract.SkillUpdate) bool {
	cur, ok := m.entries[u.Topic]
	if !ok || cur.Status != u.Status {
		return false
	}
	if u.Evidence == "" {
		return true
	}
	return len(cur.Evidence) > 0 && cur.Evidence[len(cur.Evidence)-1] == u.Evidence
}

func (m *Matrix) project(ev Event) {
	entry, ok := m.entries[ev.Topic]
	if !ok {
		entry = &Entry{Topic: ev.Topic}
		m.entries[ev.Topic] = entry
	}
	entry.Status = ev.Status
	if ev.Evidence != "" {
		entry.Evidence = append(entry.Evidence, ev.Evidence)
	}
}

// Replay rebuilds the projection from a stored event log.
func Replay(events []Event) *Matrix {
	m := NewMatrix()
	for _, ev := range events {
		m.log = append(m.log, ev)
		m.project(ev)
	}
	return m
}

// #endregion

// #region queries

// Version is the number of events applied so far.
func (m *Matrix) Version() int {
	return len(m.log)
}

// Log returns a copy of the append-only event log.
func (m *Matrix) Log() []Event {
	out := make([]Event, len(m.log))
	copy(out, m.log)
	return out
}

// Get returns the live entry for a topic, or nil.
func (m *Matrix) Get(topic string) *Entry {
	return m.entries[topic]
}

// Entries returns all live entries sorted by topic.
func (m *Matrix) Entries() []Entry {
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })
	return out
}

// ClosedTopics returns topics with a confirmed or gap status. The policy
// uses this set to avoid re-asking settled topics.
func (m *Matrix) ClosedTopics() []string {
	var out []string
	for topic, e := range m.entries {
		if e.Status == contract.StatusConfirmed || e.Status == contract.StatusGap {
			out = append(out, topic)
		}
	}
	sort.Strings(out)
	return out
}

// Counts returns the number of confirmed, gap, and uncertain topics.
func (m *Matrix) Counts() (confirmed, gaps, uncertain int) {
	for _, e := range m.entries {
		switch e.Status {
		case contract.StatusConfirmed:
			confirmed++
		case contract.StatusGap:
			gaps++
		case contract.StatusUncertain:
			uncertain++
		}
	}
	return
}

// #endregion
