package session

import (
	"fmt"
	"sort"
	"time"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/contract"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/skills"
	"github.com/google/uuid"
)

// #region limits

const (
	MinDifficulty = 1
	MaxDifficulty = 5

	// DefaultHistoryTail bounds the in-memory history; oldest turns evict.
	DefaultHistoryTail = 16
)

// #endregion

// #region profile

// Profile is the merged candidate profile seeded by the Extractor.
type Profile struct {
	Name        string
	Level       contract.Level
	Position    string
	Skills      []string
	Confidence  contract.FieldConfidence
	Assumptions []string
}

// MergeProfile merges a fresh extraction into the current profile,
// overwriting each field only when the new confidence is strictly higher.
// Assumptions accumulate.
func MergeProfile(cur Profile, next contract.ExtractorOutput) Profile {
	out := cur
	if next.Confidence.Name > cur.Confidence.Name && next.Name != "" {
		out.Name = next.Name
		out.Confidence.Name = next.Confidence.Name
	}
	if next.Confidence.Level > cur.Confidence.Level && next.Level != "" {
		out.Level = next.Level
		out.Confidence.Level = next.Confidence.Level
	}
	if next.Confidence.Position > cur.Confidence.Position && next.Position != "" {
		out.Position = next.Position
		out.Confidence.Position = next.Confidence.Position
	}
	if next.Confidence.Skills > cur.Confidence.Skills && len(next.Skills) > 0 {
		out.Skills = append([]string(nil), next.Skills...)
		out.Confidence.Skills = next.Confidence.Skills
	}
	out.Assumptions = append(out.Assumptions, next.Assumptions...)
	return out
}

// #endregion

// #region topic-state

// TopicState tracks topic rotation for repetition guards.
type TopicState struct {
	CurrentTopic string
	LastTopics   []string
	Coverage     map[string]int
	PromptHashes []string
}

// #endregion

// #region session

// Session is the per-candidate mutable record. One Session exists per active
// interaction; it is owned by the orchestrator and mutated only through
// validated role outputs merged by the policy step.
type Session struct {
	ID         string
	Phase      Phase
	Difficulty int
	TurnID     int
	Outcome    Outcome

	askedQuestions map[string]bool
	historyTail    []Turn
	maxTail        int

	Robustness contract.Robustness
	Skills     *skills.Matrix
	Profile    Profile
	Topics     TopicState
	LastAction contract.ActionType

	terminated bool
}

// New creates a fresh session in INIT at the minimum difficulty.
func New() *Session {
	return &Session{
		ID:             uuid.New().String(),
		Phase:          PhaseInit,
		Difficulty:     MinDifficulty,
		Outcome:        OutcomeOpen,
		askedQuestions: make(map[string]bool),
		maxTail:        DefaultHistoryTail,
		Skills:         skills.NewMatrix(),
		Profile:        Profile{Level: contract.LevelUnknown},
		Topics:         TopicState{Coverage: make(map[string]int)},
	}
}

// #endregion

// #region transitions

// Transition moves the session to a new phase, enforcing the phase table.
func (s *Session) Transition(to Phase) error {
	if s.terminated && to != PhaseEnd {
		return ErrSessionClosed
	}
	if !CanTransition(s.Phase, to) {
		return fmt.Errorf("%w: %s → %s", ErrBadTransition, s.Phase, to)
	}
	s.Phase = to
	return nil
}

// Terminate flips the monotone terminated flag and freezes the outcome.
// A second call is a no-op; the flag never reverses.
func (s *Session) Terminate(outcome Outcome) {
	if s.terminated {
		return
	}
	s.terminated = true
	s.Outcome = outcome
	s.Phase = PhaseEnd
}

// Terminated reports whether the session has ended.
func (s *Session) Terminated() bool {
	return s.terminated
}

// #endregion

// #region history

// AppendTurn adds a turn to the bounded history tail. Turns are immutable
// once appended; only the oldest are evicted when the bound is exceeded.
func (s *Session) AppendTurn(role TurnRole, content, topic string) error {
	if s.terminated {
		return ErrSessionClosed
	}
	s.TurnID++
	s.historyTail = append(s.historyTail, Turn{
		Role:      role,
		Content:   content,
		Topic:     topic,
		Timestamp: time.Now().UTC(),
	})
	if len(s.historyTail) > s.maxTail {
		s.historyTail = s.historyTail[len(s.historyTail)-s.maxTail:]
	}
	return nil
}

// HistoryTail returns a copy of the bounded history.
func (s *Session) HistoryTail() []Turn {
	out := make([]Turn, len(s.historyTail))
	copy(out, s.historyTail)
	return out
}

// LastInterviewerMessage returns the most recent interviewer turn content.
func (s *Session) LastInterviewerMessage() string {
	for i := len(s.historyTail) - 1; i >= 0; i-- {
		if s.historyTail[i].Role == RoleInterviewer {
			return s.historyTail[i].Content
		}
	}
	return ""
}

// #endregion

// #region asked-questions

// MarkAsked records a question id as asked. The set only grows.
func (s *Session) MarkAsked(questionID string) {
	if questionID == "" {
		return
	}
	s.askedQuestions[questionID] = true
}

// WasAsked reports whether a question id was already asked.
func (s *Session) WasAsked(questionID string) bool {
	return s.askedQuestions[questionID]
}

// AskedQuestions returns the asked set sorted for stable output.
func (s *Session) AskedQuestions() []string {
	out := make([]string, 0, len(s.askedQuestions))
	for id := range s.askedQuestions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// #endregion

// #region difficulty

// ApplyDifficultyDelta shifts difficulty by delta, clamped to [1,5].
func (s *Session) ApplyDifficultyDelta(delta int) int {
	s.Difficulty = ClampDifficulty(s.Difficulty + delta)
	return s.Difficulty
}

// ClampDifficulty bounds a difficulty value to [1,5].
func ClampDifficulty(d int) int {
	if d < MinDifficulty {
		return MinDifficulty
	}
	if d > MaxDifficulty {
		return MaxDifficulty
	}
	return d
}

// #endregion
