package session

import (
	"errors"
	"time"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/contract"
)

// #region phase

// Phase is the state-machine phase of a session.
type Phase string

const (
	PhaseInit            Phase = "INIT"
	PhaseAsk             Phase = "ASK"
	PhaseAwaitAnswer     Phase = "AWAIT_ANSWER"
	PhaseEvaluate        Phase = "EVALUATE"
	PhaseDecide          Phase = "DECIDE"
	PhaseClarify         Phase = "CLARIFY"
	PhaseSimplify        Phase = "SIMPLIFY"
	PhaseRefocus         Phase = "REFOCUS"
	PhaseAnswerCandidate Phase = "ANSWER_CANDIDATE"
	PhaseWrap            Phase = "WRAP"
	PhaseEnd             Phase = "END"
)

// phaseTable is the only legal set of phase transitions.
var phaseTable = map[Phase][]Phase{
	PhaseInit:            {PhaseAsk, PhaseEnd},
	PhaseAsk:             {PhaseAwaitAnswer},
	PhaseClarify:         {PhaseAwaitAnswer},
	PhaseSimplify:        {PhaseAwaitAnswer},
	PhaseRefocus:         {PhaseAwaitAnswer},
	PhaseAnswerCandidate: {PhaseAwaitAnswer},
	PhaseAwaitAnswer:     {PhaseEvaluate, PhaseWrap, PhaseEnd},
	PhaseEvaluate:        {PhaseDecide},
	PhaseDecide:          {PhaseAsk, PhaseClarify, PhaseSimplify, PhaseRefocus, PhaseAnswerCandidate, PhaseWrap},
	PhaseWrap:            {PhaseEnd},
	PhaseEnd:             {},
}

// CanTransition reports whether from → to is in the phase table.
func CanTransition(from, to Phase) bool {
	for _, p := range phaseTable[from] {
		if p == to {
			return true
		}
	}
	return false
}

// ActionPhase maps a resolved action type to the phase that renders it.
func ActionPhase(action contract.ActionType) Phase {
	switch action {
	case contract.ActionClarify:
		return PhaseClarify
	case contract.ActionSimplify:
		return PhaseSimplify
	case contract.ActionRefocus:
		return PhaseRefocus
	case contract.ActionAnswerCandidate:
		return PhaseAnswerCandidate
	case contract.ActionWrap, contract.ActionEnd:
		return PhaseWrap
	default:
		return PhaseAsk
	}
}

// #endregion

// #region outcome

// Outcome records how a session ended.
type Outcome string

const (
	OutcomeOpen      Outcome = "open"
	OutcomeCompleted Outcome = "completed"
	OutcomeAbandoned Outcome = "abandoned"
)

// #endregion

// #region turn

// TurnRole identifies who produced a turn.
type TurnRole string

const (
	RoleInterviewer TurnRole = "interviewer"
	RoleCandidate   TurnRole = "candidate"
)

// Turn is one utterance in the session history. Immutable once appended.
type Turn struct {
	Role      TurnRole
	Content   string
	Topic     string
	Timestamp time.Time
}

// #endregion

// #region errors

// ErrSessionClosed is returned when input arrives after termination.
// No state is mutated.
var ErrSessionClosed = errors.New("session closed")

// ErrBadTransition is returned for a phase change outside the phase table.
var ErrBadTransition = errors.New("phase transition not allowed")

// #endregion
