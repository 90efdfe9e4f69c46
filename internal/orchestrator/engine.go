package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/contract"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/policy"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/report"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/roles"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/session"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/skills"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/transcript"
)

// ErrUnknownSession is returned for a session id the engine has never seen.
var ErrUnknownSession = errors.New("unknown session")

// #region engine

// Roles bundles the four reasoning roles plus the optional fact checker.
type Roles struct {
	Observer      *roles.Observer
	Interviewer   *roles.Interviewer
	Extractor     *roles.Extractor
	HiringManager *roles.HiringManager
	FactChecker   *roles.FactChecker
}

// Engine is the top-level coordinator: it owns the sessions, drives the
// Observer/policy/Interviewer cycle per candidate turn, and hands terminated
// sessions to the finalizer. All role outputs pass contract validation
// before any session state is touched.
type Engine struct {
	registry   *registry
	store      *session.Store
	skillStore *skills.EventStore
	transcript *transcript.Store
	roles      Roles
	finalizer  *report.Finalizer
	bank       *policy.Bank
	limits     policy.Limits
	factCheck  bool
}

// NewEngine wires an engine over an open session store.
func NewEngine(store *session.Store, r Roles, bank *policy.Bank, limits policy.Limits, factCheck bool) (*Engine, error) {
	skillStore, err := skills.NewEventStore(store.DB())
	if err != nil {
		return nil, err
	}
	ts, err := transcript.NewStore(store.DB())
	if err != nil {
		return nil, err
	}
	return &Engine{
		registry:   newRegistry(),
		store:      store,
		skillStore: skillStore,
		transcript: ts,
		roles:      r,
		finalizer:  report.NewFinalizer(r.HiringManager),
		bank:       bank,
		limits:     limits,
		factCheck:  factCheck,
	}, nil
}

// #endregion

// #region turn-result

// TurnResult is what the caller sees after one engine operation.
type TurnResult struct {
	SessionID string
	Message   string
	Done      bool
	Feedback  *contract.FinalFeedback
	Rendered  string
}

// #endregion

// #region start

// Start opens a new session from the candidate's intro message: the
// Extractor seeds the profile, then the opening question is planned and
// rendered. The returned message is the first interviewer turn.
func (e *Engine) Start(ctx context.Context, intro string) (*TurnResult, error) {
	intro = policy.NormalizeAnswer(intro)
	if intro == "" {
		return nil, fmt.Errorf("empty intro message")
	}

	sess := session.New()
	e.registry.put(sess)
	unlock := e.registry.lock(sess.ID)
	defer unlock()

	profile, err := e.roles.Extractor.Extract(ctx, intro)
	if err != nil {
		return nil, err
	}
	sess.Profile = session.MergeProfile(sess.Profile, profile)
	log.Printf("[ENGINE] session=%s started name=%q level=%s", sess.ID, sess.Profile.Name, sess.Profile.Level)

	if err := sess.AppendTurn(session.RoleCandidate, intro, ""); err != nil {
		return nil, err
	}
	e.record(e.transcript.Message(sess.ID, string(session.RoleCandidate), intro, ""))

	d := policy.FirstQuestion(sess, e.bank)
	if d.Terminal() {
		return nil, fmt.Errorf("question bank is empty")
	}
	return e.deliver(ctx, sess, d, nil)
}

// #endregion

// #region submit

// Submit processes one candidate answer end to end: Observer assessment,
// policy resolution, and either the next interviewer message or the final
// report. Turns are strictly serialized per session.
func (e *Engine) Submit(ctx context.Context, sessionID, answer string) (*TurnResult, error) {
	unlock := e.registry.lock(sessionID)
	defer unlock()

	sess, err := e.get(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Terminated() {
		return nil, session.ErrSessionClosed
	}

	answer = policy.NormalizeAnswer(answer)
	if answer == "" {
		return nil, fmt.Errorf("empty answer")
	}
	if err := sess.AppendTurn(session.RoleCandidate, answer, sess.Topics.CurrentTopic); err != nil {
		return nil, err
	}
	e.record(e.transcript.Message(sess.ID, string(session.RoleCandidate), answer, sess.Topics.CurrentTopic))

	obs, err := e.roles.Observer.Assess(ctx, sess, answer)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(obs); err == nil {
		e.record(e.transcript.Observer(sess.ID, raw))
	}
	if err := sess.Transition(session.PhaseEvaluate); err != nil {
		return nil, err
	}
	if err := sess.Transition(session.PhaseDecide); err != nil {
		return nil, err
	}

	fromSeq := sess.Skills.Version()
	d := policy.Resolve(sess, obs, answer, e.bank, e.limits)
	e.record(e.skillStore.Append(sess.ID, sess.Skills.Log(), fromSeq))
	e.record(e.transcript.Decision(sess.ID, string(d.Action), d.Topic, d.Difficulty, d.Reason))
	if d.Note != "" {
		e.record(e.transcript.Note(sess.ID, d.Note))
	}

	if d.Terminal() {
		if err := sess.Transition(session.PhaseWrap); err != nil {
			return nil, err
		}
		return e.finish(ctx, sess)
	}

	var verdict *contract.FactCheckVerdict
	if e.factCheck && d.Reason == "hallucination_claim" && len(obs.DetectedClaims) > 0 {
		verdict, err = e.roles.FactChecker.Check(ctx, obs.DetectedClaims[0].Claim)
		if err != nil {
			return nil, err
		}
	}
	return e.deliver(ctx, sess, d, verdict)
}

// #endregion

// #region deliver

// deliver renders the resolved decision into a candidate-visible message,
// applies the loop guard, and advances the phase machine to AWAIT_ANSWER.
func (e *Engine) deliver(ctx context.Context, sess *session.Session, d policy.Decision, verdict *contract.FactCheckVerdict) (*TurnResult, error) {
	directive := roles.Directive{
		Action:      d.Action,
		Topic:       d.Topic,
		Difficulty:  d.Difficulty,
		Instruction: d.Instruction,
		FactCheck:   verdict,
	}
	if d.Planned != nil {
		directive.BasePrompt = d.Planned.Prompt
	}

	out, err := e.roles.Interviewer.Render(ctx, sess, directive)
	if err != nil {
		return nil, err
	}
	message := out.AgentVisibleMessage

	if policy.RecordPrompt(sess, message) {
		// Interviewer is looping on one prompt: break the topic and fall
		// back to a fresh bank question.
		log.Printf("[ENGINE] session=%s prompt loop detected, rotating topic", sess.ID)
		if alt := e.breakLoop(sess, d); alt != nil {
			d = *alt
			message = d.Planned.Prompt
		}
	}

	if d.Planned != nil {
		sess.MarkAsked(d.Planned.ID)
	}
	if err := sess.Transition(session.ActionPhase(d.Action)); err != nil {
		return nil, err
	}
	if err := sess.Transition(session.PhaseAwaitAnswer); err != nil {
		return nil, err
	}
	if err := sess.AppendTurn(session.RoleInterviewer, message, d.Topic); err != nil {
		return nil, err
	}
	e.record(e.transcript.Message(sess.ID, string(session.RoleInterviewer), message, d.Topic))

	if err := e.store.Save(sess); err != nil {
		return nil, err
	}
	return &TurnResult{SessionID: sess.ID, Message: message}, nil
}

// breakLoop picks a different open topic with an unasked bank question.
// Returns nil when no alternative exists.
func (e *Engine) breakLoop(sess *session.Session, d policy.Decision) *policy.Decision {
	topic := policy.SelectTopic(sess, e.bank, "")
	if topic == "" || topic == d.Topic {
		return nil
	}
	alt := policy.FirstQuestion(sess, e.bank)
	if alt.Terminal() || alt.Planned == nil {
		return nil
	}
	return &alt
}

// #endregion

// #region finish

// Finish terminates a session on demand and returns the final report.
func (e *Engine) Finish(ctx context.Context, sessionID string) (*TurnResult, error) {
	unlock := e.registry.lock(sessionID)
	defer unlock()

	sess, err := e.get(sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Terminated() && sess.Phase == session.PhaseAwaitAnswer {
		if err := sess.Transition(session.PhaseWrap); err != nil {
			return nil, err
		}
	}
	return e.finish(ctx, sess)
}

// finish runs the finalizer and attaches the report to the transcript.
// Caller holds the session lock.
func (e *Engine) finish(ctx context.Context, sess *session.Session) (*TurnResult, error) {
	fb, err := e.finalizer.Finalize(ctx, sess)
	if err != nil {
		return nil, err
	}
	rendered := report.Render(fb)
	if err := e.transcript.AttachFeedback(sess.ID, fb, rendered); err != nil && !errors.Is(err, transcript.ErrFeedbackAttached) {
		return nil, err
	}
	if err := e.store.Save(sess); err != nil {
		return nil, err
	}
	return &TurnResult{SessionID: sess.ID, Message: rendered, Done: true, Feedback: &fb, Rendered: rendered}, nil
}

// Abandon closes a session without a final report. Idempotent.
func (e *Engine) Abandon(sessionID string) error {
	unlock := e.registry.lock(sessionID)
	defer unlock()

	sess, err := e.get(sessionID)
	if err != nil {
		return err
	}
	e.finalizer.Abandon(sess)
	return e.store.Save(sess)
}

// #endregion

// #region helpers

// get resolves a session from memory, falling back to the store so a
// restarted process can resume.
func (e *Engine) get(sessionID string) (*session.Session, error) {
	if sess := e.registry.get(sessionID); sess != nil {
		return sess, nil
	}
	sess, err := e.store.Load(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	matrix, err := e.skillStore.Load(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Skills = matrix
	e.registry.put(sess)
	return sess, nil
}

// record logs persistence errors without failing the turn; the in-memory
// session stays authoritative.
func (e *Engine) record(err error) {
	if err != nil {
		log.Printf("[ENGINE] persistence error: %v", err)
	}
}

// #endregion
