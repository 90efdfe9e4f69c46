package orchestrator

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/contract"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/policy"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/report"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/roles"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/session"
)

// #region fixtures

// scripted returns canned responses in order, repeating the last one.
type scripted struct {
	responses []string
	calls     int
}

func (s *scripted) Complete(ctx context.Context, req roles.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	idx := s.calls
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	s.calls++
	return s.responses[idx], nil
}

// offline always fails, forcing every adapter onto its degraded path. The
// degraded paths are deterministic, which keeps these tests stable.
type offline struct{}

func (offline) Complete(ctx context.Context, req roles.Request) (string, error) {
	return "", errors.New("connection refused")
}

const extractorJSON = `{
	"name": "Анна", "level": "Middle", "position": "backend python",
	"skills": ["python", "sql"],
	"confidence": {"name": 0.9, "level": 0.6, "position": 0.8, "skills": 0.7},
	"assumptions": []
}`

const confirmedObserverJSON = `{
	"summary": "уверенный ответ",
	"answer_quality": {"correctness": "correct", "confidence": "high"},
	"detected_claims": [],
	"skill_updates": [{"topic": "recursion", "status": "confirmed", "evidence": "базовый случай назван"}],
	"difficulty_delta": 1,
	"next_action": {"type": "ask", "topic": "", "instruction_to_interviewer": ""},
	"robustness": {"off_topic": false, "role_reversal": false, "hallucination_claim": false, "evasive": false}
}`

func testEngine(t *testing.T, dbPath string, observer roles.Completer) *Engine {
	t.Helper()
	store, err := session.NewStore(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	r := Roles{
		Observer:      roles.NewObserver(observer, roles.RoleConfig{}),
		Interviewer:   roles.NewInterviewer(offline{}, roles.RoleConfig{}),
		Extractor:     roles.NewExtractor(&scripted{responses: []string{extractorJSON}}, roles.RoleConfig{}),
		HiringManager: roles.NewHiringManager(offline{}, roles.RoleConfig{}),
		FactChecker:   roles.NewFactChecker(offline{}, roles.RoleConfig{}),
	}
	eng, err := NewEngine(store, r, policy.DefaultBank(), policy.DefaultLimits(), false)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return eng
}

// #endregion

// #region full-cycle

func TestFullInterviewCycle(t *testing.T) {
	ctx := context.Background()
	obs := &scripted{responses: []string{confirmedObserverJSON}}
	eng := testEngine(t, filepath.Join(t.TempDir(), "coach.db"), obs)

	res, err := eng.Start(ctx, "Привет, я Анна, иду на middle python backend")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if res.Done || res.Message == "" {
		t.Fatalf("opening turn wrong: %+v", res)
	}

	sess, err := eng.get(res.SessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sess.Profile.Name != "Анна" || sess.Profile.Level != contract.LevelMiddle {
		t.Fatalf("profile not seeded: %+v", sess.Profile)
	}
	if sess.Phase != session.PhaseAwaitAnswer {
		t.Fatalf("expected AWAIT_ANSWER after start, got %s", sess.Phase)
	}
	firstTopic := sess.Topics.CurrentTopic
	if firstTopic == "" {
		t.Fatal("no topic selected for the opening question")
	}

	res, err = eng.Submit(ctx, res.SessionID, "рекурсия это функция, которая вызывает себя; нужен базовый случай")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Done || res.Message == "" {
		t.Fatalf("second turn wrong: %+v", res)
	}
	if e := sess.Skills.Get("recursion"); e == nil || e.Status != contract.StatusConfirmed {
		t.Fatalf("skill update lost: %+v", e)
	}
	if sess.Difficulty != 2 {
		t.Fatalf("difficulty delta not applied, got %d", sess.Difficulty)
	}
	if obs.calls == 0 {
		t.Fatal("observer never invoked")
	}

	res, err = eng.Submit(ctx, res.SessionID, "стоп интервью")
	if err != nil {
		t.Fatalf("final submit: %v", err)
	}
	if !res.Done || res.Feedback == nil {
		t.Fatalf("expected final report: %+v", res)
	}
	// One confirmed skill, zero gaps: the degraded report recommends Hire and
	// passes the consistency gate.
	if res.Feedback.Decision.HiringRecommendation != contract.RecHire {
		t.Fatalf("unexpected recommendation %s", res.Feedback.Decision.HiringRecommendation)
	}
	if !strings.Contains(res.Rendered, "recursion") {
		t.Fatal("rendered report must list the confirmed skill")
	}

	if _, err := eng.Submit(ctx, res.SessionID, "ещё вопрос"); !errors.Is(err, session.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed after final report, got %v", err)
	}
}

// #endregion

// #region resume

func TestSubmitResumesFromStore(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "coach.db")

	first := testEngine(t, dbPath, &scripted{responses: []string{confirmedObserverJSON}})
	res, err := first.Start(ctx, "Привет, я Анна, python backend")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// A fresh engine over the same database simulates a process restart.
	second := testEngine(t, dbPath, &scripted{responses: []string{confirmedObserverJSON}})
	out, err := second.Submit(ctx, res.SessionID, "давай фидбэк")
	if err != nil {
		t.Fatalf("resumed submit: %v", err)
	}
	if !out.Done || out.Feedback == nil {
		t.Fatalf("resumed session must finish on stop phrase: %+v", out)
	}
}

func TestSubmitUnknownSession(t *testing.T) {
	eng := testEngine(t, filepath.Join(t.TempDir(), "coach.db"), &scripted{responses: []string{confirmedObserverJSON}})
	if _, err := eng.Submit(context.Background(), "no-such-id", "ответ"); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
}

// #endregion

// #region abandon

func TestAbandonSkipsFinalReport(t *testing.T) {
	ctx := context.Background()
	eng := testEngine(t, filepath.Join(t.TempDir(), "coach.db"), &scripted{responses: []string{confirmedObserverJSON}})

	res, err := eng.Start(ctx, "Привет, я кандидат на python позицию")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := eng.Abandon(res.SessionID); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if err := eng.Abandon(res.SessionID); err != nil {
		t.Fatalf("abandon must be idempotent: %v", err)
	}
	if _, err := eng.Finish(ctx, res.SessionID); !errors.Is(err, report.ErrAbandoned) {
		t.Fatalf("expected ErrAbandoned, got %v", err)
	}
	if _, err := eng.Submit(ctx, res.SessionID, "ответ"); !errors.Is(err, session.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

// #endregion

// #region finish

func TestFinishOnDemand(t *testing.T) {
	ctx := context.Background()
	eng := testEngine(t, filepath.Join(t.TempDir(), "coach.db"), &scripted{responses: []string{confirmedObserverJSON}})

	res, err := eng.Start(ctx, "Привет, я кандидат, middle python")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	out, err := eng.Finish(ctx, res.SessionID)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !out.Done || out.Feedback == nil {
		t.Fatalf("expected final report: %+v", out)
	}

	again, err := eng.Finish(ctx, res.SessionID)
	if err != nil {
		t.Fatalf("second finish: %v", err)
	}
	if again.Feedback.Summary != out.Feedback.Summary {
		t.Fatal("second finish must return the cached report")
	}
}

// #endregion
