package policy

import (
	"strings"
	"testing"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/contract"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/session"
)

// #region helpers

func solidObserver() contract.ObserverOutput {
	return contract.ObserverOutput{
		Summary:       "ответ по делу",
		AnswerQuality: contract.AnswerQuality{Correctness: "correct", Confidence: "high"},
		NextAction:    contract.NextAction{Type: contract.ActionAsk},
	}
}

func activeSession(t *testing.T, topic string) *session.Session {
	t.Helper()
	sess := session.New()
	sess.Topics.CurrentTopic = topic
	if topic != "" {
		sess.Topics.LastTopics = []string{topic}
	}
	return sess
}

// #endregion

// #region robustness-routing

func TestHallucinationForcesRefocus(t *testing.T) {
	sess := activeSession(t, "python_types")
	obs := solidObserver()
	obs.Robustness.HallucinationClaim = true
	obs.DetectedClaims = []contract.DetectedClaim{{Claim: "GIL удалили в 3.12", Risk: contract.RiskHigh}}
	obs.DifficultyDelta = 1
	obs.NextAction = contract.NextAction{Type: contract.ActionAsk, Topic: "sql_joins"}
	sess.Difficulty = 3

	d := Resolve(sess, obs, "GIL удалили в 3.12, я читал", DefaultBank(), DefaultLimits())

	if d.Action != contract.ActionRefocus {
		t.Fatalf("expected refocus despite observer suggestion, got %s", d.Action)
	}
	if d.Note == "" || !strings.Contains(d.Note, "GIL") {
		t.Fatalf("expected unverified-claim note, got %q", d.Note)
	}
	if d.Difficulty != 4 {
		t.Fatalf("difficulty delta should still apply, got %d", d.Difficulty)
	}
	if d.Topic != "python_types" {
		t.Fatalf("refocus should stay on current topic, got %s", d.Topic)
	}
}

func TestOffTopicRefocusWithInstruction(t *testing.T) {
	sess := activeSession(t, "sql_joins")
	obs := solidObserver()
	obs.Robustness.OffTopic = true

	d := Resolve(sess, obs, "а какая у вас зарплатная вилка?", DefaultBank(), DefaultLimits())

	if d.Action != contract.ActionRefocus {
		t.Fatalf("expected refocus, got %s", d.Action)
	}
	if d.Instruction == "" {
		t.Fatal("refocus must carry a return-to-topic instruction")
	}
	if d.Topic != "sql_joins" {
		t.Fatalf("expected current topic, got %s", d.Topic)
	}
}

func TestRoleReversalNeedsDirectQuestion(t *testing.T) {
	sess := activeSession(t, "sql_joins")
	obs := solidObserver()
	obs.Robustness.RoleReversal = true

	d := Resolve(sess, obs, "А как бы вы сами ответили?", DefaultBank(), DefaultLimits())
	if d.Action != contract.ActionAnswerCandidate {
		t.Fatalf("expected answer_candidate, got %s", d.Action)
	}

	sess2 := activeSession(t, "sql_joins")
	d2 := Resolve(sess2, obs, "не знаю, сами разбирайтесь", DefaultBank(), DefaultLimits())
	if d2.Action == contract.ActionAnswerCandidate {
		t.Fatal("answer_candidate without a question in the answer")
	}
}

func TestHallucinationOutranksOffTopic(t *testing.T) {
	sess := activeSession(t, "python_types")
	obs := solidObserver()
	obs.Robustness.HallucinationClaim = true
	obs.Robustness.OffTopic = true

	d := Resolve(sess, obs, "ответ", DefaultBank(), DefaultLimits())
	if d.Reason != "hallucination_claim" {
		t.Fatalf("expected hallucination routing, got %s", d.Reason)
	}
}

// #endregion

// #region answer-quality

func TestWrongAnswerSimplifies(t *testing.T) {
	sess := activeSession(t, "python_types")
	obs := solidObserver()
	obs.AnswerQuality = contract.AnswerQuality{Correctness: "wrong", Confidence: "high"}

	d := Resolve(sess, obs, "tuple можно изменять", DefaultBank(), DefaultLimits())
	if d.Action != contract.ActionSimplify {
		t.Fatalf("expected simplify, got %s", d.Action)
	}
}

func TestPartialAnswerClarifies(t *testing.T) {
	sess := activeSession(t, "python_types")
	obs := solidObserver()
	obs.AnswerQuality = contract.AnswerQuality{Correctness: "partial", Confidence: "high"}

	d := Resolve(sess, obs, "ну, они разные", DefaultBank(), DefaultLimits())
	if d.Action != contract.ActionClarify {
		t.Fatalf("expected clarify, got %s", d.Action)
	}
}

func TestHintAfterSimplify(t *testing.T) {
	sess := activeSession(t, "python_types")
	sess.LastAction = contract.ActionSimplify
	obs := solidObserver()
	obs.AnswerQuality = contract.AnswerQuality{Correctness: "wrong", Confidence: "low"}

	d := Resolve(sess, obs, "всё равно не понимаю", DefaultBank(), DefaultLimits())
	if d.Action != contract.ActionSimplify {
		t.Fatalf("expected simplify (hint), got %s", d.Action)
	}
	if d.Reason != "hint_after_simplify" {
		t.Fatalf("expected hint routing, got %s", d.Reason)
	}
	if d.Instruction == "" {
		t.Fatal("hint must instruct the interviewer")
	}
}

// #endregion

// #region topic-selection

func TestConfirmedTopicNotReselected(t *testing.T) {
	sess := activeSession(t, "recursion")
	sess.Difficulty = 3
	obs := solidObserver()
	obs.SkillUpdates = []contract.SkillUpdate{
		{Topic: "recursion", Status: contract.StatusConfirmed, Evidence: "верный разбор базового случая"},
	}
	obs.DifficultyDelta = 1
	obs.NextAction = contract.NextAction{Type: contract.ActionAsk, Topic: "recursion"}

	d := Resolve(sess, obs, "рекурсия это вызов себя с базовым случаем", DefaultBank(), DefaultLimits())

	if d.Action != contract.ActionAsk {
		t.Fatalf("expected ask, got %s", d.Action)
	}
	if d.Difficulty != 4 {
		t.Fatalf("expected difficulty 4, got %d", d.Difficulty)
	}
	if d.Topic == "recursion" {
		t.Fatal("confirmed topic must not be selected again")
	}
	if d.Topic == "" {
		t.Fatal("expected a fresh bank topic")
	}
}

func TestGapTopicPrioritized(t *testing.T) {
	sess := activeSession(t, "")
	sess.Skills.Merge([]contract.SkillUpdate{
		{Topic: "python_iterators", Status: contract.StatusUncertain, Evidence: "e"},
	})

	// uncertain beats unknown only in the other direction: gap < uncertain <
	// unknown, so an open gap-free matrix prefers the uncertain revisit.
	topic := SelectTopic(sess, DefaultBank(), "")
	if topic != "python_iterators" {
		t.Fatalf("expected uncertain topic first, got %s", topic)
	}
}

func TestSuggestedTopicRejectedWhenClosed(t *testing.T) {
	sess := activeSession(t, "")
	sess.Skills.Merge([]contract.SkillUpdate{
		{Topic: "sql_joins", Status: contract.StatusGap, Evidence: "e"},
	})
	topic := SelectTopic(sess, DefaultBank(), "sql_joins")
	if topic == "sql_joins" {
		t.Fatal("closed topic accepted from suggestion")
	}
}

func TestRecentTopicNotImmediatelyRepeated(t *testing.T) {
	sess := activeSession(t, "")
	sess.Topics.LastTopics = []string{"python_types", "git_basics"}
	topic := SelectTopic(sess, DefaultBank(), "git_basics")
	if topic == "git_basics" {
		t.Fatal("topic repeated immediately after being visited")
	}
}

// #endregion

// #region termination

func TestStopIntentWraps(t *testing.T) {
	sess := activeSession(t, "sql_joins")
	d := Resolve(sess, solidObserver(), "давай фидбэк, я устал", DefaultBank(), DefaultLimits())
	if d.Action != contract.ActionWrap {
		t.Fatalf("expected wrap on stop intent, got %s", d.Action)
	}
	if d.Reason != "stop_intent" {
		t.Fatalf("unexpected reason %s", d.Reason)
	}
}

func TestObserverEndWraps(t *testing.T) {
	sess := activeSession(t, "sql_joins")
	obs := solidObserver()
	obs.NextAction.Type = contract.ActionEnd
	d := Resolve(sess, obs, "обычный ответ", DefaultBank(), DefaultLimits())
	if d.Action != contract.ActionWrap {
		t.Fatalf("expected wrap, got %s", d.Action)
	}
}

func TestMaxGapsWraps(t *testing.T) {
	sess := activeSession(t, "sql_joins")
	obs := solidObserver()
	obs.SkillUpdates = []contract.SkillUpdate{
		{Topic: "a", Status: contract.StatusGap, Evidence: "e"},
		{Topic: "b", Status: contract.StatusGap, Evidence: "e"},
	}
	d := Resolve(sess, obs, "не знаю", DefaultBank(), Limits{MaxTurns: 40, MaxGaps: 2})
	if d.Action != contract.ActionWrap {
		t.Fatalf("expected wrap at gap budget, got %s", d.Action)
	}
	if d.Reason != "max_gaps" {
		t.Fatalf("unexpected reason %s", d.Reason)
	}
}

func TestMaxTurnsWraps(t *testing.T) {
	sess := activeSession(t, "sql_joins")
	sess.TurnID = 40
	d := Resolve(sess, solidObserver(), "ответ", DefaultBank(), DefaultLimits())
	if d.Action != contract.ActionWrap {
		t.Fatalf("expected wrap at turn budget, got %s", d.Action)
	}
}

func TestAllTopicsClosedWraps(t *testing.T) {
	sess := activeSession(t, "")
	bank := NewBank([]Question{
		{ID: "q1", Topic: "only_topic", Difficulty: 1, Kind: KindAsk, Prompt: "Что такое only_topic? Расскажи."},
	})
	sess.Skills.Merge([]contract.SkillUpdate{
		{Topic: "only_topic", Status: contract.StatusConfirmed, Evidence: "e"},
	})
	d := Resolve(sess, solidObserver(), "ответ", bank, DefaultLimits())
	if d.Action != contract.ActionWrap {
		t.Fatalf("expected wrap when every topic is closed, got %s", d.Action)
	}
	if d.Reason != "topics_exhausted" {
		t.Fatalf("unexpected reason %s", d.Reason)
	}
}

// #endregion

// #region first-question

func TestFirstQuestionPlansFromBank(t *testing.T) {
	sess := session.New()
	d := FirstQuestion(sess, DefaultBank())
	if d.Action != contract.ActionAsk {
		t.Fatalf("expected ask, got %s", d.Action)
	}
	if d.Planned == nil {
		t.Fatal("opening question must come from the bank")
	}
	if d.Planned.Difficulty != sess.Difficulty {
		t.Fatalf("opening difficulty mismatch: %d vs %d", d.Planned.Difficulty, sess.Difficulty)
	}
	if sess.Topics.CurrentTopic != d.Topic {
		t.Fatal("topic rotation not recorded")
	}
}

// #endregion
