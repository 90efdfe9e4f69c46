package policy

import (
	"log"
	"strings"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/contract"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/session"
)

// #region limits

// Limits holds the termination thresholds applied on every decision.
type Limits struct {
	MaxTurns int
	MaxGaps  int
}

// DefaultLimits matches the production interview length.
func DefaultLimits() Limits {
	return Limits{MaxTurns: 40, MaxGaps: 6}
}

// #endregion

// #region decision

// Decision is the resolved outcome of one policy step. The Observer only
// suggests; this is what actually happens next.
type Decision struct {
	Action      contract.ActionType
	Topic       string
	Difficulty  int
	Instruction string
	Note        string
	Planned     *Question
	Reason      string
}

// Terminal reports whether the decision ends the questioning loop.
func (d Decision) Terminal() bool {
	return d.Action == contract.ActionWrap || d.Action == contract.ActionEnd
}

// #endregion

// #region resolve

// Resolve merges one validated Observer output into the session and computes
// the next action. It is the only place session state is mutated from role
// output: skill updates, difficulty, robustness flags, and topic rotation all
// land here. Robustness flags always outrank the Observer's own suggestion.
func Resolve(sess *session.Session, obs contract.ObserverOutput, answer string, bank *Bank, limits Limits) Decision {
	sess.Skills.Merge(obs.SkillUpdates)
	sess.Robustness = obs.Robustness
	difficulty := sess.ApplyDifficultyDelta(obs.DifficultyDelta)

	if d, ok := terminalDecision(sess, obs, answer, limits); ok {
		d.Difficulty = difficulty
		log.Printf("[POLICY] session=%s turn=%d terminal action=%s reason=%s",
			sess.ID, sess.TurnID, d.Action, d.Reason)
		return d
	}

	d := routeAction(sess, obs, answer)
	d.Difficulty = difficulty

	// A fresh ask always goes through topic selection so closed topics can
	// veto the Observer's suggestion; other actions stay on their topic.
	if d.Action == contract.ActionAsk {
		d.Topic = SelectTopic(sess, bank, d.Topic)
	} else if d.Topic == "" {
		d.Topic = SelectTopic(sess, bank, obs.NextAction.Topic)
	}
	if d.Topic == "" {
		// Every bank topic is closed: nothing left to probe.
		d = Decision{Action: contract.ActionWrap, Difficulty: difficulty, Reason: "topics_exhausted"}
		log.Printf("[POLICY] session=%s turn=%d terminal action=wrap reason=topics_exhausted", sess.ID, sess.TurnID)
		return d
	}

	kind := questionKind(d.Action)
	if kind != "" {
		d.Planned = planQuestion(sess, bank, d.Topic, difficulty, kind)
	}

	rotateTopic(sess, d.Topic)
	sess.LastAction = d.Action

	log.Printf("[POLICY] session=%s turn=%d action=%s topic=%s difficulty=%d reason=%s",
		sess.ID, sess.TurnID, d.Action, d.Topic, difficulty, d.Reason)
	return d
}

// FirstQuestion plans the opening ask before any Observer output exists.
// The candidate's declared skills nominate the topic; with no overlap, topic
// selection runs against an empty matrix and bank order decides.
func FirstQuestion(sess *session.Session, bank *Bank) Decision {
	d := Decision{
		Action:     contract.ActionAsk,
		Topic:      SelectTopic(sess, bank, ProfileTopic(sess.Profile, bank)),
		Difficulty: sess.Difficulty,
		Reason:     "opening",
	}
	if d.Topic == "" {
		return Decision{Action: contract.ActionWrap, Difficulty: sess.Difficulty, Reason: "topics_exhausted"}
	}
	d.Planned = planQuestion(sess, bank, d.Topic, d.Difficulty, KindAsk)
	rotateTopic(sess, d.Topic)
	sess.LastAction = d.Action
	log.Printf("[POLICY] session=%s opening topic=%s difficulty=%d", sess.ID, d.Topic, d.Difficulty)
	return d
}

// terminalDecision checks the stop conditions in priority order: explicit
// stop intent, Observer end, turn budget, gap budget.
func terminalDecision(sess *session.Session, obs contract.ObserverOutput, answer string, limits Limits) (Decision, bool) {
	if IsStopIntent(answer) {
		return Decision{Action: contract.ActionWrap, Reason: "stop_intent"}, true
	}
	if obs.NextAction.Type == contract.ActionEnd {
		return Decision{Action: contract.ActionWrap, Reason: "observer_end"}, true
	}
	if limits.MaxTurns > 0 && sess.TurnID >= limits.MaxTurns {
		return Decision{Action: contract.ActionWrap, Reason: "max_turns"}, true
	}
	if limits.MaxGaps > 0 {
		_, gaps, _ := sess.Skills.Counts()
		if gaps >= limits.MaxGaps {
			return Decision{Action: contract.ActionWrap, Reason: "max_gaps"}, true
		}
	}
	return Decision{}, false
}

// routeAction picks the action type. Flags win over the Observer suggestion;
// when several flags are set hallucination outranks off-topic outranks role
// reversal, then answer quality drives the choice.
func routeAction(sess *session.Session, obs contract.ObserverOutput, answer string) Decision {
	if obs.Robustness.HallucinationClaim {
		return Decision{
			Action:      contract.ActionRefocus,
			Topic:       sess.Topics.CurrentTopic,
			Instruction: "Мягко отметь, что утверждение не удалось подтвердить, и верни кандидата к текущей теме.",
			Note:        unverifiedClaimNote(obs.DetectedClaims),
			Reason:      "hallucination_claim",
		}
	}
	if obs.Robustness.OffTopic {
		return Decision{
			Action:      contract.ActionRefocus,
			Topic:       sess.Topics.CurrentTopic,
			Instruction: "Вежливо верни кандидата к теме интервью, не отвечая на постороннее.",
			Reason:      "off_topic",
		}
	}
	if obs.Robustness.RoleReversal && strings.Contains(answer, "?") {
		return Decision{
			Action:      contract.ActionAnswerCandidate,
			Topic:       sess.Topics.CurrentTopic,
			Instruction: "Коротко ответь на вопрос кандидата и сразу продолжи интервью.",
			Reason:      "role_reversal",
		}
	}

	switch gradeAnswer(obs.AnswerQuality) {
	case gradeWrong:
		if sess.LastAction == contract.ActionSimplify {
			return Decision{
				Action:      contract.ActionSimplify,
				Topic:       sess.Topics.CurrentTopic,
				Instruction: "Дай наводящую подсказку по тому же вопросу, не раскрывая ответ.",
				Reason:      "hint_after_simplify",
			}
		}
		return Decision{Action: contract.ActionSimplify, Topic: sess.Topics.CurrentTopic, Reason: "answer_wrong"}
	case gradePartial:
		return Decision{Action: contract.ActionClarify, Topic: sess.Topics.CurrentTopic, Reason: "answer_partial"}
	}

	// Solid answer: accept the Observer suggestion when it is a questioning
	// action, otherwise move on with a fresh question.
	switch obs.NextAction.Type {
	case contract.ActionClarify, contract.ActionSimplify, contract.ActionRefocus:
		return Decision{
			Action:      obs.NextAction.Type,
			Topic:       NormalizeTopic(obs.NextAction.Topic),
			Instruction: obs.NextAction.InstructionToInterviewer,
			Reason:      "observer_suggestion",
		}
	}
	return Decision{
		Action:      contract.ActionAsk,
		Topic:       NormalizeTopic(obs.NextAction.Topic),
		Instruction: obs.NextAction.InstructionToInterviewer,
		Reason:      "advance",
	}
}

// #endregion

// #region grading

type answerGrade int

const (
	gradeOK answerGrade = iota
	gradePartial
	gradeWrong
)

// gradeAnswer collapses the Observer's correctness/confidence pair into the
// three buckets the router cares about.
func gradeAnswer(q contract.AnswerQuality) answerGrade {
	correctness := strings.ToLower(q.Correctness)
	confidence := strings.ToLower(q.Confidence)
	switch {
	case correctness == "wrong" || confidence == "low":
		return gradeWrong
	case correctness == "partial" || confidence == "mixed":
		return gradePartial
	}
	return gradeOK
}

// #endregion

// #region planning

// questionKind maps an action to the bank variant backing it; actions with no
// bank backing return "".
func questionKind(action contract.ActionType) QuestionKind {
	switch action {
	case contract.ActionAsk:
		return KindAsk
	case contract.ActionClarify:
		return KindClarify
	case contract.ActionSimplify:
		return KindSimplify
	}
	return ""
}

// planQuestion finds an unasked bank question for the directive. The sweep
// order is: exact difficulty and kind, then any difficulty 1..5 for the same
// kind, then a plain ask at any difficulty, then any topic at all. A nil
// result means the whole bank is spent.
func planQuestion(sess *session.Session, bank *Bank, topic string, difficulty int, kind QuestionKind) *Question {
	asked := sess.WasAsked
	if q := bank.PickNext(asked, topic, difficulty, kind); q != nil {
		return q
	}
	for d := session.MinDifficulty; d <= session.MaxDifficulty; d++ {
		if q := bank.PickNext(asked, topic, d, kind); q != nil {
			return q
		}
	}
	for d := session.MinDifficulty; d <= session.MaxDifficulty; d++ {
		if q := bank.PickNext(asked, topic, d, KindAsk); q != nil {
			return q
		}
	}
	for d := session.MinDifficulty; d <= session.MaxDifficulty; d++ {
		if q := bank.PickNext(asked, "", d, KindAsk); q != nil {
			return q
		}
	}
	return nil
}

// rotateTopic records the selected topic in the rotation history.
func rotateTopic(sess *session.Session, topic string) {
	if topic == "" {
		return
	}
	sess.Topics.CurrentTopic = topic
	sess.Topics.LastTopics = append(sess.Topics.LastTopics, topic)
	if len(sess.Topics.LastTopics) > 8 {
		sess.Topics.LastTopics = sess.Topics.LastTopics[1:]
	}
	sess.Topics.Coverage[topic]++
}

// unverifiedClaimNote renders the internal note attached to a hallucination
// refocus. Not candidate-visible.
func unverifiedClaimNote(claims []contract.DetectedClaim) string {
	if len(claims) == 0 {
		return "unverified claim detected"
	}
	parts := make([]string, 0, len(claims))
	for _, c := range claims {
		parts = append(parts, c.Claim+" ("+string(c.Risk)+")")
	}
	return "unverified claim: " + strings.Join(parts, "; ")
}

// #endregion
