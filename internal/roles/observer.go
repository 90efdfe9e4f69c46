package roles

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/contract"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/session"
)

// #region observer

// Observer wraps the analysis role. It never produces candidate-visible text.
type Observer struct {
	c   Completer
	cfg RoleConfig
}

func NewObserver(c Completer, cfg RoleConfig) *Observer {
	return &Observer{c: c, cfg: DefaultRoleConfig(cfg)}
}

// Assess analyzes the latest candidate answer. On schema-budget exhaustion or
// transport failure it returns the degraded default and logs; the interview
// never stalls on the Observer. Context cancellation is the only error.
func (o *Observer) Assess(ctx context.Context, sess *session.Session, answer string) (contract.ObserverOutput, error) {
	var out contract.ObserverOutput
	err := completeJSON(ctx, o.c, o.cfg, "observer",
		observerSystemPrompt, observerUserPrompt(sess, answer),
		func(raw string) error {
			parsed, err := contract.ParseObserver(raw)
			if err != nil {
				return err
			}
			if err := checkObserverInvariants(parsed, answer); err != nil {
				return err
			}
			out = parsed
			return nil
		})
	if err != nil {
		if ctx.Err() != nil {
			return contract.ObserverOutput{}, ctx.Err()
		}
		log.Printf("[ROLES] observer degraded session=%s: %v", sess.ID, err)
		return degradedObserver(), nil
	}
	return out, nil
}

// checkObserverInvariants enforces the constraints the schema alone cannot:
// answer_candidate needs an actual question in the answer, and skill updates
// need evidence.
func checkObserverInvariants(out contract.ObserverOutput, answer string) error {
	if out.NextAction.Type == contract.ActionAnswerCandidate && !strings.Contains(answer, "?") {
		return &contract.SchemaViolation{Role: "observer", Field: "next_action.type",
			Msg: "answer_candidate without a direct question from the candidate"}
	}
	for i, u := range out.SkillUpdates {
		if strings.TrimSpace(u.Evidence) == "" {
			return &contract.SchemaViolation{Role: "observer", Field: "skill_updates",
				Msg: "update " + strconv.Itoa(i) + " (" + u.Topic + ") has no evidence"}
		}
	}
	return nil
}

// degradedObserver is the neutral fallback: no skill mutations, no flags,
// a plain clarify so the conversation keeps moving.
func degradedObserver() contract.ObserverOutput {
	return contract.ObserverOutput{
		Summary:       "разбор ответа недоступен",
		AnswerQuality: contract.AnswerQuality{Correctness: "partial", Confidence: "mixed"},
		NextAction: contract.NextAction{
			Type:                     contract.ActionClarify,
			InstructionToInterviewer: "Попроси кандидата уточнить или развернуть последний ответ.",
		},
	}
}

// #endregion
