package roles

import (
	"context"
	"log"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/contract"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/session"
)

// #region directive

// Directive is the resolved policy decision handed to the Interviewer. The
// Interviewer renders it; it never chooses the action itself.
type Directive struct {
	Action      contract.ActionType
	Topic       string
	Difficulty  int
	Instruction string
	BasePrompt  string
	FactCheck   *contract.FactCheckVerdict
}

// #endregion

// #region interviewer

// Interviewer wraps the only role that produces candidate-visible text.
type Interviewer struct {
	c   Completer
	cfg RoleConfig
}

func NewInterviewer(c Completer, cfg RoleConfig) *Interviewer {
	cfg = DefaultRoleConfig(cfg)
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	return &Interviewer{c: c, cfg: cfg}
}

// Render turns a directive into one candidate-visible message. When the role
// is unavailable or keeps violating the schema, the directive's base prompt
// (or a fixed fallback) is sent verbatim so the interview keeps moving.
func (iv *Interviewer) Render(ctx context.Context, sess *session.Session, d Directive) (contract.InterviewerOutput, error) {
	var out contract.InterviewerOutput
	err := completeJSON(ctx, iv.c, iv.cfg, "interviewer",
		interviewerSystemPrompt, interviewerUserPrompt(sess, d),
		func(raw string) error {
			parsed, err := contract.ParseInterviewer(raw)
			if err != nil {
				return err
			}
			out = parsed
			return nil
		})
	if err != nil {
		if ctx.Err() != nil {
			return contract.InterviewerOutput{}, ctx.Err()
		}
		log.Printf("[ROLES] interviewer degraded session=%s: %v", sess.ID, err)
		return degradedInterviewer(d), nil
	}
	return out, nil
}

// degradedInterviewer falls back to the deterministic bank prompt so the
// candidate still gets a well-formed question.
func degradedInterviewer(d Directive) contract.InterviewerOutput {
	msg := d.BasePrompt
	if msg == "" {
		msg = "Расскажи, пожалуйста, подробнее о своём опыте по теме " + d.Topic + "."
	}
	return contract.InterviewerOutput{
		AgentVisibleMessage: msg,
		Metadata: contract.InterviewerMetadata{
			Topic:      d.Topic,
			Intent:     d.Action,
			Difficulty: d.Difficulty,
		},
	}
}

// #endregion
