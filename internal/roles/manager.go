package roles

import (
	"context"
	"errors"
	"log"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/contract"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/session"
)

// ErrSessionStillOpen is returned when final feedback is requested for a
// session that has not terminated.
var ErrSessionStillOpen = errors.New("hiring manager invoked before session terminated")

// #region hiring-manager

// HiringManager wraps the final-report role. It may only run after the
// session has terminated; the finalizer enforces at-most-once on top.
type HiringManager struct {
	c   Completer
	cfg RoleConfig
}

func NewHiringManager(c Completer, cfg RoleConfig) *HiringManager {
	cfg = DefaultRoleConfig(cfg)
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	return &HiringManager{c: c, cfg: cfg}
}

// Report produces the final feedback from the completed session. Degrades to
// a minimal low-confidence report derived from the skill matrix.
func (m *HiringManager) Report(ctx context.Context, sess *session.Session) (contract.FinalFeedback, error) {
	if !sess.Terminated() {
		return contract.FinalFeedback{}, ErrSessionStillOpen
	}
	var out contract.FinalFeedback
	err := completeJSON(ctx, m.c, m.cfg, "hiring_manager",
		managerSystemPrompt, managerUserPrompt(sess),
		func(raw string) error {
			parsed, err := contract.ParseFinalFeedback(raw)
			if err != nil {
				return err
			}
			out = parsed
			return nil
		})
	if err != nil {
		if ctx.Err() != nil {
			return contract.FinalFeedback{}, ctx.Err()
		}
		log.Printf("[ROLES] hiring manager degraded session=%s: %v", sess.ID, err)
		return degradedFeedback(sess), nil
	}
	return out, nil
}

// degradedFeedback derives a conservative report straight from the skill
// matrix when the role is unavailable. Recommendation follows the gap count
// so the report stays internally consistent.
func degradedFeedback(sess *session.Session) contract.FinalFeedback {
	confirmed, gaps, _ := sess.Skills.Counts()
	rec := contract.RecHire
	if gaps > 0 && gaps >= confirmed {
		rec = contract.RecNoHire
	}

	var confirmedSkills []string
	var knowledgeGaps []contract.KnowledgeGap
	var steps []contract.RoadmapStep
	for _, e := range sess.Skills.Entries() {
		switch e.Status {
		case contract.StatusConfirmed:
			confirmedSkills = append(confirmedSkills, e.Topic)
		case contract.StatusGap:
			evidence := ""
			if len(e.Evidence) > 0 {
				evidence = e.Evidence[len(e.Evidence)-1]
			}
			knowledgeGaps = append(knowledgeGaps, contract.KnowledgeGap{
				Topic:         e.Topic,
				WhatWentWrong: "тема не раскрыта в ходе интервью",
				CorrectAnswer: "требуется разбор темы " + e.Topic,
				Evidence:      evidence,
			})
			steps = append(steps, contract.RoadmapStep{
				Topic: e.Topic,
				Why:   "выявлен пробел в ходе интервью",
			})
		}
	}

	return contract.FinalFeedback{
		Decision: contract.Decision{
			Grade:                contract.GradeJunior,
			HiringRecommendation: rec,
			ConfidenceScore:      10,
		},
		HardSkills: contract.HardSkills{ConfirmedSkills: confirmedSkills, KnowledgeGaps: knowledgeGaps},
		SoftSkills: contract.SoftSkills{
			Clarity:    contract.SoftMedium,
			Honesty:    contract.SoftMedium,
			Engagement: contract.SoftMedium,
			Notes:      "автоматическая оценка недоступна, отчёт построен по матрице навыков",
		},
		Roadmap: contract.Roadmap{NextSteps: steps},
		Summary: "Отчёт сформирован без участия Hiring Manager; оценка основана только на матрице навыков.",
	}
}

// #endregion
