package report

import (
	"fmt"
	"strings"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/contract"
)

// #region renderer

// Render formats a final report as candidate-facing text. Output order is
// fixed: decision, hard skills, soft skills, roadmap, summary.
func Render(fb contract.FinalFeedback) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Итог интервью\n")
	fmt.Fprintf(&b, "Грейд: %s\n", fb.Decision.Grade)
	fmt.Fprintf(&b, "Рекомендация: %s (уверенность %d/100)\n\n", fb.Decision.HiringRecommendation, fb.Decision.ConfidenceScore)

	b.WriteString("Подтверждённые навыки:\n")
	if len(fb.HardSkills.ConfirmedSkills) == 0 {
		b.WriteString("  (нет)\n")
	}
	for _, s := range fb.HardSkills.ConfirmedSkills {
		fmt.Fprintf(&b, "  + %s\n", s)
	}

	if len(fb.HardSkills.KnowledgeGaps) > 0 {
		b.WriteString("\nПробелы:\n")
		for _, g := range fb.HardSkills.KnowledgeGaps {
			fmt.Fprintf(&b, "  - %s: %s\n", g.Topic, g.WhatWentWrong)
			if g.CorrectAnswer != "" {
				fmt.Fprintf(&b, "    Как правильно: %s\n", g.CorrectAnswer)
			}
		}
	}

	fmt.Fprintf(&b, "\nSoft skills: ясность %s, честность %s, вовлечённость %s\n",
		fb.SoftSkills.Clarity, fb.SoftSkills.Honesty, fb.SoftSkills.Engagement)
	if fb.SoftSkills.Notes != "" {
		fmt.Fprintf(&b, "Заметки: %s\n", fb.SoftSkills.Notes)
	}

	if len(fb.Roadmap.NextSteps) > 0 {
		b.WriteString("\nЧто изучить дальше:\n")
		for i, step := range fb.Roadmap.NextSteps {
			fmt.Fprintf(&b, "  %d. %s — %s\n", i+1, step.Topic, step.Why)
			for _, r := range step.Resources {
				fmt.Fprintf(&b, "     %s\n", r)
			}
		}
	}

	if fb.Summary != "" {
		fmt.Fprintf(&b, "\n%s\n", fb.Summary)
	}
	return b.String()
}

// #endregion
