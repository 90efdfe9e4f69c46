package report

import (
	"fmt"
	"strings"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/contract"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/skills"
)

// #region inconsistency

// VetoType classifies why a final report was rejected.
type VetoType string

const (
	VetoRecommendation VetoType = "recommendation"
	VetoEvidence       VetoType = "evidence"
	VetoScore          VetoType = "score"
)

// VetoSignal is one consistency check the report failed.
type VetoSignal struct {
	Type   VetoType
	Reason string
}

// InconsistentReport rejects a FinalFeedback that contradicts the skill
// matrix. The feedback is discarded, never repaired.
type InconsistentReport struct {
	Vetoes []VetoSignal
}

func (e *InconsistentReport) Error() string {
	reasons := make([]string, 0, len(e.Vetoes))
	for _, v := range e.Vetoes {
		reasons = append(reasons, fmt.Sprintf("%s: %s", v.Type, v.Reason))
	}
	return "inconsistent final report: " + strings.Join(reasons, "; ")
}

// #endregion

// #region gate

// CheckConsistency runs the hard vetoes that a final report must clear
// against the skill matrix it claims to summarize.
func CheckConsistency(fb contract.FinalFeedback, matrix *skills.Matrix) error {
	confirmed, gaps, _ := matrix.Counts()
	var vetoes []VetoSignal

	if fb.Decision.HiringRecommendation == contract.RecStrongHire && gaps >= 3 {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoRecommendation,
			Reason: fmt.Sprintf("Strong Hire with %d confirmed gaps", gaps),
		})
	}
	if fb.Decision.HiringRecommendation == contract.RecNoHire && confirmed >= 3 && gaps == 0 {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoRecommendation,
			Reason: fmt.Sprintf("No Hire with %d confirmed topics and no gaps", confirmed),
		})
	}

	for _, g := range fb.HardSkills.KnowledgeGaps {
		entry := matrix.Get(g.Topic)
		if entry == nil {
			vetoes = append(vetoes, VetoSignal{
				Type:   VetoEvidence,
				Reason: fmt.Sprintf("knowledge gap %q has no matrix entry", g.Topic),
			})
		}
	}

	if len(vetoes) > 0 {
		return &InconsistentReport{Vetoes: vetoes}
	}
	return nil
}

// #endregion
