package contract

import (
	"encoding/json"
	"strconv"
	"strings"
)

// #region observer

// ParseObserver extracts and validates an Observer payload from raw role text.
func ParseObserver(text string) (ObserverOutput, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return ObserverOutput{}, violation("observer", "", err.Error())
	}
	return ValidateObserver([]byte(raw))
}

// ValidateObserver checks an Observer JSON object against its contract.
func ValidateObserver(raw []byte) (ObserverOutput, error) {
	const role = "observer"
	obj, err := decodeObject(role, raw)
	if err != nil {
		return ObserverOutput{}, err
	}
	if err := checkFields(role, obj, []string{
		"summary", "answer_quality", "detected_claims", "skill_updates",
		"difficulty_delta", "next_action", "robustness",
	}); err != nil {
		return ObserverOutput{}, err
	}

	var out ObserverOutput
	if err := json.Unmarshal(obj["summary"], &out.Summary); err != nil {
		return ObserverOutput{}, violation(role, "summary", "must be a string")
	}
	if err := json.Unmarshal(obj["answer_quality"], &out.AnswerQuality); err != nil {
		return ObserverOutput{}, violation(role, "answer_quality", "must be an object")
	}
	if err := json.Unmarshal(obj["detected_claims"], &out.DetectedClaims); err != nil {
		return ObserverOutput{}, violation(role, "detected_claims", "must be a list of claims")
	}
	for i, c := range out.DetectedClaims {
		switch c.Risk {
		case RiskLow, RiskMedium, RiskHigh:
		default:
			return ObserverOutput{}, violation(role, "detected_claims", "entry "+strconv.Itoa(i)+": risk must be low|medium|high")
		}
	}
	if err := json.Unmarshal(obj["skill_updates"], &out.SkillUpdates); err != nil {
		return ObserverOutput{}, violation(role, "skill_updates", "must be a list of updates")
	}
	for i, u := range out.SkillUpdates {
		if strings.TrimSpace(u.Topic) == "" {
			return ObserverOutput{}, violation(role, "skill_updates", "entry "+strconv.Itoa(i)+": topic must be non-empty")
		}
		switch u.Status {
		case StatusConfirmed, StatusGap, StatusUncertain:
		default:
			return ObserverOutput{}, violation(role, "skill_updates", "entry "+strconv.Itoa(i)+": status must be confirmed|gap|uncertain")
		}
	}
	if err := json.Unmarshal(obj["difficulty_delta"], &out.DifficultyDelta); err != nil {
		return ObserverOutput{}, violation(role, "difficulty_delta", "must be an integer")
	}
	if out.DifficultyDelta < -2 || out.DifficultyDelta > 2 {
		return ObserverOutput{}, violation(role, "difficulty_delta", "must be between -2 and 2")
	}

	naObj, err := decodeObject(role, obj["next_action"])
	if err != nil {
		return ObserverOutput{}, violation(role, "next_action", "must be an object")
	}
	if err := checkFields(role, naObj, []string{"type", "topic", "instruction_to_interviewer"}); err != nil {
		return ObserverOutput{}, err
	}
	if err := json.Unmarshal(obj["next_action"], &out.NextAction); err != nil {
		return ObserverOutput{}, violation(role, "next_action", "malformed")
	}
	if !observerActions[out.NextAction.Type] {
		return ObserverOutput{}, violation(role, "next_action.type", "must be ask|clarify|simplify|refocus|answer_candidate|end")
	}
	if strings.TrimSpace(out.NextAction.InstructionToInterviewer) == "" {
		return ObserverOutput{}, violation(role, "next_action.instruction_to_interviewer", "must be non-empty")
	}

	robObj, err := decodeObject(role, obj["robustness"])
	if err != nil {
		return ObserverOutput{}, violation(role, "robustness", "must be an object")
	}
	if err := checkFields(role, robObj, []string{"off_topic", "role_reversal", "hallucination_claim", "evasive"}); err != nil {
		return ObserverOutput{}, err
	}
	for _, key := range []string{"off_topic", "role_reversal", "hallucination_claim", "evasive"} {
		var b bool
		if err := json.Unmarshal(robObj[key], &b); err != nil {
			return ObserverOutput{}, violation(role, "robustness."+key, "must be a boolean")
		}
	}
	if err := json.Unmarshal(obj["robustness"], &out.Robustness); err != nil {
		return ObserverOutput{}, violation(role, "robustness", "malformed")
	}

	return out, nil
}

// #endregion

// #region interviewer

// ParseInterviewer extracts and validates an Interviewer payload.
func ParseInterviewer(text string) (InterviewerOutput, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return InterviewerOutput{}, violation("interviewer", "", err.Error())
	}
	return ValidateInterviewer([]byte(raw))
}

// ValidateInterviewer checks an Interviewer JSON object against its contract.
func ValidateInterviewer(raw []byte) (InterviewerOutput, error) {
	const role = "interviewer"
	obj, err := decodeObject(role, raw)
	if err != nil {
		return InterviewerOutput{}, err
	}
	if err := checkFields(role, obj, []string{"agent_visible_message", "metadata"}); err != nil {
		return InterviewerOutput{}, err
	}

	var out InterviewerOutput
	if err := json.Unmarshal(obj["agent_visible_message"], &out.AgentVisibleMessage); err != nil {
		return InterviewerOutput{}, violation(role, "agent_visible_message", "must be a string")
	}
	trimmed := strings.TrimSpace(out.AgentVisibleMessage)
	if len(trimmed) < 10 || len(out.AgentVisibleMessage) > 1200 {
		return InterviewerOutput{}, violation(role, "agent_visible_message", "must be 10..1200 characters")
	}

	metaObj, err := decodeObject(role, obj["metadata"])
	if err != nil {
		return InterviewerOutput{}, violation(role, "metadata", "must be an object")
	}
	if err := checkFields(role, metaObj, []string{"topic", "intent", "difficulty"}); err != nil {
		return InterviewerOutput{}, err
	}
	if err := json.Unmarshal(obj["metadata"], &out.Metadata); err != nil {
		return InterviewerOutput{}, violation(role, "metadata", "malformed")
	}
	if !interviewerIntents[out.Metadata.Intent] {
		return InterviewerOutput{}, violation(role, "metadata.intent", "must be ask|clarify|simplify|refocus|answer_candidate|wrap")
	}
	if out.Metadata.Difficulty < 1 || out.Metadata.Difficulty > 5 {
		return InterviewerOutput{}, violation(role, "metadata.difficulty", "must be between 1 and 5")
	}

	return out, nil
}

// #endregion

// #region extractor

// ParseExtractor extracts and validates an Extractor payload.
func ParseExtractor(text string) (ExtractorOutput, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return ExtractorOutput{}, violation("extractor", "", err.Error())
	}
	return ValidateExtractor([]byte(raw))
}

// ValidateExtractor checks an Extractor JSON object against its contract.
func ValidateExtractor(raw []byte) (ExtractorOutput, error) {
	const role = "extractor"
	obj, err := decodeObject(role, raw)
	if err != nil {
		return ExtractorOutput{}, err
	}
	if err := checkFields(role, obj,
		[]string{"name", "level", "position", "skills"},
		"confidence", "assumptions",
	); err != nil {
		return ExtractorOutput{}, err
	}

	var out ExtractorOutput
	if err := json.Unmarshal(obj["name"], &out.Name); err != nil {
		return ExtractorOutput{}, violation(role, "name", "must be a string")
	}
	if err := json.Unmarshal(obj["level"], &out.Level); err != nil {
		return ExtractorOutput{}, violation(role, "level", "must be a string")
	}
	level, ok := NormalizeLevel(string(out.Level))
	if !ok {
		return ExtractorOutput{}, violation(role, "level", "must be Intern|Junior|Middle|Senior|Lead|Unknown or a known alias")
	}
	out.Level = level
	if err := json.Unmarshal(obj["position"], &out.Position); err != nil {
		return ExtractorOutput{}, violation(role, "position", "must be a string")
	}
	if err := json.Unmarshal(obj["skills"], &out.Skills); err != nil {
		return ExtractorOutput{}, violation(role, "skills", "must be a list of strings")
	}
	if raw, ok := obj["confidence"]; ok {
		if err := json.Unmarshal(raw, &out.Confidence); err != nil {
			return ExtractorOutput{}, violation(role, "confidence", "must be an object of numbers")
		}
		for field, v := range map[string]float64{
			"name": out.Confidence.Name, "level": out.Confidence.Level,
			"position": out.Confidence.Position, "skills": out.Confidence.Skills,
		} {
			if v < 0 || v > 1 {
				return ExtractorOutput{}, violation(role, "confidence."+field, "must be in [0,1]")
			}
		}
	}
	if raw, ok := obj["assumptions"]; ok {
		if err := json.Unmarshal(raw, &out.Assumptions); err != nil {
			return ExtractorOutput{}, violation(role, "assumptions", "must be a list of strings")
		}
	}

	return out, nil
}

// #endregion

// #region final-feedback

// ParseFinalFeedback extracts and validates a HiringManager payload.
func ParseFinalFeedback(text string) (FinalFeedback, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return FinalFeedback{}, violation("hiring_manager", "", err.Error())
	}
	return ValidateFinalFeedback([]byte(raw))
}

// ValidateFinalFeedback checks a HiringManager JSON object against its contract.
func ValidateFinalFeedback(raw []byte) (FinalFeedback, error) {
	const role = "hiring_manager"
	obj, err := decodeObject(role, raw)
	if err != nil {
		return FinalFeedback{}, err
	}
	if err := checkFields(role, obj, []string{"Decision", "HardSkills", "SoftSkills", "Roadmap", "Summary"}); err != nil {
		return FinalFeedback{}, err
	}

	var out FinalFeedback
	decObj, err := decodeObject(role, obj["Decision"])
	if err != nil {
		return FinalFeedback{}, violation(role, "Decision", "must be an object")
	}
	if err := checkFields(role, decObj, []string{"Grade", "HiringRecommendation", "ConfidenceScore"}); err != nil {
		return FinalFeedback{}, err
	}
	if err := json.Unmarshal(obj["Decision"], &out.Decision); err != nil {
		return FinalFeedback{}, violation(role, "Decision", "malformed")
	}
	switch out.Decision.Grade {
	case GradeJunior, GradeMiddle, GradeSenior:
	default:
		return FinalFeedback{}, violation(role, "Decision.Grade", "must be Junior|Middle|Senior")
	}
	switch out.Decision.HiringRecommendation {
	case RecHire, RecNoHire, RecStrongHire:
	default:
		return FinalFeedback{}, violation(role, "Decision.HiringRecommendation", "must be Hire|No Hire|Strong Hire")
	}
	if out.Decision.ConfidenceScore < 0 || out.Decision.ConfidenceScore > 100 {
		return FinalFeedback{}, violation(role, "Decision.ConfidenceScore", "must be in [0,100]")
	}

	if err := json.Unmarshal(obj["HardSkills"], &out.HardSkills); err != nil {
		return FinalFeedback{}, violation(role, "HardSkills", "malformed")
	}
	for i, gap := range out.HardSkills.KnowledgeGaps {
		if strings.TrimSpace(gap.CorrectAnswer) == "" {
			return FinalFeedback{}, violation(role, "HardSkills.KnowledgeGaps", "entry "+strconv.Itoa(i)+": correct_answer must be non-empty")
		}
	}

	if err := json.Unmarshal(obj["SoftSkills"], &out.SoftSkills); err != nil {
		return FinalFeedback{}, violation(role, "SoftSkills", "malformed")
	}
	for field, v := range map[string]SoftLevel{
		"Clarity": out.SoftSkills.Clarity, "Honesty": out.SoftSkills.Honesty, "Engagement": out.SoftSkills.Engagement,
	} {
		switch v {
		case SoftLow, SoftMedium, SoftHigh:
		default:
			return FinalFeedback{}, violation(role, "SoftSkills."+field, "must be Low|Medium|High")
		}
	}

	if err := json.Unmarshal(obj["Roadmap"], &out.Roadmap); err != nil {
		return FinalFeedback{}, violation(role, "Roadmap", "malformed")
	}
	if err := json.Unmarshal(obj["Summary"], &out.Summary); err != nil {
		return FinalFeedback{}, violation(role, "Summary", "must be a string")
	}
	if len(out.HardSkills.KnowledgeGaps) > 0 && len(out.Roadmap.NextSteps) == 0 {
		return FinalFeedback{}, violation(role, "Roadmap.NextSteps", "must be non-empty when KnowledgeGaps exist")
	}

	return out, nil
}

// #endregion

// #region factcheck

// ParseFactCheck extracts and validates a fact-check verdict from raw role text.
func ParseFactCheck(text string) (FactCheckVerdict, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return FactCheckVerdict{}, violation("factcheck", "", err.Error())
	}
	return ValidateFactCheck([]byte(raw))
}

// ValidateFactCheck checks a fact-check verdict. The verdict is pass-through
// context for the Interviewer; it gets its own schema instead of untyped JSON.
func ValidateFactCheck(raw []byte) (FactCheckVerdict, error) {
	const role = "factcheck"
	obj, err := decodeObject(role, raw)
	if err != nil {
		return FactCheckVerdict{}, err
	}
	if err := checkFields(role, obj,
		[]string{"label", "confidence", "correction", "explanation", "safe_response"},
		"sources",
	); err != nil {
		return FactCheckVerdict{}, err
	}

	var out FactCheckVerdict
	if err := json.Unmarshal(raw, &out); err != nil {
		return FactCheckVerdict{}, violation(role, "", "malformed")
	}
	switch out.Label {
	case FactTrue, FactFalse, FactUncertain, FactMisleading:
	default:
		return FactCheckVerdict{}, violation(role, "label", "must be true|false|uncertain|misleading")
	}
	if out.Confidence < 0 || out.Confidence > 100 {
		return FactCheckVerdict{}, violation(role, "confidence", "must be in [0,100]")
	}
	if strings.TrimSpace(out.SafeResponse) == "" {
		return FactCheckVerdict{}, violation(role, "safe_response", "must be non-empty")
	}

	return out, nil
}

// #endregion

