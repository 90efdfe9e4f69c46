package contract

import "strings"

// #region action-type

// ActionType is the closed set of next-action kinds a role may request
// and the policy may resolve.
type ActionType string

const (
	ActionAsk             ActionType = "ask"
	ActionClarify         ActionType = "clarify"
	ActionSimplify        ActionType = "simplify"
	ActionRefocus         ActionType = "refocus"
	ActionAnswerCandidate ActionType = "answer_candidate"
	ActionWrap            ActionType = "wrap"
	ActionEnd             ActionType = "end"
)

// observerActions are the action types the Observer is allowed to suggest.
var observerActions = map[ActionType]bool{
	ActionAsk:             true,
	ActionClarify:         true,
	ActionSimplify:        true,
	ActionRefocus:         true,
	ActionAnswerCandidate: true,
	ActionEnd:             true,
}

// interviewerIntents are the intents the Interviewer may report back.
var interviewerIntents = map[ActionType]bool{
	ActionAsk:             true,
	ActionClarify:         true,
	ActionSimplify:        true,
	ActionRefocus:         true,
	ActionAnswerCandidate: true,
	ActionWrap:            true,
}

// #endregion

// #region skill-status

// SkillStatus classifies a topic in the skill matrix.
type SkillStatus string

const (
	StatusConfirmed SkillStatus = "confirmed"
	StatusGap       SkillStatus = "gap"
	StatusUncertain SkillStatus = "uncertain"
)

// #endregion

// #region claim-risk

// ClaimRisk grades how suspicious a detected claim is.
type ClaimRisk string

const (
	RiskLow    ClaimRisk = "low"
	RiskMedium ClaimRisk = "medium"
	RiskHigh   ClaimRisk = "high"
)

// #endregion

// #region observer-output

// Robustness carries the Observer's anomaly flags for the latest candidate turn.
// The core routes on these flags but never adjudicates them.
type Robustness struct {
	OffTopic           bool `json:"off_topic"`
	RoleReversal       bool `json:"role_reversal"`
	HallucinationClaim bool `json:"hallucination_claim"`
	Evasive            bool `json:"evasive"`
}

// AnswerQuality is the Observer's coarse grade of the latest answer.
type AnswerQuality struct {
	Correctness string `json:"correctness"`
	Confidence  string `json:"confidence"`
}

// DetectedClaim is one factual claim the Observer flagged in the answer.
type DetectedClaim struct {
	Claim string    `json:"claim"`
	Risk  ClaimRisk `json:"risk"`
}

// SkillUpdate is one topic assessment produced by the Observer.
type SkillUpdate struct {
	Topic    string      `json:"topic"`
	Status   SkillStatus `json:"status"`
	Evidence string      `json:"evidence"`
}

// NextAction is the Observer's suggestion for the following turn.
type NextAction struct {
	Type                     ActionType `json:"type"`
	Topic                    string     `json:"topic"`
	InstructionToInterviewer string     `json:"instruction_to_interviewer"`
}

// ObserverOutput is the full Observer contract for one candidate turn.
type ObserverOutput struct {
	Summary         string          `json:"summary"`
	AnswerQuality   AnswerQuality   `json:"answer_quality"`
	DetectedClaims  []DetectedClaim `json:"detected_claims"`
	SkillUpdates    []SkillUpdate   `json:"skill_updates"`
	DifficultyDelta int             `json:"difficulty_delta"`
	NextAction      NextAction      `json:"next_action"`
	Robustness      Robustness      `json:"robustness"`
}

// #endregion

// #region interviewer-output

// InterviewerMetadata describes the message the Interviewer rendered.
type InterviewerMetadata struct {
	Topic      string     `json:"topic"`
	Intent     ActionType `json:"intent"`
	Difficulty int        `json:"difficulty"`
}

// InterviewerOutput is the Interviewer contract: one candidate-visible message.
type InterviewerOutput struct {
	AgentVisibleMessage string              `json:"agent_visible_message"`
	Metadata            InterviewerMetadata `json:"metadata"`
}

// #endregion

// #region extractor-output

// Level is the candidate seniority ladder the Extractor may assign.
type Level string

const (
	LevelIntern  Level = "Intern"
	LevelJunior  Level = "Junior"
	LevelMiddle  Level = "Middle"
	LevelSenior  Level = "Senior"
	LevelLead    Level = "Lead"
	LevelUnknown Level = "Unknown"
)

// levelAliases maps free-form level spellings models produce to the ladder.
var levelAliases = map[string]Level{
	"intern": LevelIntern, "стажер": LevelIntern, "стажёр": LevelIntern,
	"jr": LevelJunior, "junior": LevelJunior, "джун": LevelJunior, "джуниор": LevelJunior,
	"mid": LevelMiddle, "middle": LevelMiddle, "мидл": LevelMiddle,
	"sr": LevelSenior, "senior": LevelSenior, "сеньор": LevelSenior, "синьор": LevelSenior,
	"lead": LevelLead, "teamlead": LevelLead, "тимлид": LevelLead, "лид": LevelLead,
	"unknown": LevelUnknown, "": LevelUnknown,
}

// NormalizeLevel resolves a level string, accepting common aliases.
// The second return is false when the value maps to nothing on the ladder.
func NormalizeLevel(s string) (Level, bool) {
	if l, ok := levelAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l, true
	}
	return LevelUnknown, false
}

// FieldConfidence holds per-field extraction confidence in [0,1].
type FieldConfidence struct {
	Name     float64 `json:"name"`
	Level    float64 `json:"level"`
	Position float64 `json:"position"`
	Skills   float64 `json:"skills"`
}

// ExtractorOutput is the Extractor contract: the candidate profile.
type ExtractorOutput struct {
	Name        string          `json:"name"`
	Level       Level           `json:"level"`
	Position    string          `json:"position"`
	Skills      []string        `json:"skills"`
	Confidence  FieldConfidence `json:"confidence"`
	Assumptions []string        `json:"assumptions"`
}

// #endregion

// #region final-feedback

// Grade is the overall seniority grade in the final report.
type Grade string

const (
	GradeJunior Grade = "Junior"
	GradeMiddle Grade = "Middle"
	GradeSenior Grade = "Senior"
)

// Recommendation is the hiring recommendation in the final report.
type Recommendation string

const (
	RecHire       Recommendation = "Hire"
	RecNoHire     Recommendation = "No Hire"
	RecStrongHire Recommendation = "Strong Hire"
)

// SoftLevel grades a soft-skill dimension.
type SoftLevel string

const (
	SoftLow    SoftLevel = "Low"
	SoftMedium SoftLevel = "Medium"
	SoftHigh   SoftLevel = "High"
)

// Decision is the hiring decision block of the final report.
type Decision struct {
	Grade                Grade          `json:"Grade"`
	HiringRecommendation Recommendation `json:"HiringRecommendation"`
	ConfidenceScore      int            `json:"ConfidenceScore"`
}

// KnowledgeGap documents one confirmed gap with the expected answer.
type KnowledgeGap struct {
	Topic         string `json:"topic"`
	WhatWentWrong string `json:"what_went_wrong"`
	CorrectAnswer string `json:"correct_answer"`
	Evidence      string `json:"evidence"`
}

// HardSkills summarizes confirmed skills and knowledge gaps.
type HardSkills struct {
	ConfirmedSkills []string       `json:"ConfirmedSkills"`
	KnowledgeGaps   []KnowledgeGap `json:"KnowledgeGaps"`
}

// SoftSkills grades interaction quality across the session.
type SoftSkills struct {
	Clarity    SoftLevel `json:"Clarity"`
	Honesty    SoftLevel `json:"Honesty"`
	Engagement SoftLevel `json:"Engagement"`
	Notes      string    `json:"Notes"`
}

// RoadmapStep is one recommended follow-up for the candidate.
type RoadmapStep struct {
	Topic     string   `json:"topic"`
	Why       string   `json:"why"`
	Resources []string `json:"resources"`
}

// Roadmap lists recommended next steps.
type Roadmap struct {
	NextSteps []RoadmapStep `json:"NextSteps"`
}

// FinalFeedback is the HiringManager contract and the session's terminal artifact.
// Immutable once accepted by the report finalizer.
type FinalFeedback struct {
	Decision   Decision   `json:"Decision"`
	HardSkills HardSkills `json:"HardSkills"`
	SoftSkills SoftSkills `json:"SoftSkills"`
	Roadmap    Roadmap    `json:"Roadmap"`
	Summary    string     `json:"Summary"`
}

// #endregion

// #region factcheck

// FactCheckLabel is the closed verdict set for a checked claim.
type FactCheckLabel string

const (
	FactTrue       FactCheckLabel = "true"
	FactFalse      FactCheckLabel = "false"
	FactUncertain  FactCheckLabel = "uncertain"
	FactMisleading FactCheckLabel = "misleading"
)

// FactCheckVerdict is the optional fact-check payload passed through to the
// Interviewer on hallucination turns. The core validates its shape but never
// acts on the verdict itself.
type FactCheckVerdict struct {
	Label        FactCheckLabel `json:"label"`
	Confidence   int            `json:"confidence"`
	Correction   string         `json:"correction"`
	Explanation  string         `json:"explanation"`
	SafeResponse string         `json:"safe_response"`
	Sources      []string       `json:"sources"`
}

// #endregion
