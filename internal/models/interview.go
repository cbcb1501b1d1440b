package models

import (
	"encoding/json"
	"time"
)

// status of an interview attempt. completion is driven by the
// interview-taking flow, this service only observes it
type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// outcome of a completed interview
type Result string

const (
	ResultPassed          Result = "passed"
	ResultPassedWithNotes Result = "passed-with-notes"
	ResultFailed          Result = "failed"
)

// MaxQuestions caps how many generated questions an interview keeps
const MaxQuestions = 15

// Interview is the aggregate record of one mock-interview attempt.
type Interview struct {
	ID                string             `json:"id"`
	User              string             `json:"user"`
	JobRole           string             `json:"jobRole"`
	TechStack         []string           `json:"techStack"`
	YearsOfExperience int                `json:"yearsOfExperience"`
	ResumeURL         string             `json:"resumeUrl"`
	Questions         []QuestionEntry    `json:"questions"`
	WorkflowQuestions json.RawMessage    `json:"workflowQuestions,omitempty"`
	Status            Status             `json:"status"`
	OverallScore      *float64           `json:"overallScore,omitempty"`
	Result            Result             `json:"result,omitempty"`
	MentorReviewUsed  bool               `json:"mentorReviewUsed"`
	MentorAgentReview *MentorAgentReview `json:"mentorAgentReview,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
	CompletedAt       *time.Time         `json:"completedAt,omitempty"`
}

// single question with the user's answer and its analysis
type QuestionEntry struct {
	Text     string          `json:"text"`
	Answer   string          `json:"answer"`
	Analysis json.RawMessage `json:"analysis"`
}

// MentorAgentReview is the critique produced by the mentor workflow.
type MentorAgentReview struct {
	OverallCritique                     string    `json:"overallCritique"`
	QuestionQualityIssues               string    `json:"questionQualityIssues"`
	MissedOpportunities                 string    `json:"missedOpportunities"`
	RecommendedImprovedQuestions        string    `json:"recommendedImprovedQuestions"`
	ActionableAdviceForInterviewerAgent string    `json:"actionableAdviceForInterviewerAgent"`
	CreatedAt                           time.Time `json:"createdAt"`
}

// IsEmpty reports whether none of the critique fields carry content.
func (r *MentorAgentReview) IsEmpty() bool {
	if r == nil {
		return true
	}
	return r.OverallCritique == "" &&
		r.QuestionQualityIssues == "" &&
		r.MissedOpportunities == "" &&
		r.RecommendedImprovedQuestions == "" &&
		r.ActionableAdviceForInterviewerAgent == ""
}

// DeriveResult maps an overall score onto a pass/fail verdict.
func DeriveResult(score float64) Result {
	switch {
	case score >= 70:
		return ResultPassed
	case score >= 50:
		return ResultPassedWithNotes
	default:
		return ResultFailed
	}
}

// NewQuestionEntries turns generated question texts into unanswered entries.
func NewQuestionEntries(texts []string) []QuestionEntry {
	entries := make([]QuestionEntry, 0, len(texts))
	for _, text := range texts {
		entries = append(entries, QuestionEntry{Text: text, Answer: ""})
	}
	return entries
}

// QuestionTexts returns the question texts in order
func (i *Interview) QuestionTexts() []string {
	texts := make([]string, 0, len(i.Questions))
	for _, q := range i.Questions {
		texts = append(texts, q.Text)
	}
	return texts
}
