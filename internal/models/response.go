package models

import (
	"encoding/json"
	"time"
)

// uniform error payload
type ErrorResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Reason  string                  `json:"reason,omitempty"`
	Detail  string                  `json:"detail,omitempty"`
	Details []ValidationErrorDetail `json:"details,omitempty"`
}

// implements error so request validators can return it directly
func (e *ErrorResponse) Error() string {
	return e.Message
}

// a single field error
type ValidationErrorDetail struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// response for POST /interviews
type CreateInterviewResponse struct {
	Status    string     `json:"status"`
	Questions []string   `json:"questions"`
	Interview *Interview `json:"interview"`
}

// response for GET /interviews
type InterviewsResponse struct {
	Total int         `json:"total"`
	Items []Interview `json:"items"`
}

// response for a successful mentor trigger
type MentorTriggerResponse struct {
	Message        string          `json:"message"`
	Success        bool            `json:"success"`
	InterviewID    string          `json:"interviewId"`
	MentorResponse json.RawMessage `json:"mentorResponse,omitempty"`
}

// MentorReport summarises the latest mentor review of a user.
type MentorReport struct {
	LastUpdated                         time.Time `json:"lastUpdated"`
	TotalReviews                        int       `json:"totalReviews"`
	LatestInterviewRole                 string    `json:"latestInterviewRole"`
	LatestInterviewDate                 time.Time `json:"latestInterviewDate"`
	OverallCritique                     string    `json:"overallCritique"`
	QuestionQualityIssues               string    `json:"questionQualityIssues"`
	MissedOpportunities                 string    `json:"missedOpportunities"`
	RecommendedImprovedQuestions        string    `json:"recommendedImprovedQuestions"`
	ActionableAdviceForInterviewerAgent string    `json:"actionableAdviceForInterviewerAgent"`
}

// NewMentorReport builds a report from an interview carrying a mentor review.
// Returns nil when the interview has no review.
func NewMentorReport(interview *Interview) *MentorReport {
	if interview == nil || interview.MentorAgentReview == nil {
		return nil
	}
	review := interview.MentorAgentReview
	latestDate := interview.CreatedAt
	if interview.CompletedAt != nil {
		latestDate = *interview.CompletedAt
	}
	return &MentorReport{
		LastUpdated:                         review.CreatedAt,
		TotalReviews:                        1,
		LatestInterviewRole:                 interview.JobRole,
		LatestInterviewDate:                 latestDate,
		OverallCritique:                     review.OverallCritique,
		QuestionQualityIssues:               review.QuestionQualityIssues,
		MissedOpportunities:                 review.MissedOpportunities,
		RecommendedImprovedQuestions:        review.RecommendedImprovedQuestions,
		ActionableAdviceForInterviewerAgent: review.ActionableAdviceForInterviewerAgent,
	}
}

// response for GET /mentor/reviews
type MentorReportResponse struct {
	Message string        `json:"message"`
	Report  *MentorReport `json:"report"`
}

// server-sent event payload on the report stream
type MentorStreamEvent struct {
	Type            string        `json:"type"`
	Report          *MentorReport `json:"report"`
	NewReviewsCount int           `json:"newReviewsCount,omitempty"`
	Message         string        `json:"message,omitempty"`
	Timestamp       string        `json:"timestamp,omitempty"`
}

// response for the mentor workflow callback
type MentorReviewStoredResponse struct {
	Message           string             `json:"message"`
	InterviewID       string             `json:"interviewId"`
	MentorAgentReview *MentorAgentReview `json:"mentorAgentReview"`
}
