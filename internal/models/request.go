package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// FlexibleNumber accepts a JSON number or a numeric string. Form posts send
// yearsOfExperience as text while JSON clients send a number. The zero value
// means the field was absent.
type FlexibleNumber string

// FlexibleNumberFromText reads a submitted text value. A blank value counts
// as 0.
func FlexibleNumberFromText(s string) FlexibleNumber {
	s = strings.TrimSpace(s)
	if s == "" {
		return "0"
	}
	return FlexibleNumber(s)
}

func (n *FlexibleNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = "0"
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = FlexibleNumberFromText(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*n = FlexibleNumber(num.String())
	return nil
}

// Int parses the value as a non-negative whole number.
func (n FlexibleNumber) Int() (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// CreateInterviewRequest is the body of POST /interviews. The résumé arrives
// either as base64 (JSON clients) or as a multipart file part, which the
// handler reads into ResumeFile.
type CreateInterviewRequest struct {
	JobDescription    string         `json:"JobDescription"`
	JobRole           string         `json:"JobRole"`
	YearsOfExperience FlexibleNumber `json:"yearsOfExperience"`
	ResumeFileBase64  string         `json:"resumeFileBase64"`
	ResumeFileName    string         `json:"resumeFileName"`
	ResumeFileType    string         `json:"resumeFileType"`

	ResumeFile *UploadedFile `json:"-"`
}

// raw résumé file from a multipart upload
type UploadedFile struct {
	Name        string
	ContentType string
	Content     []byte
}

// implements the Validator interface
func (r *CreateInterviewRequest) Validate() error {
	r.JobDescription = strings.TrimSpace(r.JobDescription)
	r.JobRole = strings.TrimSpace(r.JobRole)

	var details []ValidationErrorDetail
	if r.ResumeFileBase64 == "" && (r.ResumeFile == nil || len(r.ResumeFile.Content) == 0) {
		details = append(details, ValidationErrorDetail{Field: "resume", Reason: "resumeFile or resumeFileBase64 is required"})
	}
	if r.JobDescription == "" {
		details = append(details, ValidationErrorDetail{Field: "JobDescription", Reason: "required"})
	}
	if r.JobRole == "" {
		details = append(details, ValidationErrorDetail{Field: "JobRole", Reason: "required"})
	}
	if _, ok := r.YearsOfExperience.Int(); !ok {
		details = append(details, ValidationErrorDetail{Field: "yearsOfExperience", Reason: "must be a non-negative whole number"})
	}

	if len(details) > 0 {
		return &ErrorResponse{
			Code:    ErrCodeMissingFields,
			Message: "Missing required fields",
			Details: details,
		}
	}
	return nil
}

// MentorReviewCallback is posted by the mentor workflow once a review is ready.
type MentorReviewCallback struct {
	OverallCritique                     string     `json:"overallCritique"`
	QuestionQualityIssues               string     `json:"questionQualityIssues"`
	MissedOpportunities                 string     `json:"missedOpportunities"`
	RecommendedImprovedQuestions        string     `json:"recommendedImprovedQuestions"`
	ActionableAdviceForInterviewerAgent string     `json:"actionableAdviceForInterviewerAgent"`
	CreatedAt                           *time.Time `json:"createdAt,omitempty"`
}

// implements the Validator interface
func (c *MentorReviewCallback) Validate() error {
	if c.Review(time.Time{}).IsEmpty() {
		return &ErrorResponse{
			Code:    ErrCodeInvalidRequest,
			Message: "Mentor review must contain at least one critique field",
		}
	}
	return nil
}

// Review converts the callback into a stored review, stamping now when the
// workflow did not send a creation time.
func (c *MentorReviewCallback) Review(now time.Time) *MentorAgentReview {
	createdAt := now
	if c.CreatedAt != nil && !c.CreatedAt.IsZero() {
		createdAt = *c.CreatedAt
	}
	return &MentorAgentReview{
		OverallCritique:                     c.OverallCritique,
		QuestionQualityIssues:               c.QuestionQualityIssues,
		MissedOpportunities:                 c.MissedOpportunities,
		RecommendedImprovedQuestions:        c.RecommendedImprovedQuestions,
		ActionableAdviceForInterviewerAgent: c.ActionableAdviceForInterviewerAgent,
		CreatedAt:                           createdAt,
	}
}
