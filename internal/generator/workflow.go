package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"peerprep/interview/internal/config"
	"peerprep/interview/internal/models"
)

// maximum workflow response size we are willing to buffer
const maxWorkflowBody = 4 << 20

func init() {
	Register(config.SourceWorkflow, func(cfg *config.Config, logger *zap.Logger) (Source, error) {
		return NewWorkflowSource(cfg.QuestionWorkflowURL, &http.Client{Timeout: cfg.WorkflowTimeout}, logger), nil
	})
}

// WorkflowSource delegates question generation to an external workflow
// engine webhook.
type WorkflowSource struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// wire format expected by the workflow webhook
type workflowRequest struct {
	ResumeURL         string  `json:"resumeurl"`
	JobDescription    string  `json:"JobDescription"`
	JobRole           string  `json:"JobRole"`
	YearsOfExperience string  `json:"yearsOfExperience"`
	MentorFeedback    *string `json:"mentorFeedback"`
}

func NewWorkflowSource(endpoint string, client *http.Client, logger *zap.Logger) *WorkflowSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &WorkflowSource{endpoint: endpoint, client: client, logger: logger}
}

func (s *WorkflowSource) Name() string {
	return config.SourceWorkflow
}

func unreachable(message string, err error) *models.AppError {
	return &models.AppError{
		Code:    models.ErrCodeWorkflowUnreachable,
		Message: message,
		Err:     err,
	}
}

func (s *WorkflowSource) Generate(ctx context.Context, req Request) (*Generation, error) {
	if s.endpoint == "" {
		return nil, unreachable("Question workflow endpoint not configured", nil)
	}

	body, err := json.Marshal(workflowRequest{
		ResumeURL:         req.ResumeURL,
		JobDescription:    req.JobDescription,
		JobRole:           req.JobRole,
		YearsOfExperience: strconv.Itoa(req.YearsOfExperience),
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, unreachable("Failed to build workflow request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, unreachable("Workflow request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxWorkflowBody))
	if err != nil {
		return nil, unreachable("Failed to read workflow response", err)
	}

	s.logger.Info("question workflow responded",
		zap.Int("upstream_status", resp.StatusCode),
		zap.Int("body_bytes", len(raw)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || strings.TrimSpace(string(raw)) == "" {
		return nil, unreachable("Workflow failed or returned empty response", nil).WithDetail(string(raw))
	}

	return ParsePayload(raw)
}
