package mentor

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"peerprep/interview/internal/models"
)

// reasons a dispatch was not sent
const (
	ReasonNotConfigured = "not_configured"
	ReasonNotCompleted  = "not_completed"
	ReasonNoResult      = "no_result"
	ReasonRequestFailed = "request_failed"
	ReasonHTTPError     = "http_error"
)

const maxResponseBody = 1 << 20

// Result describes the outcome of one call to the mentor workflow.
type Result struct {
	Sent         bool            `json:"sent"`
	Response     json.RawMessage `json:"response,omitempty"`
	Reason       string          `json:"reason,omitempty"`
	Error        string          `json:"error,omitempty"`
	ResponseText string          `json:"responseText,omitempty"`
}

// Dispatcher submits a completed interview for mentor review.
type Dispatcher interface {
	Dispatch(ctx context.Context, interview *models.Interview, token string) *Result
}

// Client posts interviews to the mentor workflow webhook
type Client struct {
	endpoint    string
	callbackURL string
	client      *http.Client
	logger      *zap.Logger
}

type dispatchRequest struct {
	Interview   *models.Interview `json:"interview"`
	CallbackURL string            `json:"callbackUrl,omitempty"`
}

// callbackURL may contain an {id} placeholder for the interview id
func NewClient(endpoint, callbackURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		endpoint:    endpoint,
		callbackURL: callbackURL,
		client:      &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

func (c *Client) Dispatch(ctx context.Context, interview *models.Interview, token string) *Result {
	if c.endpoint == "" {
		return &Result{Reason: ReasonNotConfigured, Error: "mentor workflow endpoint not configured"}
	}
	if interview.Status != models.StatusCompleted {
		return &Result{Reason: ReasonNotCompleted, Error: "interview is not completed"}
	}
	if interview.Result == "" {
		return &Result{Reason: ReasonNoResult, Error: "interview has no result"}
	}

	body, err := json.Marshal(dispatchRequest{
		Interview:   interview,
		CallbackURL: strings.ReplaceAll(c.callbackURL, "{id}", interview.ID),
	})
	if err != nil {
		return &Result{Reason: ReasonRequestFailed, Error: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &Result{Reason: ReasonRequestFailed, Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("mentor workflow request failed",
			zap.String("interview_id", interview.ID),
			zap.Error(err))
		return &Result{Reason: ReasonRequestFailed, Error: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &Result{Reason: ReasonRequestFailed, Error: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("mentor workflow returned error status",
			zap.String("interview_id", interview.ID),
			zap.Int("upstream_status", resp.StatusCode))
		return &Result{
			Reason:       ReasonHTTPError,
			Error:        http.StatusText(resp.StatusCode),
			ResponseText: string(raw),
		}
	}

	return &Result{Sent: true, Response: normaliseResponse(raw)}
}

// keeps JSON replies as-is and wraps anything else as a JSON string
func normaliseResponse(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	encoded, _ := json.Marshal(string(trimmed))
	return encoded
}

// ReviewFromResponse pulls a mentor review out of a synchronous workflow
// reply. Returns nil when the reply carries no critique.
func ReviewFromResponse(raw json.RawMessage, now time.Time) *models.MentorAgentReview {
	if len(raw) == 0 {
		return nil
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	if items, ok := payload.([]any); ok {
		if len(items) == 0 {
			return nil
		}
		payload = items[0]
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil
	}
	for _, key := range []string{"mentorAgentReview", "review", "output"} {
		if nested, ok := obj[key].(map[string]any); ok {
			obj = nested
			break
		}
	}

	encoded, err := json.Marshal(obj)
	if err != nil {
		return nil
	}
	var cb models.MentorReviewCallback
	if err := json.Unmarshal(encoded, &cb); err != nil {
		return nil
	}
	review := cb.Review(now)
	if review.IsEmpty() {
		return nil
	}
	return review
}
