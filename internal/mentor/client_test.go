package mentor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"peerprep/interview/internal/models"
)

func completedInterview() *models.Interview {
	return &models.Interview{
		ID:     "abc123",
		User:   "user-1",
		Status: models.StatusCompleted,
		Result: models.ResultPassed,
	}
}

func TestDispatchSuccess(t *testing.T) {
	var got dispatchRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"status":"queued"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "https://api.example.com/api/v1/interviews/{id}/mentor/review", time.Second, zap.NewNop())
	res := c.Dispatch(context.Background(), completedInterview(), "tok")

	require.True(t, res.Sent)
	assert.JSONEq(t, `{"status":"queued"}`, string(res.Response))
	assert.Equal(t, "Bearer tok", auth)
	require.NotNil(t, got.Interview)
	assert.Equal(t, "abc123", got.Interview.ID)
	assert.Equal(t, "https://api.example.com/api/v1/interviews/abc123/mentor/review", got.CallbackURL)
}

func TestDispatchPreconditionsSkipHTTP(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	res := NewClient("", "", time.Second, zap.NewNop()).Dispatch(context.Background(), completedInterview(), "tok")
	assert.Equal(t, ReasonNotConfigured, res.Reason)

	c := NewClient(server.URL, "", time.Second, zap.NewNop())

	inProgress := completedInterview()
	inProgress.Status = models.StatusInProgress
	assert.Equal(t, ReasonNotCompleted, c.Dispatch(context.Background(), inProgress, "tok").Reason)

	noResult := completedInterview()
	noResult.Result = ""
	res = c.Dispatch(context.Background(), noResult, "tok")
	assert.False(t, res.Sent)
	assert.Equal(t, ReasonNoResult, res.Reason)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestDispatchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("workflow crashed"))
	}))
	defer server.Close()

	res := NewClient(server.URL, "", time.Second, zap.NewNop()).Dispatch(context.Background(), completedInterview(), "tok")
	assert.False(t, res.Sent)
	assert.Equal(t, ReasonHTTPError, res.Reason)
	assert.Equal(t, "workflow crashed", res.ResponseText)
}

func TestDispatchRequestFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	res := NewClient(url, "", time.Second, zap.NewNop()).Dispatch(context.Background(), completedInterview(), "tok")
	assert.False(t, res.Sent)
	assert.Equal(t, ReasonRequestFailed, res.Reason)
	assert.NotEmpty(t, res.Error)
}

func TestNormaliseResponse(t *testing.T) {
	assert.Nil(t, normaliseResponse([]byte("  ")))
	assert.JSONEq(t, `{"a":1}`, string(normaliseResponse([]byte(` {"a":1} `))))
	assert.Equal(t, `"Workflow was started"`, string(normaliseResponse([]byte("Workflow was started"))))
}

func TestReviewFromResponse(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	review := ReviewFromResponse(json.RawMessage(`[{"output":{"overallCritique":"Too shallow"}}]`), now)
	require.NotNil(t, review)
	assert.Equal(t, "Too shallow", review.OverallCritique)
	assert.Equal(t, now, review.CreatedAt)

	review = ReviewFromResponse(json.RawMessage(`{"mentorAgentReview":{"missedOpportunities":"caching","createdAt":"2026-04-01T00:00:00Z"}}`), now)
	require.NotNil(t, review)
	assert.Equal(t, "caching", review.MissedOpportunities)
	assert.Equal(t, 2026, review.CreatedAt.Year())
	assert.Equal(t, time.April, review.CreatedAt.Month())

	assert.Nil(t, ReviewFromResponse(json.RawMessage(`{"status":"queued"}`), now))
	assert.Nil(t, ReviewFromResponse(json.RawMessage(`"Workflow was started"`), now))
	assert.Nil(t, ReviewFromResponse(json.RawMessage(`[]`), now))
	assert.Nil(t, ReviewFromResponse(nil, now))
}
