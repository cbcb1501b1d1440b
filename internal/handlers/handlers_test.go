package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"peerprep/interview/internal/auth"
	"peerprep/interview/internal/events"
	"peerprep/interview/internal/interview"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/repositories"
)

const (
	testUser  = "user-1"
	testToken = "token-abc"
)

type fakeInterviewService struct {
	createFn func(context.Context, string, *models.CreateInterviewRequest) (*models.Interview, error)
	getFn    func(context.Context, string, string) (*models.Interview, error)
	listFn   func(context.Context, string) ([]models.Interview, error)
}

func (f *fakeInterviewService) Create(ctx context.Context, userID string, req *models.CreateInterviewRequest) (*models.Interview, error) {
	if f.createFn != nil {
		return f.createFn(ctx, userID, req)
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeInterviewService) Get(ctx context.Context, userID, id string) (*models.Interview, error) {
	if f.getFn != nil {
		return f.getFn(ctx, userID, id)
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeInterviewService) List(ctx context.Context, userID string) ([]models.Interview, error) {
	if f.listFn != nil {
		return f.listFn(ctx, userID)
	}
	return nil, nil
}

type fakeTrigger struct {
	triggerFn func(context.Context, string, string, string) (*interview.TriggerResult, error)
}

func (f *fakeTrigger) Trigger(ctx context.Context, userID, token, interviewID string) (*interview.TriggerResult, error) {
	return f.triggerFn(ctx, userID, token, interviewID)
}

type fakeReports struct {
	latestFn    func(context.Context, string) (*models.MentorReport, error)
	saveFn      func(context.Context, string, *models.MentorReviewCallback) (*models.MentorAgentReview, error)
	subscribeFn func(context.Context, string) (<-chan events.ReviewReady, func(), error)
}

func (f *fakeReports) LatestReport(ctx context.Context, userID string) (*models.MentorReport, error) {
	if f.latestFn != nil {
		return f.latestFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeReports) SaveReview(ctx context.Context, interviewID string, cb *models.MentorReviewCallback) (*models.MentorAgentReview, error) {
	if f.saveFn != nil {
		return f.saveFn(ctx, interviewID, cb)
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeReports) Subscribe(ctx context.Context, userID string) (<-chan events.ReviewReady, func(), error) {
	if f.subscribeFn != nil {
		return f.subscribeFn(ctx, userID)
	}
	return nil, func() {}, nil
}

// withIdentity stands in for the auth middleware.
func withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), testUser, testToken)))
	})
}

func authedRouter(register func(r chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Use(withIdentity)
	register(r)
	return r
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
