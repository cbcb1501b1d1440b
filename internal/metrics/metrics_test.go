package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware("interview-test"))
	r.Get("/api/v1/interviews/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b", "c"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/interviews/"+id, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	got := testutil.ToFloat64(httpRequests.WithLabelValues("interview-test", http.MethodGet, "/api/v1/interviews/{id}", "418"))
	if got != 3 {
		t.Fatalf("expected 3 requests recorded under the route pattern, got %v", got)
	}
}

func TestRecorderFlushes(t *testing.T) {
	w := httptest.NewRecorder()
	rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
	rec.Flush()
	if !w.Flushed {
		t.Fatal("expected flush to reach the underlying writer")
	}
}

func TestDomainCounters(t *testing.T) {
	RecordQuestionGeneration("workflow", "success")
	RecordQuestionGeneration("workflow", "success")
	if got := testutil.ToFloat64(questionGenerations.WithLabelValues("workflow", "success")); got != 2 {
		t.Fatalf("expected 2 generations, got %v", got)
	}

	RecordMentorDispatch("sent")
	if got := testutil.ToFloat64(mentorDispatches.WithLabelValues("sent")); got != 1 {
		t.Fatalf("expected 1 dispatch, got %v", got)
	}

	RecordResumeUpload("success")
	if got := testutil.ToFloat64(resumeUploads.WithLabelValues("success")); got != 1 {
		t.Fatalf("expected 1 upload, got %v", got)
	}

	SetAwaitingMentorReview(7)
	if got := testutil.ToFloat64(awaitingMentorReview); got != 7 {
		t.Fatalf("expected gauge 7, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	SetAwaitingMentorReview(1)
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), "peerprep_interview_awaiting_mentor_review") {
		t.Fatal("expected interview gauge in exposition")
	}
}
