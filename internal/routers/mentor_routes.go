package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"peerprep/interview/internal/handlers"
	"peerprep/interview/internal/middleware"
	"peerprep/interview/internal/models"
)

func MentorRoutes(router chi.Router, mentorHandler *handlers.MentorHandler, authn func(http.Handler) http.Handler) {
	router.With(authn).Post("/api/v1/interviews/{id}/mentor", mentorHandler.TriggerMentorHandler)
	router.With(authn).Get("/api/v1/mentor/reviews", mentorHandler.GetReportHandler)
	router.With(
		mentorHandler.RequireCallbackSecret,
		middleware.ValidateRequest[*models.MentorReviewCallback](),
	).Post("/api/v1/interviews/{id}/mentor/review", mentorHandler.ReviewCallbackHandler)
}

// MentorStreamRoutes registers the long-lived report stream. It must not sit
// behind a request timeout.
func MentorStreamRoutes(router chi.Router, mentorHandler *handlers.MentorHandler, queryAuthn func(http.Handler) http.Handler) {
	router.With(queryAuthn).Get("/api/v1/mentor/reviews/stream", mentorHandler.StreamReportHandler)
}
