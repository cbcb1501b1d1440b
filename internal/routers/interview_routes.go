package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"peerprep/interview/internal/handlers"
)

func InterviewRoutes(router chi.Router, interviewHandler *handlers.InterviewHandler, authn func(http.Handler) http.Handler) {
	router.Group(func(r chi.Router) {
		r.Use(authn)
		r.Post("/api/v1/interviews", interviewHandler.CreateInterviewHandler)
		r.Get("/api/v1/interviews", interviewHandler.ListInterviewsHandler)
		r.Get("/api/v1/interviews/{id}", interviewHandler.GetInterviewHandler)
	})
}
