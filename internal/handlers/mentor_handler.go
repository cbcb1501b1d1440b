package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"peerprep/interview/internal/auth"
	"peerprep/interview/internal/events"
	"peerprep/interview/internal/interview"
	"peerprep/interview/internal/middleware"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/utils"
)

const mentorSecretHeader = "X-Mentor-Secret"

type MentorTrigger interface {
	Trigger(ctx context.Context, userID, token, interviewID string) (*interview.TriggerResult, error)
}

type ReportService interface {
	LatestReport(ctx context.Context, userID string) (*models.MentorReport, error)
	SaveReview(ctx context.Context, interviewID string, cb *models.MentorReviewCallback) (*models.MentorAgentReview, error)
	Subscribe(ctx context.Context, userID string) (<-chan events.ReviewReady, func(), error)
}

// StreamConfig controls the report event stream cadence.
type StreamConfig struct {
	PollInterval      time.Duration
	KeepAliveInterval time.Duration
}

type MentorHandler struct {
	gate           MentorTrigger
	reports        ReportService
	callbackSecret string
	stream         StreamConfig
	production     bool
	logger         *zap.Logger
	now            func() time.Time
}

func NewMentorHandler(gate MentorTrigger, reports ReportService, callbackSecret string, stream StreamConfig, production bool, logger *zap.Logger) *MentorHandler {
	return &MentorHandler{
		gate:           gate,
		reports:        reports,
		callbackSecret: callbackSecret,
		stream:         stream,
		production:     production,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (handler *MentorHandler) TriggerMentorHandler(writer http.ResponseWriter, request *http.Request) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		unauthenticated(writer)
		return
	}
	interviewID := chi.URLParam(request, "id")

	result, err := handler.gate.Trigger(request.Context(), userID, auth.TokenFromContext(request.Context()), interviewID)
	if err != nil {
		writeError(writer, err, handler.production)
		return
	}

	message := "Mentor review triggered successfully"
	if result.Retried {
		message = "Mentor review triggered successfully after setting result"
	}
	utils.JSON(writer, http.StatusOK, models.MentorTriggerResponse{
		Message:        message,
		Success:        true,
		InterviewID:    interviewID,
		MentorResponse: result.Response,
	})
}

func (handler *MentorHandler) GetReportHandler(writer http.ResponseWriter, request *http.Request) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		unauthenticated(writer)
		return
	}

	report, err := handler.reports.LatestReport(request.Context(), userID)
	if err != nil {
		handler.logger.Error("failed to load mentor report", zap.String("user_id", userID), zap.Error(err))
		writeError(writer, err, handler.production)
		return
	}

	utils.JSON(writer, http.StatusOK, models.MentorReportResponse{
		Message: "Comprehensive mentor report retrieved successfully",
		Report:  report,
	})
}

// RequireCallbackSecret guards the workflow callback with the shared secret.
// With no secret configured every callback is refused.
func (handler *MentorHandler) RequireCallbackSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		provided := request.Header.Get(mentorSecretHeader)
		if handler.callbackSecret == "" ||
			subtle.ConstantTimeCompare([]byte(provided), []byte(handler.callbackSecret)) != 1 {
			handler.logger.Warn("mentor callback rejected: bad secret", zap.String("path", request.URL.Path))
			unauthenticated(writer)
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// ReviewCallbackHandler stores a review posted back by the mentor workflow.
func (handler *MentorHandler) ReviewCallbackHandler(writer http.ResponseWriter, request *http.Request) {
	interviewID := chi.URLParam(request, "id")
	callback := middleware.GetValidatedRequest[*models.MentorReviewCallback](request)

	review, err := handler.reports.SaveReview(request.Context(), interviewID, callback)
	if err != nil {
		handler.logger.Warn("mentor review callback rejected",
			zap.String("interview_id", interviewID),
			zap.String("reason", models.ErrorCode(err)),
			zap.Error(err))
		writeError(writer, err, handler.production)
		return
	}

	utils.JSON(writer, http.StatusOK, models.MentorReviewStoredResponse{
		Message:           "Mentor review stored successfully",
		InterviewID:       interviewID,
		MentorAgentReview: review,
	})
}

// StreamReportHandler pushes the mentor report as server-sent events until
// the client disconnects.
func (handler *MentorHandler) StreamReportHandler(writer http.ResponseWriter, request *http.Request) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		unauthenticated(writer)
		return
	}
	flusher, ok := writer.(http.Flusher)
	if !ok {
		utils.JSON(writer, http.StatusInternalServerError, models.ErrorResponse{
			Code:    models.ErrCodeInternal,
			Message: "Streaming unsupported",
		})
		return
	}

	ctx := request.Context()
	log := handler.logger.With(zap.String("user_id", userID))

	writer.Header().Set("Content-Type", "text/event-stream")
	writer.Header().Set("Cache-Control", "no-cache")
	writer.Header().Set("Connection", "keep-alive")
	writer.WriteHeader(http.StatusOK)

	send := func(event models.MentorStreamEvent) bool {
		payload, err := json.Marshal(event)
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(writer, "data: %s\n\n", payload); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	lastCheck := handler.now()

	report, err := handler.reports.LatestReport(ctx, userID)
	if err != nil {
		log.Error("failed to fetch initial mentor report", zap.Error(err))
		if !send(models.MentorStreamEvent{Type: "error", Message: "Failed to fetch initial data"}) {
			return
		}
	} else if !send(models.MentorStreamEvent{Type: "initial", Report: report}) {
		return
	}

	wake, closeSub, err := handler.reports.Subscribe(ctx, userID)
	if err != nil {
		log.Warn("review notifications unavailable, polling only", zap.Error(err))
		wake = nil
	}
	if closeSub != nil {
		defer closeSub()
	}

	poll := time.NewTicker(handler.stream.PollInterval)
	defer poll.Stop()
	keepAlive := time.NewTicker(handler.stream.KeepAliveInterval)
	defer keepAlive.Stop()

	check := func() bool {
		report, err := handler.reports.LatestReport(ctx, userID)
		if err != nil || report == nil {
			return true
		}
		if !report.LastUpdated.After(lastCheck) {
			return true
		}
		lastCheck = handler.now()
		return send(models.MentorStreamEvent{Type: "report_updated", Report: report, NewReviewsCount: 1})
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			if !check() {
				return
			}
		case _, open := <-wake:
			if !open {
				wake = nil
				continue
			}
			if !check() {
				return
			}
		case <-keepAlive.C:
			if !send(models.MentorStreamEvent{Type: "keepalive", Timestamp: handler.now().Format(time.RFC3339)}) {
				return
			}
		}
	}
}
