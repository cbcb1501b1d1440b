package interview

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"peerprep/interview/internal/events"
	"peerprep/interview/internal/locks"
	"peerprep/interview/internal/mentor"
	"peerprep/interview/internal/metrics"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/repositories"
)

// TriggerResult is a successful mentor dispatch.
type TriggerResult struct {
	Interview *models.Interview
	Response  json.RawMessage
	Retried   bool
}

// MentorGate decides whether an interview may consume its single mentor
// review and dispatches it.
type MentorGate struct {
	repo       repositories.InterviewRepository
	dispatcher mentor.Dispatcher
	locker     locks.Locker
	lockTTL    time.Duration
	notifier   events.Notifier
	logger     *zap.Logger
	now        func() time.Time
}

func NewMentorGate(
	repo repositories.InterviewRepository,
	dispatcher mentor.Dispatcher,
	locker locks.Locker,
	lockTTL time.Duration,
	notifier events.Notifier,
	logger *zap.Logger,
) *MentorGate {
	return &MentorGate{
		repo:       repo,
		dispatcher: dispatcher,
		locker:     locker,
		lockTTL:    lockTTL,
		notifier:   notifier,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func rejected(code, message string) *models.AppError {
	return &models.AppError{Code: code, Message: message, Reason: code}
}

// Trigger runs the eligibility checks in order and dispatches the interview
// to the mentor workflow. A no_result failure on an interview with a score
// is retried once after deriving its result.
func (g *MentorGate) Trigger(ctx context.Context, userID, token, interviewID string) (*TriggerResult, error) {
	log := g.logger.With(zap.String("user_id", userID), zap.String("interview_id", interviewID))

	interview, err := g.loadEligible(ctx, userID, interviewID)
	if err != nil {
		return nil, err
	}

	lock, err := g.locker.Acquire(ctx, interviewID, g.lockTTL)
	if err != nil {
		if errors.Is(err, locks.ErrLockHeld) {
			return nil, rejected(models.ErrCodeDispatchInProgress, "A mentor review is already being triggered for this interview")
		}
		log.Error("failed to acquire mentor dispatch lock", zap.Error(err))
		return nil, &models.AppError{Code: models.ErrCodeInternal, Message: "Failed to acquire dispatch lock", Err: err}
	}
	defer func() {
		if err := lock.Release(context.Background()); err != nil {
			log.Warn("failed to release mentor dispatch lock", zap.Error(err))
		}
	}()

	// a request that held the lock before us may have consumed the review
	interview, err = g.loadEligible(ctx, userID, interviewID)
	if err != nil {
		return nil, err
	}

	first := g.dispatcher.Dispatch(ctx, interview, token)
	if first.Sent {
		metrics.RecordMentorDispatch("sent")
		return g.markUsed(ctx, log, interview, first, false)
	}

	if first.Reason == mentor.ReasonNoResult && interview.OverallScore != nil {
		result := models.DeriveResult(*interview.OverallScore)
		log.Info("deriving result from score before retry",
			zap.Float64("overall_score", *interview.OverallScore),
			zap.String("result", string(result)))

		if err := g.repo.SetResult(ctx, interview.ID, result); err != nil {
			log.Error("failed to persist derived result", zap.Error(err))
			return nil, storeError(err)
		}
		interview.Result = result

		retry := g.dispatcher.Dispatch(ctx, interview, token)
		if retry.Sent {
			metrics.RecordMentorDispatch("sent_after_retry")
			return g.markUsed(ctx, log, interview, retry, true)
		}
		log.Warn("mentor retry after deriving result failed",
			zap.String("reason", retry.Reason),
			zap.String("error", retry.Error))
	}

	// the caller sees why the first attempt failed
	metrics.RecordMentorDispatch(first.Reason)
	log.Warn("mentor review could not be triggered",
		zap.String("reason", first.Reason),
		zap.String("error", first.Error))

	detail := first.Error
	if detail == "" {
		detail = first.ResponseText
	}
	return nil, &models.AppError{
		Code:    models.ErrCodeMentorDispatchFailed,
		Message: "Mentor review could not be triggered",
		Reason:  first.Reason,
		Detail:  detail,
	}
}

// loadEligible applies the not-found, owner, already-used and
// latest-completed checks against fresh reads.
func (g *MentorGate) loadEligible(ctx context.Context, userID, interviewID string) (*models.Interview, error) {
	interview, err := g.repo.GetByID(ctx, interviewID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound()
		}
		return nil, storeError(err)
	}
	if interview.User != userID {
		return nil, models.NewAppError(models.ErrCodeForbidden, "Interview belongs to another user")
	}
	if interview.MentorReviewUsed {
		return nil, rejected(models.ErrCodeAlreadyUsed, "Mentor review already used for this interview")
	}

	latest, err := g.repo.LatestCompleted(ctx, userID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, storeError(err)
	}
	if latest == nil || latest.ID != interview.ID {
		return nil, rejected(models.ErrCodeNotLatestCompleted, "Mentor review is only available for your latest completed interview")
	}
	return interview, nil
}

func (g *MentorGate) markUsed(ctx context.Context, log *zap.Logger, interview *models.Interview, res *mentor.Result, retried bool) (*TriggerResult, error) {
	review := mentor.ReviewFromResponse(res.Response, g.now())

	changed, err := g.repo.MarkMentorReviewUsed(ctx, interview.ID, review)
	if err != nil {
		log.Error("mentor review dispatched but could not be marked used", zap.Error(err))
		return nil, storeError(err)
	}
	if !changed {
		log.Warn("mentor review flag was already set")
	}

	interview.MentorReviewUsed = true
	if review != nil {
		interview.MentorAgentReview = review
		if err := g.notifier.Publish(ctx, events.ReviewReady{
			InterviewID: interview.ID,
			UserID:      interview.User,
			CreatedAt:   review.CreatedAt,
		}); err != nil {
			log.Warn("failed to publish review event", zap.Error(err))
		}
	}

	log.Info("mentor review triggered", zap.Bool("retried", retried))
	return &TriggerResult{Interview: interview, Response: res.Response, Retried: retried}, nil
}
