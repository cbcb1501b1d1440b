package interview

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"peerprep/interview/internal/events"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/repositories"
)

// Reports reads and records mentor reviews.
type Reports struct {
	repo     repositories.InterviewRepository
	notifier events.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewReports(repo repositories.InterviewRepository, notifier events.Notifier, logger *zap.Logger) *Reports {
	return &Reports{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// LatestReport returns the report of the user's newest reviewed interview,
// or nil when none has been reviewed yet.
func (r *Reports) LatestReport(ctx context.Context, userID string) (*models.MentorReport, error) {
	interview, err := r.repo.LatestWithMentorReview(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, storeError(err)
	}
	return models.NewMentorReport(interview), nil
}

// SaveReview stores a review delivered by the mentor workflow callback and
// wakes any open report streams of the owner.
func (r *Reports) SaveReview(ctx context.Context, interviewID string, cb *models.MentorReviewCallback) (*models.MentorAgentReview, error) {
	interview, err := r.repo.GetByID(ctx, interviewID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound()
		}
		return nil, storeError(err)
	}

	review := cb.Review(r.now())
	if err := r.repo.SaveMentorReview(ctx, interviewID, review); err != nil {
		return nil, storeError(err)
	}

	if err := r.notifier.Publish(ctx, events.ReviewReady{
		InterviewID: interviewID,
		UserID:      interview.User,
		CreatedAt:   review.CreatedAt,
	}); err != nil {
		r.logger.Warn("failed to publish review event",
			zap.String("interview_id", interviewID),
			zap.Error(err))
	}

	r.logger.Info("mentor review stored",
		zap.String("interview_id", interviewID),
		zap.String("user_id", interview.User))
	return review, nil
}

// Subscribe wakes the caller whenever a review for userID is stored.
func (r *Reports) Subscribe(ctx context.Context, userID string) (<-chan events.ReviewReady, func(), error) {
	return r.notifier.Subscribe(ctx, userID)
}
