package repositories

import (
	"context"
	"errors"

	"peerprep/interview/internal/models"
)

// ErrNotFound is returned by every backend when no interview matches.
var ErrNotFound = errors.New("interview not found")

// InterviewRepository persists interview aggregates.
type InterviewRepository interface {
	Create(ctx context.Context, interview *models.Interview) (*models.Interview, error)
	GetByID(ctx context.Context, id string) (*models.Interview, error)
	ListByUser(ctx context.Context, userID string) ([]models.Interview, error)

	// LatestCompleted returns the user's most recently created completed
	// interview, or ErrNotFound.
	LatestCompleted(ctx context.Context, userID string) (*models.Interview, error)
	// LatestWithMentorReview returns the newest interview of the user that
	// carries a mentor review, or ErrNotFound.
	LatestWithMentorReview(ctx context.Context, userID string) (*models.Interview, error)

	SetResult(ctx context.Context, id string, result models.Result) error
	// MarkMentorReviewUsed flips the flag only when it is still false and
	// stores review alongside when non-nil. Reports whether the flag changed.
	MarkMentorReviewUsed(ctx context.Context, id string, review *models.MentorAgentReview) (bool, error)
	SaveMentorReview(ctx context.Context, id string, review *models.MentorAgentReview) error
	CountAwaitingMentorReview(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
