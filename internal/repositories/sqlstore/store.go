package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"peerprep/interview/internal/config"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/repositories"
)

// interviewRecord is the relational row for an interview. The mentor review
// is kept as JSON text so the conditional mark-used update can write it with
// plain column assignments.
type interviewRecord struct {
	ID                string                 `gorm:"primaryKey;size:36"`
	UserID            string                 `gorm:"not null;index:idx_interviews_user_status_created,priority:1"`
	JobRole           string                 `gorm:"not null"`
	TechStack         []string               `gorm:"serializer:json"`
	YearsOfExperience int                    `gorm:"not null"`
	ResumeURL         string                 `gorm:"type:text;not null"`
	Questions         []models.QuestionEntry `gorm:"serializer:json"`
	WorkflowQuestions string                 `gorm:"type:text"`
	Status            string                 `gorm:"not null;index:idx_interviews_user_status_created,priority:2"`
	OverallScore      *float64
	Result            string
	MentorReviewUsed  bool      `gorm:"not null;default:false"`
	HasMentorReview   bool      `gorm:"not null;default:false;index"`
	MentorAgentReview string    `gorm:"type:text"`
	CreatedAt         time.Time `gorm:"index:idx_interviews_user_status_created,priority:3"`
	CompletedAt       *time.Time
}

func (interviewRecord) TableName() string {
	return "interviews"
}

// Store is the gorm-backed interview repository
type Store struct {
	db *gorm.DB
}

var _ repositories.InterviewRepository = (*Store)(nil)

// Open connects with the driver named by STORE_DRIVER
func Open(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case config.StorePostgres:
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	case config.StoreSQLite:
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported sql driver: %s", driver)
	}
}

// New migrates the interviews table and returns the store
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&interviewRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate interviews: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Create(ctx context.Context, interview *models.Interview) (*models.Interview, error) {
	rec, err := toRecord(interview)
	if err != nil {
		return nil, err
	}
	rec.ID = uuid.NewString()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return fromRecord(rec)
}

func (s *Store) GetByID(ctx context.Context, id string) (*models.Interview, error) {
	return s.first(s.db.WithContext(ctx).Where("id = ?", id))
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]models.Interview, error) {
	var recs []interviewRecord
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&recs).Error; err != nil {
		return nil, err
	}

	out := make([]models.Interview, 0, len(recs))
	for i := range recs {
		interview, err := fromRecord(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *interview)
	}
	return out, nil
}

func (s *Store) LatestCompleted(ctx context.Context, userID string) (*models.Interview, error) {
	return s.first(s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, string(models.StatusCompleted)).
		Order("created_at DESC"))
}

func (s *Store) LatestWithMentorReview(ctx context.Context, userID string) (*models.Interview, error) {
	return s.first(s.db.WithContext(ctx).
		Where("user_id = ? AND has_mentor_review = ?", userID, true).
		Order("created_at DESC"))
}

func (s *Store) SetResult(ctx context.Context, id string, result models.Result) error {
	res := s.db.WithContext(ctx).Model(&interviewRecord{}).
		Where("id = ?", id).
		Update("result", string(result))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (s *Store) MarkMentorReviewUsed(ctx context.Context, id string, review *models.MentorAgentReview) (bool, error) {
	updates := map[string]interface{}{"mentor_review_used": true}
	if review != nil {
		encoded, err := json.Marshal(review)
		if err != nil {
			return false, err
		}
		updates["mentor_agent_review"] = string(encoded)
		updates["has_mentor_review"] = true
	}

	res := s.db.WithContext(ctx).Model(&interviewRecord{}).
		Where("id = ? AND mentor_review_used = ?", id, false).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) SaveMentorReview(ctx context.Context, id string, review *models.MentorAgentReview) error {
	encoded, err := json.Marshal(review)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&interviewRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"mentor_agent_review": string(encoded),
			"has_mentor_review":   true,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (s *Store) CountAwaitingMentorReview(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&interviewRecord{}).
		Where("status = ? AND mentor_review_used = ?", string(models.StatusCompleted), false).
		Count(&count).Error
	return count, err
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) first(query *gorm.DB) (*models.Interview, error) {
	var rec interviewRecord
	if err := query.First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return fromRecord(&rec)
}

func toRecord(in *models.Interview) (*interviewRecord, error) {
	rec := &interviewRecord{
		ID:                in.ID,
		UserID:            in.User,
		JobRole:           in.JobRole,
		TechStack:         in.TechStack,
		YearsOfExperience: in.YearsOfExperience,
		ResumeURL:         in.ResumeURL,
		Questions:         in.Questions,
		WorkflowQuestions: string(in.WorkflowQuestions),
		Status:            string(in.Status),
		OverallScore:      in.OverallScore,
		Result:            string(in.Result),
		MentorReviewUsed:  in.MentorReviewUsed,
		CreatedAt:         in.CreatedAt,
		CompletedAt:       in.CompletedAt,
	}
	if in.MentorAgentReview != nil {
		encoded, err := json.Marshal(in.MentorAgentReview)
		if err != nil {
			return nil, err
		}
		rec.MentorAgentReview = string(encoded)
		rec.HasMentorReview = true
	}
	return rec, nil
}

func fromRecord(rec *interviewRecord) (*models.Interview, error) {
	out := &models.Interview{
		ID:                rec.ID,
		User:              rec.UserID,
		JobRole:           rec.JobRole,
		TechStack:         rec.TechStack,
		YearsOfExperience: rec.YearsOfExperience,
		ResumeURL:         rec.ResumeURL,
		Questions:         rec.Questions,
		Status:            models.Status(rec.Status),
		OverallScore:      rec.OverallScore,
		Result:            models.Result(rec.Result),
		MentorReviewUsed:  rec.MentorReviewUsed,
		CreatedAt:         rec.CreatedAt,
		CompletedAt:       rec.CompletedAt,
	}
	if rec.WorkflowQuestions != "" {
		out.WorkflowQuestions = json.RawMessage(rec.WorkflowQuestions)
	}
	if rec.HasMentorReview && rec.MentorAgentReview != "" {
		var review models.MentorAgentReview
		if err := json.Unmarshal([]byte(rec.MentorAgentReview), &review); err != nil {
			return nil, fmt.Errorf("failed to decode mentor review for %s: %w", rec.ID, err)
		}
		out.MentorAgentReview = &review
	}
	return out, nil
}
