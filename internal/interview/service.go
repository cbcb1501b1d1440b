package interview

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"peerprep/interview/internal/generator"
	"peerprep/interview/internal/metrics"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/repositories"
	"peerprep/interview/internal/storage"
)

const defaultResumeFileName = "resume.pdf"

// Uploader stores a résumé data URI and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, dataURI, fileName string) (string, error)
}

// Service creates and reads interviews.
type Service struct {
	repo     repositories.InterviewRepository
	uploader Uploader
	source   generator.Source
	logger   *zap.Logger
}

func NewService(repo repositories.InterviewRepository, uploader Uploader, source generator.Source, logger *zap.Logger) *Service {
	return &Service{repo: repo, uploader: uploader, source: source, logger: logger}
}

func storeError(err error) *models.AppError {
	return &models.AppError{
		Code:    models.ErrCodeInternal,
		Message: "Failed to access interview store",
		Err:     err,
	}
}

func notFound() *models.AppError {
	return models.NewAppError(models.ErrCodeNotFound, "Interview not found")
}

// Create uploads the résumé, generates questions and persists a new
// in-progress interview.
func (s *Service) Create(ctx context.Context, userID string, req *models.CreateInterviewRequest) (*models.Interview, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	years, _ := req.YearsOfExperience.Int()

	dataURI, fileName := resumePayload(req)
	log := s.logger.With(zap.String("user_id", userID))

	resumeURL, err := s.uploader.Upload(ctx, dataURI, uuid.NewString()[:8]+"-"+fileName)
	if err != nil {
		metrics.RecordResumeUpload(models.ErrorCode(err))
		log.Error("résumé upload failed", zap.Error(err))
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			err = &models.AppError{Code: models.ErrCodeStorageUnavailable, Message: "Résumé upload failed", Err: err}
		}
		return nil, err
	}
	metrics.RecordResumeUpload("success")

	gen, err := s.source.Generate(ctx, generator.Request{
		ResumeURL:         resumeURL,
		JobDescription:    req.JobDescription,
		JobRole:           req.JobRole,
		YearsOfExperience: years,
	})
	if err != nil {
		metrics.RecordQuestionGeneration(s.source.Name(), models.ErrorCode(err))
		log.Error("question generation failed",
			zap.String("source", s.source.Name()),
			zap.String("reason", models.ErrorCode(err)),
			zap.Error(err))
		return nil, err
	}
	metrics.RecordQuestionGeneration(s.source.Name(), "success")

	interview, err := s.repo.Create(ctx, &models.Interview{
		User:              userID,
		JobRole:           req.JobRole,
		TechStack:         generator.BuildTechStack(req.JobDescription, req.JobRole),
		YearsOfExperience: years,
		ResumeURL:         resumeURL,
		Questions:         models.NewQuestionEntries(gen.Questions),
		WorkflowQuestions: gen.Raw,
		Status:            models.StatusInProgress,
		CreatedAt:         time.Now().UTC(),
	})
	if err != nil {
		log.Error("failed to persist interview", zap.Error(err))
		return nil, storeError(err)
	}

	log.Info("interview created",
		zap.String("interview_id", interview.ID),
		zap.Int("questions", len(interview.Questions)))
	return interview, nil
}

// base64 wins over a file part when both are sent
func resumePayload(req *models.CreateInterviewRequest) (string, string) {
	fileName := req.ResumeFileName
	if fileName == "" {
		fileName = defaultResumeFileName
	}
	if req.ResumeFileBase64 != "" {
		return storage.EnsureDataURI(req.ResumeFileBase64, req.ResumeFileType), fileName
	}
	if req.ResumeFile.Name != "" {
		fileName = req.ResumeFile.Name
	}
	return storage.BytesToDataURI(req.ResumeFile.Content, req.ResumeFile.ContentType), fileName
}

// Get returns an interview owned by userID.
func (s *Service) Get(ctx context.Context, userID, id string) (*models.Interview, error) {
	interview, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound()
		}
		return nil, storeError(err)
	}
	if interview.User != userID {
		return nil, models.NewAppError(models.ErrCodeForbidden, "Interview belongs to another user")
	}
	return interview, nil
}

// List returns the user's interviews, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]models.Interview, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeError(err)
	}
	return items, nil
}
