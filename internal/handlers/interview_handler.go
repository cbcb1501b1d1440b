package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"peerprep/interview/internal/auth"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/utils"
)

type InterviewService interface {
	Create(ctx context.Context, userID string, req *models.CreateInterviewRequest) (*models.Interview, error)
	Get(ctx context.Context, userID, id string) (*models.Interview, error)
	List(ctx context.Context, userID string) ([]models.Interview, error)
}

type InterviewHandler struct {
	service        InterviewService
	maxUploadBytes int64
	production     bool
	logger         *zap.Logger
}

func NewInterviewHandler(service InterviewService, maxUploadBytes int64, production bool, logger *zap.Logger) *InterviewHandler {
	return &InterviewHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		production:     production,
		logger:         logger,
	}
}

// CreateInterviewHandler accepts either a JSON body with a base64 résumé or
// a multipart form carrying the résumé as a file part.
func (handler *InterviewHandler) CreateInterviewHandler(writer http.ResponseWriter, request *http.Request) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		unauthenticated(writer)
		return
	}

	request.Body = http.MaxBytesReader(writer, request.Body, handler.maxUploadBytes)

	req, err := handler.decodeCreateRequest(request)
	if err != nil {
		writeError(writer, err, handler.production)
		return
	}

	interview, err := handler.service.Create(request.Context(), userID, req)
	if err != nil {
		handler.logger.Warn("interview creation failed",
			zap.String("user_id", userID),
			zap.String("reason", models.ErrorCode(err)),
			zap.Error(err))
		writeError(writer, err, handler.production)
		return
	}

	utils.JSON(writer, http.StatusCreated, models.CreateInterviewResponse{
		Status:    "success",
		Questions: interview.QuestionTexts(),
		Interview: interview,
	})
}

func (handler *InterviewHandler) decodeCreateRequest(request *http.Request) (*models.CreateInterviewRequest, error) {
	mediaType, _, err := mime.ParseMediaType(request.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}

	switch mediaType {
	case "application/json":
		var req models.CreateInterviewRequest
		if err := json.NewDecoder(request.Body).Decode(&req); err != nil {
			return nil, &models.ErrorResponse{
				Code:    models.ErrCodeInvalidRequest,
				Message: "Invalid JSON format",
			}
		}
		return &req, nil
	case "multipart/form-data":
		return handler.decodeMultipart(request)
	default:
		return nil, &models.ErrorResponse{
			Code:    models.ErrCodeUnsupportedContentType,
			Message: "Content-Type must be application/json or multipart/form-data",
		}
	}
}

func (handler *InterviewHandler) decodeMultipart(request *http.Request) (*models.CreateInterviewRequest, error) {
	if err := request.ParseMultipartForm(handler.maxUploadBytes); err != nil {
		return nil, &models.ErrorResponse{
			Code:    models.ErrCodeInvalidRequest,
			Message: "Invalid multipart form",
		}
	}

	req := &models.CreateInterviewRequest{
		JobDescription:   request.FormValue("JobDescription"),
		JobRole:          request.FormValue("JobRole"),
		ResumeFileBase64: request.FormValue("resumeFileBase64"),
		ResumeFileName:   request.FormValue("resumeFileName"),
		ResumeFileType:   request.FormValue("resumeFileType"),
	}
	if years, ok := request.MultipartForm.Value["yearsOfExperience"]; ok && len(years) > 0 {
		req.YearsOfExperience = models.FlexibleNumberFromText(years[0])
	}

	file, header, err := request.FormFile("resumeFile")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return req, nil
		}
		return nil, &models.ErrorResponse{
			Code:    models.ErrCodeInvalidRequest,
			Message: "Failed to read résumé file",
		}
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, &models.ErrorResponse{
			Code:    models.ErrCodeInvalidRequest,
			Message: "Failed to read résumé file",
		}
	}
	req.ResumeFile = &models.UploadedFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}
	return req, nil
}

func (handler *InterviewHandler) ListInterviewsHandler(writer http.ResponseWriter, request *http.Request) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		unauthenticated(writer)
		return
	}

	items, err := handler.service.List(request.Context(), userID)
	if err != nil {
		handler.logger.Error("failed to list interviews", zap.String("user_id", userID), zap.Error(err))
		writeError(writer, err, handler.production)
		return
	}
	if items == nil {
		items = []models.Interview{}
	}

	utils.JSON(writer, http.StatusOK, models.InterviewsResponse{
		Total: len(items),
		Items: items,
	})
}

func (handler *InterviewHandler) GetInterviewHandler(writer http.ResponseWriter, request *http.Request) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		unauthenticated(writer)
		return
	}

	interview, err := handler.service.Get(request.Context(), userID, chi.URLParam(request, "id"))
	if err != nil {
		writeError(writer, err, handler.production)
		return
	}
	utils.JSON(writer, http.StatusOK, interview)
}
