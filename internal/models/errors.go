package models

import (
	"errors"
	"net/http"
)

// Error codes surfaced to clients. They are stable and machine readable.
const (
	ErrCodeUnauthenticated        = "unauthenticated"
	ErrCodeForbidden              = "forbidden"
	ErrCodeNotFound               = "not_found"
	ErrCodeStorageUnavailable     = "storage_unavailable"
	ErrCodeWorkflowUnreachable    = "workflow_unreachable"
	ErrCodeWorkflowMalformed      = "workflow_malformed"
	ErrCodeNoQuestionsFound       = "no_questions_found"
	ErrCodeAlreadyUsed            = "already_used"
	ErrCodeNotLatestCompleted     = "not_latest"
	ErrCodeDispatchInProgress     = "dispatch_in_progress"
	ErrCodeMentorDispatchFailed   = "mentor_dispatch_failed"
	ErrCodeMissingFields          = "missing_fields"
	ErrCodeUnsupportedContentType = "unsupported_content_type"
	ErrCodeInvalidRequest         = "invalid_request"
	ErrCodeInternal               = "internal_error"
)

// AppError is a failure of the interview workflows. Detail carries the raw
// upstream body or error text and is only shown outside production.
type AppError struct {
	Code    string
	Message string
	Detail  string
	Reason  string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError builds an AppError without an underlying cause.
func NewAppError(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// WithDetail returns a copy of the error carrying detail.
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// ErrorCode extracts the AppError code, defaulting to internal_error.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// HTTPStatus maps an error code to its response status.
func HTTPStatus(code string) int {
	switch code {
	case ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeStorageUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeWorkflowUnreachable, ErrCodeWorkflowMalformed, ErrCodeNoQuestionsFound, ErrCodeMentorDispatchFailed:
		return http.StatusBadGateway
	case ErrCodeAlreadyUsed, ErrCodeNotLatestCompleted, ErrCodeDispatchInProgress:
		return http.StatusConflict
	case ErrCodeMissingFields, ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeUnsupportedContentType:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}
