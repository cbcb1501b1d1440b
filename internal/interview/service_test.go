package interview

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"peerprep/interview/internal/generator"
	"peerprep/interview/internal/models"
)

func validRequest() *models.CreateInterviewRequest {
	return &models.CreateInterviewRequest{
		JobDescription:    "  I use React and Node.js ",
		JobRole:           "Frontend Engineer",
		YearsOfExperience: "3",
		ResumeFileBase64:  base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")),
		ResumeFileType:    "application/pdf",
	}
}

func okUploader(captured *[2]string) *fakeUploader {
	return &fakeUploader{uploadFn: func(_ context.Context, dataURI, fileName string) (string, error) {
		if captured != nil {
			captured[0], captured[1] = dataURI, fileName
		}
		return "https://ik.imagekit.io/demo/" + fileName, nil
	}}
}

func sourceReturning(questions []string) *fakeSource {
	return &fakeSource{generateFn: func(_ context.Context, req generator.Request) (*generator.Generation, error) {
		raw, _ := json.Marshal(map[string]any{"result": map[string]any{"questions": questions}})
		return &generator.Generation{Questions: questions, Raw: raw}, nil
	}}
}

func TestCreate_PersistsInProgressInterview(t *testing.T) {
	repo := newMemRepo()
	var upload [2]string
	var seen generator.Request
	src := &fakeSource{generateFn: func(_ context.Context, req generator.Request) (*generator.Generation, error) {
		seen = req
		return &generator.Generation{Questions: []string{"Q1", "Q2"}, Raw: json.RawMessage(`{"questions":["Q1","Q2"]}`)}, nil
	}}
	svc := NewService(repo, okUploader(&upload), src, zap.NewNop())

	interview, err := svc.Create(context.Background(), "user-1", validRequest())
	require.NoError(t, err)

	assert.Equal(t, "user-1", interview.User)
	assert.Equal(t, models.StatusInProgress, interview.Status)
	assert.Equal(t, []string{"i", "use", "react", "and", "node.js"}, interview.TechStack)
	assert.Equal(t, 3, interview.YearsOfExperience)
	assert.Equal(t, []string{"Q1", "Q2"}, interview.QuestionTexts())
	assert.Equal(t, "", interview.Questions[0].Answer)
	assert.Nil(t, interview.Questions[0].Analysis)
	assert.JSONEq(t, `{"questions":["Q1","Q2"]}`, string(interview.WorkflowQuestions))
	assert.False(t, interview.MentorReviewUsed)
	assert.False(t, interview.CreatedAt.IsZero())

	assert.True(t, strings.HasPrefix(upload[0], "data:application/pdf;base64,"))
	assert.True(t, strings.HasSuffix(upload[1], "-resume.pdf"))
	assert.Equal(t, "https://ik.imagekit.io/demo/"+upload[1], interview.ResumeURL)

	assert.Equal(t, interview.ResumeURL, seen.ResumeURL)
	assert.Equal(t, "I use React and Node.js", seen.JobDescription)
	assert.Equal(t, "Frontend Engineer", seen.JobRole)
	assert.Equal(t, 3, seen.YearsOfExperience)
}

func TestCreate_UsesUploadedFile(t *testing.T) {
	var upload [2]string
	req := validRequest()
	req.ResumeFileBase64 = ""
	req.ResumeFile = &models.UploadedFile{Name: "cv.docx", ContentType: "application/msword", Content: []byte("doc")}

	_, err := NewService(newMemRepo(), okUploader(&upload), sourceReturning([]string{"Q"}), zap.NewNop()).
		Create(context.Background(), "u", req)
	require.NoError(t, err)

	assert.Equal(t, "data:application/msword;base64,"+base64.StdEncoding.EncodeToString([]byte("doc")), upload[0])
	assert.True(t, strings.HasSuffix(upload[1], "-cv.docx"))
}

func TestCreate_ValidationFailure(t *testing.T) {
	req := validRequest()
	req.JobRole = "   "
	req.YearsOfExperience = "abc"

	svc := NewService(newMemRepo(), &fakeUploader{uploadFn: func(context.Context, string, string) (string, error) {
		t.Fatal("upload must not run for invalid requests")
		return "", nil
	}}, sourceReturning(nil), zap.NewNop())

	_, err := svc.Create(context.Background(), "u", req)
	var resp *models.ErrorResponse
	require.True(t, errors.As(err, &resp))
	assert.Equal(t, models.ErrCodeMissingFields, resp.Code)
	assert.Len(t, resp.Details, 2)
}

func TestCreate_UpstreamFailuresAreTerminal(t *testing.T) {
	t.Run("storage error keeps code", func(t *testing.T) {
		uploader := &fakeUploader{uploadFn: func(context.Context, string, string) (string, error) {
			return "", models.NewAppError(models.ErrCodeStorageUnavailable, "ImageKit credentials not configured")
		}}
		_, err := NewService(newMemRepo(), uploader, sourceReturning([]string{"Q"}), zap.NewNop()).
			Create(context.Background(), "u", validRequest())
		assert.Equal(t, models.ErrCodeStorageUnavailable, models.ErrorCode(err))
	})

	t.Run("plain upload error becomes storage_unavailable", func(t *testing.T) {
		uploader := &fakeUploader{uploadFn: func(context.Context, string, string) (string, error) {
			return "", errors.New("dial tcp: timeout")
		}}
		_, err := NewService(newMemRepo(), uploader, sourceReturning([]string{"Q"}), zap.NewNop()).
			Create(context.Background(), "u", validRequest())
		assert.Equal(t, models.ErrCodeStorageUnavailable, models.ErrorCode(err))
	})

	for _, code := range []string{models.ErrCodeWorkflowUnreachable, models.ErrCodeWorkflowMalformed, models.ErrCodeNoQuestionsFound} {
		t.Run(code, func(t *testing.T) {
			repo := newMemRepo()
			calls := 0
			src := &fakeSource{generateFn: func(context.Context, generator.Request) (*generator.Generation, error) {
				calls++
				return nil, models.NewAppError(code, "failed").WithDetail("raw body")
			}}
			_, err := NewService(repo, okUploader(nil), src, zap.NewNop()).Create(context.Background(), "u", validRequest())

			var appErr *models.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, code, appErr.Code)
			assert.Equal(t, "raw body", appErr.Detail)
			assert.Equal(t, 1, calls)
			assert.Empty(t, repo.items)
		})
	}
}

func TestCreate_StoreFailure(t *testing.T) {
	repo := newMemRepo()
	repo.createFn = func(*models.Interview) (*models.Interview, error) { return nil, errors.New("disk full") }

	_, err := NewService(repo, okUploader(nil), sourceReturning([]string{"Q"}), zap.NewNop()).
		Create(context.Background(), "u", validRequest())
	assert.Equal(t, models.ErrCodeInternal, models.ErrorCode(err))
}

func TestCreate_KeepsAtMostFifteenQuestions(t *testing.T) {
	twenty := make([]string, 20)
	for i := range twenty {
		twenty[i] = fmt.Sprintf("Question %d", i+1)
	}
	raw, _ := json.Marshal(map[string]any{"Top15Questions": twenty})
	src := &fakeSource{generateFn: func(context.Context, generator.Request) (*generator.Generation, error) {
		return generator.ParsePayload(raw)
	}}

	interview, err := NewService(newMemRepo(), okUploader(nil), src, zap.NewNop()).
		Create(context.Background(), "u", validRequest())
	require.NoError(t, err)
	require.Len(t, interview.Questions, models.MaxQuestions)
	assert.Equal(t, "Question 1", interview.Questions[0].Text)
	assert.Equal(t, "Question 15", interview.Questions[14].Text)
}

func TestGetAndList(t *testing.T) {
	repo := newMemRepo(
		completed("a", "u1", baseTime),
		completed("b", "u1", baseTime.Add(1)),
		completed("c", "u2", baseTime),
	)
	svc := NewService(repo, okUploader(nil), sourceReturning(nil), zap.NewNop())

	got, err := svc.Get(context.Background(), "u1", "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)

	_, err = svc.Get(context.Background(), "u1", "c")
	assert.Equal(t, models.ErrCodeForbidden, models.ErrorCode(err))

	_, err = svc.Get(context.Background(), "u1", "zzz")
	assert.Equal(t, models.ErrCodeNotFound, models.ErrorCode(err))

	items, err := svc.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID)
}
