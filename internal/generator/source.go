package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"peerprep/interview/internal/config"
	"peerprep/interview/internal/models"
)

// Request is the interview metadata a source generates questions from.
type Request struct {
	ResumeURL         string
	JobDescription    string
	JobRole           string
	YearsOfExperience int
}

// Generation is the parsed question list plus the raw upstream payload,
// which is kept on the interview for auditing.
type Generation struct {
	Questions []string
	Raw       json.RawMessage
}

// Source produces interview questions for a request.
type Source interface {
	Generate(ctx context.Context, req Request) (*Generation, error)
	Name() string
}

// Factory creates a source from the service configuration
type Factory func(cfg *config.Config, logger *zap.Logger) (Source, error)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
)

// Register makes a source available under name.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// New creates the source registered under name.
func New(name string, cfg *config.Config, logger *zap.Logger) (Source, error) {
	registryMu.RLock()
	factory, exists := factories[name]
	registryMu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("unsupported question source: %s", name)
	}
	return factory(cfg, logger)
}

// Registered lists the names of all registered sources.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParsePayload decodes an upstream body and pulls the question list out of it.
// Used by every source so all of them share the same failure modes.
func ParsePayload(body []byte) (*Generation, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, (&models.AppError{
			Code:    models.ErrCodeWorkflowMalformed,
			Message: "Workflow returned invalid JSON",
			Err:     err,
		}).WithDetail(string(body))
	}

	questions := SelectQuestions(ExtractQuestions(payload))
	if len(questions) == 0 {
		return nil, models.NewAppError(models.ErrCodeNoQuestionsFound, "No questions returned from workflow").
			WithDetail(string(body))
	}

	return &Generation{Questions: questions, Raw: json.RawMessage(body)}, nil
}
