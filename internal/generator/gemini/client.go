package gemini

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"peerprep/interview/internal/config"
	"peerprep/interview/internal/generator"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/prompts"
)

const promptMode = "questions"

// Client generates interview questions directly from a Gemini model
type Client struct {
	client  *genai.Client
	config  *Config
	prompts prompts.PromptProvider
	logger  *zap.Logger
}

func NewClient(cfg *Config, pm prompts.PromptProvider, logger *zap.Logger) (*Client, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &Client{client: client, config: cfg, prompts: pm, logger: logger}, nil
}

func (c *Client) Name() string {
	return config.SourceGemini
}

// variantFor maps years of experience onto a prompt variant
func variantFor(years int) string {
	switch {
	case years < 2:
		return "junior"
	case years <= 5:
		return "mid"
	default:
		return "senior"
	}
}

func (c *Client) Generate(ctx context.Context, req generator.Request) (*generator.Generation, error) {
	prompt, err := c.prompts.BuildPrompt(promptMode, variantFor(req.YearsOfExperience), req)
	if err != nil {
		return nil, err
	}

	result, err := c.client.Models.GenerateContent(
		ctx,
		c.config.Model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return nil, &models.AppError{
			Code:    models.ErrCodeWorkflowUnreachable,
			Message: "Failed to generate questions",
			Err:     err,
		}
	}
	if result == nil {
		return nil, models.NewAppError(models.ErrCodeWorkflowUnreachable, "No response generated")
	}

	text := stripFences(result.Text())
	if text == "" {
		return nil, models.NewAppError(models.ErrCodeWorkflowUnreachable, "Empty response generated")
	}

	c.logger.Info("gemini generated questions",
		zap.String("model", c.config.Model),
		zap.Int("body_bytes", len(text)))

	return generator.ParsePayload([]byte(text))
}

// models sometimes wrap JSON in a markdown fence despite the MIME type hint
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
