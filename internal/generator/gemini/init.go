package gemini

import (
	"go.uber.org/zap"

	"peerprep/interview/internal/config"
	"peerprep/interview/internal/generator"
	"peerprep/interview/internal/prompts"
)

// Register Gemini source on package import
func init() {
	generator.Register(config.SourceGemini, func(_ *config.Config, logger *zap.Logger) (generator.Source, error) {
		cfg, err := NewConfig()
		if err != nil {
			return nil, err
		}
		pm, err := prompts.NewPromptManager()
		if err != nil {
			return nil, err
		}
		return NewClient(cfg, pm, logger)
	})
}
