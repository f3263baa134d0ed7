// internal/llmclient/factory.go
package llmclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/codegraph-cli/api/schemas"
	"github.com/xkilldash9x/codegraph-cli/internal/config"
)

// NewClient is a factory function that creates an ExtractionClient based on
// the configured provider.
func NewClient(cfg config.ExtractorConfig, logger *zap.Logger) (schemas.ExtractionClient, error) {
	// Using constants defined in config package to avoid magic strings.
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(cfg, logger)
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s, %s]",
			cfg.Provider, config.ProviderGemini, config.ProviderOpenAI)
	}
}
