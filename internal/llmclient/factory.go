// internal/llmclient/factory.go
package llmclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/voxweb/voxweb/api/schemas"
	"github.com/voxweb/voxweb/internal/config"
)

// NewClient is a factory function that creates an LLMClient for one concrete
// model based on the configured provider.
func NewClient(cfg config.PlannerConfig, model string, logger *zap.Logger) (schemas.LLMClient, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(cfg, model, logger)
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg, model, logger)
	case config.ProviderAnthropic:
		return NewAnthropicClient(cfg, model, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s, %s, %s]",
			cfg.Provider, config.ProviderGemini, config.ProviderOpenAI, config.ProviderAnthropic)
	}
}

// NewRouterFromConfig builds a tiered router backed by the configured
// provider's fast and powerful models.
func NewRouterFromConfig(cfg config.PlannerConfig, logger *zap.Logger) (*LLMRouter, error) {
	fast, err := NewClient(cfg, cfg.FastModel, logger)
	if err != nil {
		return nil, fmt.Errorf("building fast tier client: %w", err)
	}
	powerful, err := NewClient(cfg, cfg.PowerfulModel, logger)
	if err != nil {
		return nil, fmt.Errorf("building powerful tier client: %w", err)
	}
	return NewLLMRouter(logger, fast, powerful)
}
