// internal/llmclient/anthropic_client.go
package llmclient

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/voxweb/voxweb/api/schemas"
	"github.com/voxweb/voxweb/internal/config"
)

// AnthropicClient implements schemas.LLMClient using the Anthropic Messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
	config config.PlannerConfig
	logger *zap.Logger
}

// NewAnthropicClient initializes the client for one concrete model.
func NewAnthropicClient(cfg config.PlannerConfig, model string, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API Key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	client := anthropic.NewClient(opts...)

	return &AnthropicClient{
		client: &client,
		model:  model,
		config: cfg,
		logger: logger.Named("llm_client.anthropic"),
	}, nil
}

// Generate sends the prompts through the Messages API and returns the first
// text block of the reply.
func (c *AnthropicClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	maxTokens := req.Options.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(req.Options.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	var responseText string
	for _, block := range resp.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}
	if responseText == "" {
		return "", fmt.Errorf("empty response from Anthropic")
	}

	c.logger.Debug("LLM generation complete (Anthropic)",
		zap.String("model", c.model),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
	)

	return responseText, nil
}

// Close satisfies schemas.LLMClient.
func (c *AnthropicClient) Close() error { return nil }
