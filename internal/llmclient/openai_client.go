// internal/llmclient/openai_client.go
package llmclient

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/voxweb/voxweb/api/schemas"
	"github.com/voxweb/voxweb/internal/config"
)

// OpenAIClient implements schemas.LLMClient using the OpenAI chat API.
type OpenAIClient struct {
	client *openai.Client
	model  string
	config config.PlannerConfig
	logger *zap.Logger
}

// NewOpenAIClient initializes the client for one concrete model.
func NewOpenAIClient(cfg config.PlannerConfig, model string, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API Key is required")
	}

	var client *openai.Client
	if cfg.Endpoint != "" {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		clientCfg.BaseURL = cfg.Endpoint
		client = openai.NewClientWithConfig(clientCfg)
	} else {
		client = openai.NewClient(cfg.APIKey)
	}

	return &OpenAIClient{
		client: client,
		model:  model,
		config: cfg,
		logger: logger.Named("llm_client.openai"),
	}, nil
}

// Generate sends the prompts as a chat completion and returns the reply text.
func (c *OpenAIClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.UserPrompt,
			},
		},
		Temperature: float32(req.Options.Temperature),
		MaxTokens:   req.Options.MaxTokens,
	}
	if chatReq.MaxTokens == 0 {
		chatReq.MaxTokens = c.config.MaxTokens
	}
	if req.Options.ForceJSONFormat {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	c.logger.Debug("LLM generation complete (OpenAI)",
		zap.String("model", c.model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return resp.Choices[0].Message.Content, nil
}

// Close satisfies schemas.LLMClient.
func (c *OpenAIClient) Close() error { return nil }
