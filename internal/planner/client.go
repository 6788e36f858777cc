// internal/planner/client.go
package planner

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/voxweb/voxweb/api/schemas"
	"github.com/voxweb/voxweb/internal/config"
)

var payloadJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Client asks the planner oracle for the next action. One Client serves one
// task: it owns the task's conversation buffer.
type Client struct {
	llm     schemas.LLMClient
	cfg     config.PlannerConfig
	limiter *rate.Limiter
	convo   *conversation
	logger  *zap.Logger
}

// New creates a planner client for one task.
func New(llm schemas.LLMClient, cfg config.PlannerConfig, logger *zap.Logger) *Client {
	interval := cfg.RateInterval
	limiter := rate.NewLimiter(rate.Inf, 1)
	if interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return &Client{
		llm:     llm,
		cfg:     cfg,
		limiter: limiter,
		convo:   newConversation(cfg.HistoryDepth),
		logger:  logger.Named("planner"),
	}
}

// Plan sends the current command, history, and element snapshot to the oracle
// and returns its normalized reply. Transport trouble and unparseable replies
// come back as Malformed results, never as a hard failure; the loop's failure
// budget decides when to give up.
func (c *Client) Plan(ctx context.Context, command string, history []schemas.ExecutionStep, elements []schemas.ElementDescriptor) schemas.PlanResult {
	payload := schemas.PlanRequest{
		Command:   command,
		StepsDone: history,
		Elements:  elements,
	}
	if payload.StepsDone == nil {
		payload.StepsDone = []schemas.ExecutionStep{}
	}
	if payload.Elements == nil {
		payload.Elements = []schemas.ElementDescriptor{}
	}

	body, err := payloadJSON.Marshal(payload)
	if err != nil {
		return schemas.PlanResult{Malformed: true, Err: fmt.Errorf("marshaling plan request: %w", err)}
	}
	prompt := buildUserPrompt(string(body), c.convo.Context())

	// The rate limiter wait counts against the same deadline as the call
	// itself; a planner round never takes longer than the configured timeout.
	opCtx := ctx
	if c.cfg.APITimeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(ctx, c.cfg.APITimeout)
		defer cancel()
	}
	if err := c.limiter.Wait(opCtx); err != nil {
		return schemas.PlanResult{Malformed: true, Err: fmt.Errorf("planner rate limit wait: %w", err)}
	}

	start := time.Now()
	raw, err := c.llm.Generate(opCtx, schemas.GenerationRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt,
		Tier:         schemas.TierPowerful,
		Options: schemas.GenerationOptions{
			Temperature:     float64(c.cfg.Temperature),
			ForceJSONFormat: true,
			MaxTokens:       c.cfg.MaxTokens,
		},
	})
	if err != nil {
		c.logger.Warn("Planner oracle call failed",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return schemas.PlanResult{Malformed: true, Err: err}
	}

	c.convo.Record(prompt, raw)
	result := normalize(raw)
	c.convo.MergeContext(result.Context)

	if result.Malformed {
		c.logger.Warn("Planner reply unparseable", zap.Error(result.Err))
	} else {
		c.logger.Debug("Planner round complete",
			zap.Int("actions", len(result.Actions)),
			zap.Bool("done", result.Done),
			zap.Duration("duration", time.Since(start)))
	}
	return result
}

// HistoryLen reports how many exchanges the conversation currently retains.
func (c *Client) HistoryLen() int { return c.convo.Len() }
