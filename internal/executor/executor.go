// internal/executor/executor.go
package executor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/voxweb/voxweb/api/schemas"
	"github.com/voxweb/voxweb/internal/extractor"
)

// Executor performs one planned action against the page and verifies it had
// an observable effect.
type Executor struct {
	page   schemas.Page
	logger *zap.Logger
}

// New creates an Executor over one page.
func New(page schemas.Page, logger *zap.Logger) *Executor {
	return &Executor{
		page:   page,
		logger: logger.Named("executor"),
	}
}

// Execute resolves the action's target, performs the interaction, and diffs
// the observable page state around it. It never returns an error value:
// failures are reported inside the ExecResult so the orchestrator can apply
// its retry policy uniformly.
func (ex *Executor) Execute(ctx context.Context, action schemas.ActionDescriptor, snap *extractor.Snapshot) schemas.ExecResult {
	if !schemas.KnownAction(action.Type) {
		return failure(schemas.ErrCodeActionUnsupported, fmt.Sprintf("unsupported action type %q", action.Type))
	}
	if action.Type.NeedsValue() && action.Value == "" {
		return failure(schemas.ErrCodeInvalidParameters, fmt.Sprintf("action %q requires a value", action.Type))
	}
	if action.Target.IsZero() {
		return failure(schemas.ErrCodeInvalidParameters, "action carries no target locator")
	}

	ref, err := ex.locate(ctx, action.Target, action.OccurrenceIndex, snap)
	if err != nil {
		return locateFailure(err)
	}

	before, err := ex.page.ObserveState(ctx)
	if err != nil {
		ex.logger.Warn("Pre-action state observation failed", zap.Error(err))
	}

	if err := ex.perform(ctx, action, ref); err != nil {
		if ctx.Err() != nil {
			return failure(schemas.ErrCodeExecutionFailure, ctx.Err().Error())
		}
		return failure(schemas.ErrCodeExecutionFailure, err.Error())
	}

	after, err := ex.page.ObserveState(ctx)
	if err != nil {
		ex.logger.Warn("Post-action state observation failed", zap.Error(err))
	}

	result := schemas.ExecResult{
		Success:       true,
		VisibleChange: statesDiffer(before, after),
	}
	if action.Type == schemas.ActionClick && !result.VisibleChange {
		// A click that moved nothing is suspicious but not a failure; the
		// orchestrator decides whether repeats should escalate.
		result.Warning = "click produced no observable change"
	}

	ex.logger.Debug("Action executed",
		zap.String("type", string(action.Type)),
		zap.String("target", action.Target.String()),
		zap.Bool("visible_change", result.VisibleChange))
	return result
}

// perform dispatches to the page primitive for the action type.
func (ex *Executor) perform(ctx context.Context, action schemas.ActionDescriptor, ref schemas.PageRef) error {
	switch action.Type {
	case schemas.ActionClick:
		return ex.page.PerformClick(ctx, ref)
	case schemas.ActionTypeIn:
		return ex.page.PerformType(ctx, ref, action.Value)
	case schemas.ActionClear:
		return ex.page.PerformClear(ctx, ref)
	case schemas.ActionSelect:
		return ex.performSelect(ctx, ref, action.Value)
	default:
		return fmt.Errorf("unsupported action type %q", action.Type)
	}
}

// performSelect reads the select's markup, matches the requested option, and
// applies it by index.
func (ex *Executor) performSelect(ctx context.Context, ref schemas.PageRef, value string) error {
	markup, err := ex.page.OuterHTML(ctx, ref)
	if err != nil {
		return fmt.Errorf("reading select markup: %w", err)
	}
	options, err := parseSelectOptions(markup)
	if err != nil {
		return err
	}
	idx, err := chooseOption(options, value)
	if err != nil {
		return err
	}
	return ex.page.PerformSetSelect(ctx, ref, idx)
}

func locateFailure(err error) schemas.ExecResult {
	var stale *StaleReferenceError
	if errors.As(err, &stale) {
		return failure(schemas.ErrCodeStaleReference, err.Error())
	}
	var notFound *ElementNotFoundError
	if errors.As(err, &notFound) {
		return failure(schemas.ErrCodeElementNotFound, err.Error())
	}
	return failure(schemas.ErrCodeExecutionFailure, err.Error())
}

func failure(code schemas.ErrorCode, msg string) schemas.ExecResult {
	return schemas.ExecResult{
		Success: false,
		Error:   msg,
		Code:    code,
	}
}
