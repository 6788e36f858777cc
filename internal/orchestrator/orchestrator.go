// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/voxweb/voxweb/api/schemas"
	"github.com/voxweb/voxweb/internal/config"
	"github.com/voxweb/voxweb/internal/extractor"
)

// ErrTaskActive is returned when a command arrives while another task holds
// the execution slot. Commands are never queued; the caller decides whether
// to retry.
var ErrTaskActive = errors.New("a task is already executing")

// Snapshotter supplies element snapshots for planning. extractor.Cache
// satisfies it.
type Snapshotter interface {
	Snapshot(ctx context.Context) *extractor.Snapshot
	Invalidate()
}

// ActionExecutor performs one action against the page.
type ActionExecutor interface {
	Execute(ctx context.Context, action schemas.ActionDescriptor, snap *extractor.Snapshot) schemas.ExecResult
}

// Planner asks the oracle for the next action.
type Planner interface {
	Plan(ctx context.Context, command string, history []schemas.ExecutionStep, elements []schemas.ElementDescriptor) schemas.PlanResult
}

// PlannerFactory builds a fresh planner per task, since each task owns its
// own conversation buffer.
type PlannerFactory func() Planner

// Orchestrator drives the plan/execute/verify loop for one page. At most one
// task runs at a time.
type Orchestrator struct {
	snapshots  Snapshotter
	executor   ActionExecutor
	newPlanner PlannerFactory
	cfg        config.LoopConfig
	logger     *zap.Logger
	slot       *semaphore.Weighted

	// sleep is replaceable so tests do not wait out real settle delays.
	sleep func(ctx context.Context, d time.Duration)
}

// New creates an Orchestrator.
func New(snapshots Snapshotter, exec ActionExecutor, planners PlannerFactory, cfg config.LoopConfig, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		snapshots:  snapshots,
		executor:   exec,
		newPlanner: planners,
		cfg:        cfg,
		logger:     logger.Named("orchestrator"),
		slot:       semaphore.NewWeighted(1),
		sleep:      contextSleep,
	}
}

func contextSleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Run executes one spoken command to completion. A second call while a task
// is active fails immediately with ErrTaskActive. The returned TaskResult is
// always populated, including after an internal panic, which surfaces as an
// aborted task rather than a crash.
func (o *Orchestrator) Run(ctx context.Context, command string) (schemas.TaskResult, error) {
	if !o.slot.TryAcquire(1) {
		return schemas.TaskResult{}, ErrTaskActive
	}
	defer o.slot.Release(1)

	result := schemas.TaskResult{
		TaskID:    uuid.NewString(),
		Command:   command,
		StartedAt: time.Now(),
	}
	logger := o.logger.With(zap.String("task_id", result.TaskID))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Task loop panicked; aborting task", zap.Any("panic", r))
			result.Success = false
			result.FinalState = schemas.TaskAborted
			result.FinishedAt = time.Now()
		}
	}()

	logger.Info("Task started", zap.String("command", command))
	o.runLoop(ctx, &result, logger)
	result.FinishedAt = time.Now()

	logger.Info("Task finished",
		zap.String("final_state", string(result.FinalState)),
		zap.Bool("success", result.Success),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", result.FinishedAt.Sub(result.StartedAt)))
	return result, nil
}

// runLoop is the PLANNING/EXECUTING state machine. Cancellation is observed
// only at state boundaries; a mid-action cancel finishes the action first.
func (o *Orchestrator) runLoop(ctx context.Context, result *schemas.TaskResult, logger *zap.Logger) {
	planner := o.newPlanner()

	state := schemas.TaskPlanning
	failures := 0
	noopClicks := 0
	var snap *extractor.Snapshot
	var pending schemas.ActionDescriptor

	abort := func(reason string) {
		logger.Warn("Task aborted", zap.String("reason", reason))
		result.Success = false
		result.FinalState = schemas.TaskAborted
	}

	for {
		if err := ctx.Err(); err != nil {
			abort("context canceled: " + err.Error())
			return
		}

		switch state {
		case schemas.TaskPlanning:
			// Every planning round observes the page as it is now. The
			// oracle round trip is a multi-second suspension point; a
			// snapshot from before it cannot be trusted.
			snap = o.snapshots.Snapshot(ctx)
			plan := planner.Plan(ctx, result.Command, result.Steps, snap.Elements)
			if plan.Malformed {
				failures++
				logger.Warn("Malformed planner reply",
					zap.Int("failures", failures),
					zap.Error(plan.Err))
				if failures >= o.cfg.FailureBudget {
					abort("task failure budget exhausted by malformed planner replies")
					return
				}
				continue
			}
			if plan.Done || len(plan.Actions) == 0 {
				result.Success = true
				result.FinalState = schemas.TaskDone
				return
			}
			// Only the first planned action executes; the page is
			// re-inspected before anything else happens.
			pending = plan.Actions[0]
			state = schemas.TaskExecuting

		case schemas.TaskExecuting:
			res := o.executeWithRetries(ctx, pending, snap)

			step := schemas.ExecutionStep{
				Action:    pending,
				Timestamp: time.Now(),
			}
			if res.Success {
				step.Status = schemas.StepSuccess
				if escalate := o.trackNoopClicks(pending, res, &noopClicks); escalate {
					step.Status = schemas.StepFailed
					step.Error = "click had no observable effect too many times in a row"
					res.Success = false
				}
			}
			if !res.Success {
				step.Status = schemas.StepFailed
				if step.Error == "" {
					step.Error = res.Error
				}
			}
			result.Steps = append(result.Steps, step)

			if step.Status == schemas.StepSuccess {
				result.Succeeded++
				o.sleep(ctx, o.settleDelay(pending.Type))
				state = schemas.TaskPlanning
				continue
			}

			result.Failed++
			failures++
			logger.Warn("Step failed",
				zap.String("action", string(pending.Type)),
				zap.String("target", pending.Target.String()),
				zap.String("code", string(res.Code)),
				zap.Int("failures", failures))
			if failures >= o.cfg.FailureBudget {
				abort("task failure budget exhausted")
				return
			}
			if res.Code == schemas.ErrCodeStaleReference {
				// The cached view is provably wrong; make the next
				// planning snapshot rebuild from the live page.
				o.snapshots.Invalidate()
			}
			state = schemas.TaskPlanning
		}
	}
}

// executeWithRetries runs one action up to 1+RetryLimit times without
// replanning. Stale references are not retried here: the snapshot itself is
// bad, so retrying the same handles cannot help.
func (o *Orchestrator) executeWithRetries(ctx context.Context, action schemas.ActionDescriptor, snap *extractor.Snapshot) schemas.ExecResult {
	var res schemas.ExecResult
	for attempt := 0; attempt <= o.cfg.RetryLimit; attempt++ {
		if attempt > 0 {
			o.sleep(ctx, o.cfg.RetryDelay)
		}
		res = o.executor.Execute(ctx, action, snap)
		if res.Success || res.Code == schemas.ErrCodeStaleReference || ctx.Err() != nil {
			return res
		}
	}
	res.Code = schemas.ErrCodeRetryBudgetExceeded
	return res
}

// trackNoopClicks counts consecutive clicks with no observable effect and
// reports whether the escalation threshold was crossed. Zero MaxNoopClicks
// disables the escalation entirely.
func (o *Orchestrator) trackNoopClicks(action schemas.ActionDescriptor, res schemas.ExecResult, noopClicks *int) bool {
	if action.Type != schemas.ActionClick {
		return false
	}
	if res.VisibleChange {
		*noopClicks = 0
		return false
	}
	*noopClicks++
	return o.cfg.MaxNoopClicks > 0 && *noopClicks >= o.cfg.MaxNoopClicks
}

func (o *Orchestrator) settleDelay(t schemas.ActionType) time.Duration {
	switch t {
	case schemas.ActionClick:
		return o.cfg.SettleClick
	case schemas.ActionSelect:
		return o.cfg.SettleSelect
	default:
		return o.cfg.SettleType
	}
}
