// Package orchestration contains the durable blueprint workflow and its
// activity contracts. Workflow code is deterministic: it never touches the
// wall clock, randomness or I/O directly, which is what lets the engine
// replay execution history after a crash and reach the same decisions.
package orchestration

import (
	"time"

	"github.com/cschleiden/go-workflows/workflow"

	"github.com/QuenumGerald/snapcloud/internal/blueprint"
)

// Defaults applied when Input leaves the corresponding field zero.
const (
	DefaultMaxAttempts   = 3
	DefaultRetryInterval = 5 * time.Second
	DefaultRunBudget     = 30 * time.Minute
)

// Input parameterizes one blueprint execution. Retry shape and budget travel
// inside the input so a replayed history always sees the values the
// execution started with, even after a config change.
type Input struct {
	Requirement string

	// EnableAudit adds the best-effort security audit step.
	EnableAudit bool

	MaxAttempts   int
	RetryInterval time.Duration

	// RunBudget bounds the whole execution. Exhaustion fails the
	// execution with DeadlineExceeded regardless of remaining retries.
	RunBudget time.Duration
}

func (in Input) retryOptions() workflow.RetryOptions {
	attempts := in.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	interval := in.RetryInterval
	if interval <= 0 {
		interval = DefaultRetryInterval
	}

	// The aggregate budget is enforced by the workflow's deadline checks
	// between steps; retries are bounded by attempt count only, so a step
	// that eventually succeeds past the deadline still classifies as
	// DeadlineExceeded instead of a step failure.
	return workflow.RetryOptions{
		MaxAttempts:        attempts,
		FirstRetryInterval: interval,
		BackoffCoefficient: 2,
		MaxRetryInterval:   5 * time.Minute,
	}
}

func (in Input) runBudget() time.Duration {
	if in.RunBudget <= 0 {
		return DefaultRunBudget
	}
	return in.RunBudget
}

// Blueprint orchestrates one run: split the requirement into tasks, generate
// the artifact bundle, optionally audit it. Split and generation failures
// fail the execution after retries are exhausted; an audit failure only
// flags the result.
func Blueprint(ctx workflow.Context, input Input) (*blueprint.Result, error) {
	logger := workflow.Logger(ctx)
	logger.Debug("Entering Blueprint", "requirement_len", len(input.Requirement))
	defer logger.Debug("Leaving Blueprint")

	opts := workflow.ActivityOptions{RetryOptions: input.retryOptions()}
	deadline := workflow.Now(ctx).Add(input.runBudget())

	var a *Activities

	split, err := workflow.ExecuteActivity[SplitResult](ctx, opts, a.SplitTasks, input.Requirement).Get(ctx)
	if err != nil {
		return nil, Errorf(KindSplit, "splitting tasks: %w", err)
	}
	if split.Degraded {
		logger.Warn("Task splitting degraded", "reason", split.Reason)
	}

	if workflow.Now(ctx).After(deadline) {
		return nil, Errorf(KindDeadline, "run budget %v exhausted after task splitting", input.runBudget())
	}

	bundle, err := workflow.ExecuteActivity[*blueprint.ArtifactBundle](ctx, opts, a.GenerateArtifacts, split.Tasks).Get(ctx)
	if err != nil {
		return nil, Errorf(KindGeneration, "generating artifacts: %w", err)
	}

	result := &blueprint.Result{
		Tasks:          split.Tasks,
		Bundle:         *bundle,
		SplitDegraded:  split.Degraded,
		DegradedReason: split.Reason,
	}

	if input.EnableAudit {
		// Skipping the audit when the budget is gone beats failing an
		// execution that already holds a complete bundle.
		if workflow.Now(ctx).After(deadline) {
			logger.Warn("Skipping audit, run budget exhausted")
			result.AuditFailed = true
			return result, nil
		}

		report, err := workflow.ExecuteActivity[*blueprint.AuditReport](ctx, opts, a.AuditArtifacts, bundle).Get(ctx)
		if err != nil {
			logger.Warn("Audit failed, attaching warning", "err", err)
			result.AuditFailed = true
		} else {
			result.Audit = report
		}
	}

	return result, nil
}
