package orchestration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cschleiden/go-workflows/activity"

	"github.com/QuenumGerald/snapcloud/internal/blueprint"
)

// Activities holds the collaborator implementations shared by all activity
// invocations of this worker. Collaborators are invoked at-least-once by the
// engine, so they must tolerate duplicate calls with the same input.
type Activities struct {
	Splitter  blueprint.TaskSplitter
	Generator blueprint.ArtifactGenerator
	Auditor   blueprint.Auditor

	// StepTimeout is the start-to-close timeout applied to every attempt.
	StepTimeout time.Duration

	// SplitFallback enables degrading to a one-task list equal to the
	// requirement when the splitter returns unusable output. Transport
	// failures never degrade; they stay retryable errors.
	SplitFallback bool
}

// SplitResult tags degraded fallbacks so operators can tell a failing
// collaborator from a legitimately short task list.
type SplitResult struct {
	Tasks    []string
	Degraded bool
	Reason   string
}

func (a *Activities) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.StepTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.StepTimeout)
}

// SplitTasks turns the requirement into an ordered task list.
func (a *Activities) SplitTasks(ctx context.Context, requirement string) (SplitResult, error) {
	logger := activity.Logger(ctx)
	logger.Debug("Splitting requirement into tasks", "requirement_len", len(requirement))

	ctx, cancel := a.stepContext(ctx)
	defer cancel()

	tasks, err := a.Splitter.SplitTasks(ctx, requirement)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return SplitResult{}, fmt.Errorf("split attempt timed out after %v: %w", a.StepTimeout, err)
		}
		if a.SplitFallback && errors.Is(err, blueprint.ErrNoTasks) {
			logger.Warn("Task splitting degraded to single-task fallback", "reason", err.Error())
			return SplitResult{
				Tasks:    []string{requirement},
				Degraded: true,
				Reason:   err.Error(),
			}, nil
		}
		return SplitResult{}, err
	}

	logger.Debug("Requirement split", "tasks", len(tasks))
	return SplitResult{Tasks: tasks}, nil
}

// GenerateArtifacts turns the ordered task list into an artifact bundle.
func (a *Activities) GenerateArtifacts(ctx context.Context, tasks []string) (*blueprint.ArtifactBundle, error) {
	logger := activity.Logger(ctx)
	logger.Debug("Generating artifacts", "tasks", len(tasks))

	ctx, cancel := a.stepContext(ctx)
	defer cancel()

	bundle, err := a.Generator.GenerateArtifacts(ctx, tasks)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("generate attempt timed out after %v: %w", a.StepTimeout, err)
		}
		return nil, err
	}

	// A structurally incomplete bundle is a failed generation, not a
	// partial success.
	if err := bundle.Validate(); err != nil {
		return nil, err
	}

	if bundle.CostDegraded {
		logger.Warn("Cost breakdown degraded to empty object")
	}

	logger.Debug("Artifacts generated",
		"diagram_len", len(bundle.DiagramMermaid),
		"template_len", len(bundle.CfnTemplate),
	)
	return bundle, nil
}

// AuditArtifacts runs the best-effort security audit.
func (a *Activities) AuditArtifacts(ctx context.Context, bundle *blueprint.ArtifactBundle) (*blueprint.AuditReport, error) {
	logger := activity.Logger(ctx)
	logger.Debug("Auditing artifacts")

	ctx, cancel := a.stepContext(ctx)
	defer cancel()

	report, err := a.Auditor.AuditArtifacts(ctx, bundle)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("audit attempt timed out after %v: %w", a.StepTimeout, err)
		}
		return nil, err
	}
	return report, nil
}
