package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hollowbend/crucible/internal/check"
	"github.com/hollowbend/crucible/internal/logger"
	"github.com/hollowbend/crucible/internal/model"
	"github.com/hollowbend/crucible/internal/rubric"
	"github.com/hollowbend/crucible/internal/runtime"
	crucibleerrors "github.com/hollowbend/crucible/pkg/errors"
)

// Evaluator runs single tests against a built image. Every fault is
// converted into a failed outcome: nothing that happens inside a check may
// abort the surrounding session.
type Evaluator struct {
	registry *check.Registry
	log      *logger.Logger
}

// NewEvaluator creates an evaluator over the given check registry.
func NewEvaluator(registry *check.Registry, log *logger.Logger) *Evaluator {
	return &Evaluator{registry: registry, log: log}
}

// Evaluate dispatches one test to its check under the test's timeout and
// returns its outcome. id is the display id the outcome is reported under.
func (e *Evaluator) Evaluate(ctx context.Context, prober runtime.Prober, image runtime.ImageRef, spec rubric.TestSpec, id string) model.TestOutcome {
	start := time.Now()

	c, err := e.registry.Lookup(spec.Type)
	if err != nil {
		outcome := model.Failed(id, spec.Type, err.Error())
		outcome.Duration = time.Since(start)
		return outcome
	}

	testCtx, cancel := context.WithTimeout(ctx, spec.TimeoutDuration())
	defer cancel()

	result, err := c.Run(testCtx, prober, image, spec)
	duration := time.Since(start)

	if err != nil {
		outcome := e.convertFault(ctx, testCtx, spec, id, err)
		outcome.Duration = duration
		return outcome
	}

	outcome := model.TestOutcome{
		TestID:   id,
		Kind:     spec.Type,
		Passed:   result.Passed,
		Message:  result.Message,
		Duration: duration,
	}
	if result.Passed {
		outcome.Score = spec.Score
	}
	return outcome
}

// convertFault maps a check fault onto a failed outcome, distinguishing
// timeouts, operator interruption, and environment faults.
func (e *Evaluator) convertFault(ctx, testCtx context.Context, spec rubric.TestSpec, id string, err error) model.TestOutcome {
	switch {
	case errors.Is(err, check.ErrProbeTimedOut),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(testCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		e.log.Error(crucibleerrors.NewTimeoutError(id, spec.TimeoutDuration()), "check timed out")
		return model.Failed(id, spec.Type, fmt.Sprintf("timed out after %ds", spec.Timeout))

	case errors.Is(err, context.Canceled):
		return model.Failed(id, spec.Type, "evaluation interrupted")

	default:
		e.log.Error(crucibleerrors.NewExecutionError(id, err), "check failed to execute")
		return model.Failed(id, spec.Type, fmt.Sprintf("execution error: %v", err))
	}
}
