package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hollowbend/crucible/internal/check"
	"github.com/hollowbend/crucible/internal/logger"
	"github.com/hollowbend/crucible/internal/model"
	"github.com/hollowbend/crucible/internal/rubric"
	"github.com/hollowbend/crucible/internal/runtime"
	crucibleerrors "github.com/hollowbend/crucible/pkg/errors"
)

// Phase names the session's position in its lifecycle.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseBuilding    Phase = "building"
	PhaseEvaluating  Phase = "evaluating"
	PhaseTearingDown Phase = "tearing_down"
	PhaseDone        Phase = "done"
)

// teardownTimeout bounds image removal so a wedged daemon cannot hold the
// session open forever.
const teardownTimeout = 30 * time.Second

// interruptedMessage is recorded for tests never attempted because the
// operator cancelled the run.
const interruptedMessage = "evaluation interrupted before this test ran"

// SessionOptions configure one evaluation run.
type SessionOptions struct {
	// Recipe is the path to the candidate Dockerfile.
	Recipe string
	// ContextDir is the build context directory.
	ContextDir string
	// BuildTimeout bounds the image build; zero means the runtime default.
	BuildTimeout time.Duration
	// Sink optionally receives progress events.
	Sink Sink
}

// Evaluation aggregates a finished session: overall status, one outcome per
// declared test, and the session's wall time.
type Evaluation struct {
	Status   string
	Outcomes []model.TestOutcome
	BuildErr error // non-nil when Status is StatusBuildFailed
	WallTime time.Duration
}

// Session owns one image for the duration of one rubric evaluation. The
// image is built at the start, probed by every test in declared order, and
// torn down on every exit path, build failure and interruption included.
type Session struct {
	runtime   runtime.Runtime
	evaluator *Evaluator
	log       *logger.Logger
	phase     Phase
}

// NewSession creates a session over the given runtime and check registry.
func NewSession(rt runtime.Runtime, registry *check.Registry, log *logger.Logger) *Session {
	return &Session{
		runtime:   rt,
		evaluator: NewEvaluator(registry, log),
		log:       log,
		phase:     PhaseIdle,
	}
}

// Phase reports the session's current lifecycle phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// Run evaluates the rubric against the recipe. The returned outcomes always
// cover every declared test exactly once: tests that never ran because the
// build failed, a dependency was unmet, or the run was interrupted are
// reported as failed with a message saying why. Errors are reserved for
// misuse; evaluation failures are expressed through Status and Outcomes.
func (s *Session) Run(ctx context.Context, r *rubric.Rubric, opts SessionOptions) (*Evaluation, error) {
	if r == nil {
		return nil, crucibleerrors.NewExecutionError("", fmt.Errorf("rubric is nil"))
	}
	if s.runtime == nil {
		return nil, crucibleerrors.NewExecutionError("", fmt.Errorf("runtime is nil"))
	}

	start := time.Now()
	eval := &Evaluation{}
	image := runtime.NewImageRef(r.Repo)

	log := s.log.WithFields(map[string]any{"repo": r.Repo, "image": image.Tag})
	log.Debug("session starting")

	// Scoped acquisition: the ref exists before the build starts and the
	// deferred release runs on every path out of this function, so the
	// runtime sees exactly one remove call per session.
	defer func() {
		s.teardown(image, opts.Sink)
		eval.WallTime = time.Since(start)
	}()

	s.setPhase(PhaseBuilding)
	s.publish(opts.Sink, Event{Kind: EventBuildStarted, Image: image.Tag, Total: len(r.Tests)})

	_, buildErr := s.runtime.Build(ctx, runtime.BuildInput{
		Recipe:     opts.Recipe,
		ContextDir: opts.ContextDir,
		Tag:        image.Tag,
		Timeout:    opts.BuildTimeout,
	})
	s.publish(opts.Sink, Event{Kind: EventBuildFinished, Image: image.Tag, Err: buildErr, Total: len(r.Tests)})

	if buildErr != nil {
		log.Error(buildErr, "image build failed")
		if ctx.Err() != nil {
			eval.Status = model.StatusInterrupted
			s.failRemaining(r, eval, 0, interruptedMessage, opts.Sink)
		} else {
			eval.Status = model.StatusBuildFailed
			s.failRemaining(r, eval, 0, "image build failed", opts.Sink)
		}
		eval.BuildErr = buildErr
		return eval, nil
	}

	s.setPhase(PhaseEvaluating)
	res := newResolver(len(r.Tests))

	for i, spec := range r.Tests {
		id := spec.EffectiveID(i + 1)

		if ctx.Err() != nil {
			eval.Status = model.StatusInterrupted
			s.failRemaining(r, eval, i, interruptedMessage, opts.Sink)
			return eval, nil
		}

		if unmet := res.unmet(spec); len(unmet) > 0 {
			outcome := model.Failed(id, spec.Type, fmt.Sprintf("skipped: dependencies not satisfied: %s", strings.Join(unmet, ", ")))
			s.finish(r, eval, res, spec, i, outcome, opts.Sink)
			continue
		}

		s.publish(opts.Sink, Event{Kind: EventTestStarted, TestID: id, TestKind: spec.Type, Index: i + 1, Total: len(r.Tests)})
		outcome := s.evaluator.Evaluate(ctx, s.runtime, image, spec, id)
		s.finish(r, eval, res, spec, i, outcome, opts.Sink)
	}

	if ctx.Err() != nil {
		eval.Status = model.StatusInterrupted
	} else {
		eval.Status = model.StatusFor(eval.Outcomes)
	}
	return eval, nil
}

// finish records one outcome and announces it.
func (s *Session) finish(r *rubric.Rubric, eval *Evaluation, res *resolver, spec rubric.TestSpec, index int, outcome model.TestOutcome, sink Sink) {
	res.record(spec, outcome)
	eval.Outcomes = append(eval.Outcomes, outcome)

	s.log.WithFields(map[string]any{
		"test":     outcome.TestID,
		"kind":     string(outcome.Kind),
		"passed":   outcome.Passed,
		"duration": outcome.Duration.String(),
	}).Debug(outcome.Message)

	s.publish(sink, Event{
		Kind:     EventTestFinished,
		TestID:   outcome.TestID,
		TestKind: outcome.Kind,
		Index:    index + 1,
		Total:    len(r.Tests),
		Outcome:  &outcome,
	})
}

// failRemaining synthesizes a failed outcome for every test from index on,
// keeping the report total over the rubric.
func (s *Session) failRemaining(r *rubric.Rubric, eval *Evaluation, from int, message string, sink Sink) {
	for i := from; i < len(r.Tests); i++ {
		spec := r.Tests[i]
		outcome := model.Failed(spec.EffectiveID(i+1), spec.Type, message)
		eval.Outcomes = append(eval.Outcomes, outcome)
		s.publish(sink, Event{
			Kind:     EventTestFinished,
			TestID:   outcome.TestID,
			TestKind: outcome.Kind,
			Index:    i + 1,
			Total:    len(r.Tests),
			Outcome:  &outcome,
		})
	}
}

// teardown releases the session's image. It runs under its own context:
// the run context may already be cancelled and the release must still
// happen. Teardown errors are logged and never alter outcomes.
func (s *Session) teardown(image runtime.ImageRef, sink Sink) {
	s.setPhase(PhaseTearingDown)
	s.publish(sink, Event{Kind: EventTeardownStarted, Image: image.Tag})

	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()

	if err := s.runtime.Remove(ctx, image); err != nil {
		s.log.WithFields(map[string]any{"image": image.Tag}).Error(err, "image teardown failed")
	}
	s.setPhase(PhaseDone)
}

func (s *Session) setPhase(phase Phase) {
	s.phase = phase
	s.log.WithFields(map[string]any{"phase": string(phase)}).Debug("session phase changed")
}

func (s *Session) publish(sink Sink, event Event) {
	if sink == nil {
		return
	}
	sink.Publish(event)
}
