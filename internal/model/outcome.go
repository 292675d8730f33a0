package model

import (
	"time"

	"github.com/hollowbend/crucible/internal/rubric"
)

const (
	// StatusPassed marks an evaluation in which every test passed.
	StatusPassed = "passed"
	// StatusFailed marks an evaluation in which at least one test failed.
	StatusFailed = "failed"
	// StatusBuildFailed marks an evaluation whose image never built; every
	// test is reported failed without running.
	StatusBuildFailed = "build_failed"
	// StatusInterrupted marks an evaluation cancelled before all tests ran.
	StatusInterrupted = "interrupted"
)

// TestOutcome captures the result of a single rubric test. Every declared
// test yields exactly one outcome, including tests skipped because a
// dependency failed and tests never attempted because the image did not
// build or the session was interrupted.
type TestOutcome struct {
	// TestID is the declared id, or a synthesized display id for anonymous tests.
	TestID string

	// Kind is the declared test type, preserved even when unknown.
	Kind rubric.Kind

	// Passed reports whether the check succeeded.
	Passed bool

	// Score is the number of points awarded: the declared weight when the
	// check passed, zero otherwise.
	Score int

	// Message is a human-readable account of what the check found.
	Message string

	// Duration is the wall-clock time spent on the check. Zero for tests
	// that never ran.
	Duration time.Duration
}

// Failed builds a failed, zero-score outcome with the given message.
func Failed(id string, kind rubric.Kind, message string) TestOutcome {
	return TestOutcome{TestID: id, Kind: kind, Message: message}
}

// StatusFor reduces a set of outcomes to a whole-evaluation status.
func StatusFor(outcomes []TestOutcome) string {
	for _, outcome := range outcomes {
		if !outcome.Passed {
			return StatusFailed
		}
	}
	return StatusPassed
}
