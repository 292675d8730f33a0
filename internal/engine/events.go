package engine

import (
	"github.com/hollowbend/crucible/internal/model"
	"github.com/hollowbend/crucible/internal/rubric"
)

// EventKind enumerates session progress notifications.
type EventKind int

const (
	// EventBuildStarted fires when the image build begins.
	EventBuildStarted EventKind = iota
	// EventBuildFinished fires when the build ends; Err carries the failure.
	EventBuildFinished
	// EventTestStarted fires before a test is attempted.
	EventTestStarted
	// EventTestFinished fires once a test has an outcome, including skips.
	EventTestFinished
	// EventTeardownStarted fires when the image is being released.
	EventTeardownStarted
)

// Event is one progress notification from a running session.
type Event struct {
	Kind     EventKind
	Image    string
	TestID   string
	TestKind rubric.Kind
	Index    int // 1-based position in the rubric
	Total    int
	Outcome  *model.TestOutcome // set for EventTestFinished
	Err      error              // set for failed EventBuildFinished
}

// Sink receives session events. Publish must not block for long; it is
// called inline between tests.
type Sink interface {
	Publish(Event)
}
