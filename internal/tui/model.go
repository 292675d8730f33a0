package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hollowbend/crucible/internal/engine"
	"github.com/hollowbend/crucible/internal/model"
	"github.com/hollowbend/crucible/internal/rubric"
)

// BuildStartMsg indicates the image build has begun.
type BuildStartMsg struct {
	Image string
}

// BuildCompleteMsg reports the build finished; Err carries the failure.
type BuildCompleteMsg struct {
	Err error
}

// TestStartMsg indicates a test is being attempted.
type TestStartMsg struct {
	ID    string
	Kind  rubric.Kind
	Index int
	Total int
}

// TestCompleteMsg carries one finished test outcome, skips included.
type TestCompleteMsg struct {
	Outcome model.TestOutcome
}

// TeardownMsg indicates the image is being released.
type TeardownMsg struct{}

// DoneMsg ends the program with the evaluation's final status.
type DoneMsg struct {
	Status string
}

// Model holds the Bubbletea state for a live evaluation run.
type Model struct {
	repo  string
	image string
	spin  spinner.Model

	order    []string
	outcomes map[string]model.TestOutcome
	running  string

	total     int
	completed int
	maxScore  int

	phase     engine.Phase
	status    string
	buildErr  error
	finished  bool
	cancelled bool

	// cancel interrupts the session when the user presses ctrl+c; the
	// session then reports unattempted tests and tears down.
	cancel context.CancelFunc
}

// NewModel constructs the evaluation view. ids are the display ids in rubric
// order, shown as pending until their outcomes arrive.
func NewModel(repo string, ids []string, maxScore int, cancel context.CancelFunc) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Model{
		repo:     repo,
		spin:     s,
		order:    append([]string(nil), ids...),
		outcomes: make(map[string]model.TestOutcome, len(ids)),
		total:    len(ids),
		maxScore: maxScore,
		phase:    engine.PhaseIdle,
		cancel:   cancel,
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

// CompletedTests returns how many tests have outcomes so far.
func (m Model) CompletedTests() int {
	return m.completed
}

// IsFinished reports whether the run has ended.
func (m Model) IsFinished() bool {
	return m.finished
}

// IsCancelled reports whether the user interrupted the run.
func (m Model) IsCancelled() bool {
	return m.cancelled
}
