package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hollowbend/crucible/internal/engine"
)

// eventSink forwards session events into a running Bubbletea program.
type eventSink struct {
	send func(tea.Msg)
}

// NewEventSink adapts a message sender (typically Program.Send) into an
// engine.Sink.
func NewEventSink(send func(tea.Msg)) engine.Sink {
	return eventSink{send: send}
}

func (s eventSink) Publish(e engine.Event) {
	switch e.Kind {
	case engine.EventBuildStarted:
		s.send(BuildStartMsg{Image: e.Image})
	case engine.EventBuildFinished:
		s.send(BuildCompleteMsg{Err: e.Err})
	case engine.EventTestStarted:
		s.send(TestStartMsg{ID: e.TestID, Kind: e.TestKind, Index: e.Index, Total: e.Total})
	case engine.EventTestFinished:
		if e.Outcome != nil {
			s.send(TestCompleteMsg{Outcome: *e.Outcome})
		}
	case engine.EventTeardownStarted:
		s.send(TeardownMsg{})
	}
}
