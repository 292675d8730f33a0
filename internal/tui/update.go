package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hollowbend/crucible/internal/engine"
)

// Update handles Bubbletea messages and advances the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case BuildStartMsg:
		m.phase = engine.PhaseBuilding
		m.image = msg.Image
		return m, nil

	case BuildCompleteMsg:
		m.buildErr = msg.Err
		if msg.Err == nil {
			m.phase = engine.PhaseEvaluating
		}
		return m, nil

	case TestStartMsg:
		m.running = msg.ID
		return m, nil

	case TestCompleteMsg:
		id := msg.Outcome.TestID
		if id == "" {
			return m, nil
		}
		if _, seen := m.outcomes[id]; !seen {
			m.completed++
		}
		m.outcomes[id] = msg.Outcome
		if m.running == id {
			m.running = ""
		}
		return m, nil

	case TeardownMsg:
		m.phase = engine.PhaseTearingDown
		m.running = ""
		return m, nil

	case DoneMsg:
		m.phase = engine.PhaseDone
		m.status = msg.Status
		m.finished = true
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}

	case tea.QuitMsg:
		m.finished = true
		return m, nil
	}

	return m, nil
}
