package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hollowbend/crucible/internal/engine"
	"github.com/hollowbend/crucible/internal/model"
	"github.com/hollowbend/crucible/internal/tui/components"
)

// View renders the current state of the evaluation.
func (m Model) View() string {
	var sections []string

	sections = append(sections, titleStyle.Render(fmt.Sprintf("Crucible • %s", m.repo)))

	if phase := m.phaseLine(); phase != "" {
		sections = append(sections, phase)
	}

	if m.phase != engine.PhaseIdle && m.phase != engine.PhaseBuilding {
		bar := components.NewProgress(m.total).View(m.completed)
		sections = append(sections, sectionStyle.Render("Progress"), bar)

		entries := components.NewTestList(m.testEntries()).Entries()
		if len(entries) > 0 {
			sections = append(sections, sectionStyle.Render("Tests"), renderTestEntries(entries))
		}
	}

	if summary := m.summary(); strings.TrimSpace(summary) != "" {
		sections = append(sections, sectionStyle.Render("Summary"), summaryStyle.Render(summary))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) phaseLine() string {
	switch m.phase {
	case engine.PhaseBuilding:
		return fmt.Sprintf("%s building %s", m.spin.View(), m.image)
	case engine.PhaseTearingDown:
		return fmt.Sprintf("%s removing %s", m.spin.View(), m.image)
	default:
		return ""
	}
}

func (m Model) testEntries() []components.TestEntry {
	entries := make([]components.TestEntry, 0, len(m.order))
	for _, id := range m.order {
		entry := components.TestEntry{ID: id, State: components.StatePending}
		if outcome, ok := m.outcomes[id]; ok {
			entry.Message = outcome.Message
			entry.Duration = outcome.Duration
			entry.State = components.StateFailed
			if outcome.Passed {
				entry.State = components.StatePassed
			}
		} else if id == m.running {
			entry.State = components.StateRunning
		}
		entries = append(entries, entry)
	}
	return entries
}

func renderTestEntries(entries []components.TestEntry) string {
	var lines []string
	for _, entry := range entries {
		line := fmt.Sprintf(" %s %s", stateIcon(entry.State), entry.ID)
		if strings.TrimSpace(entry.Message) != "" {
			line = fmt.Sprintf("%s: %s", line, entry.Message)
		}
		if entry.Duration > 0 {
			line = fmt.Sprintf("%s (%s)", line, entry.Duration.Truncate(10*time.Millisecond))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) summary() string {
	passed, score := 0, 0
	for _, outcome := range m.outcomes {
		if outcome.Passed {
			passed++
		}
		score += outcome.Score
	}

	return components.NewSummary(components.SummaryData{
		Total:       m.total,
		Passed:      passed,
		Failed:      m.completed - passed,
		Score:       score,
		MaxScore:    m.maxScore,
		Status:      m.status,
		Finished:    m.finished,
		Cancelled:   m.cancelled,
		BuildFailed: m.buildErr != nil && m.status == model.StatusBuildFailed,
	}).View()
}

func stateIcon(state components.TestState) string {
	switch state {
	case components.StatePassed:
		return passStyle.Render("✓")
	case components.StateRunning:
		return runningStyle.Render("⏳")
	case components.StateFailed:
		return failStyle.Render("✗")
	default:
		return pendingStyle.Render("…")
	}
}
