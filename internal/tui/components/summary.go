package components

import (
	"fmt"
	"strings"
)

// SummaryData aggregates counts for rendering the end-of-run summary.
type SummaryData struct {
	Total       int
	Passed      int
	Failed      int
	Score       int
	MaxScore    int
	Status      string
	Finished    bool
	Cancelled   bool
	BuildFailed bool
}

// Summary renders a textual evaluation summary.
type Summary struct {
	data SummaryData
}

// NewSummary creates a new Summary component.
func NewSummary(data SummaryData) Summary {
	return Summary{data: data}
}

// View renders the summary.
func (s Summary) View() string {
	var lines []string
	if s.data.Total > 0 {
		lines = append(lines, fmt.Sprintf("Tests: %d/%d passed", s.data.Passed, s.data.Total))
		lines = append(lines, fmt.Sprintf("Score: %d/%d", s.data.Score, s.data.MaxScore))
	}

	switch {
	case s.data.Cancelled:
		lines = append(lines, "Evaluation interrupted")
	case s.data.BuildFailed:
		lines = append(lines, "Image build failed; all tests recorded as failed")
	case s.data.Finished && s.data.Status != "":
		lines = append(lines, fmt.Sprintf("Evaluation finished: %s", s.data.Status))
	}

	return strings.Join(lines, "\n")
}
