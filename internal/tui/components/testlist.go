package components

import (
	"time"
)

// TestState is the display state of one rubric test.
type TestState int

const (
	StatePending TestState = iota
	StateRunning
	StatePassed
	StateFailed
)

// TestEntry represents a single test row for rendering.
type TestEntry struct {
	ID       string
	State    TestState
	Message  string
	Duration time.Duration
}

// TestList renders the rubric's tests with their current states.
type TestList struct {
	entries []TestEntry
}

// NewTestList constructs a test list component from pre-ordered entries.
func NewTestList(entries []TestEntry) TestList {
	return TestList{entries: entries}
}

// Entries returns the ordered test entries.
func (l TestList) Entries() []TestEntry {
	clone := make([]TestEntry, len(l.entries))
	copy(clone, l.entries)
	return clone
}
