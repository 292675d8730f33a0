// Package report turns a finished evaluation into its external shapes: the
// JSON report document and the human-readable summaries.
package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/hollowbend/crucible/internal/model"
)

// Report is the evaluation report document. Assembled once per session and
// immutable afterwards.
type Report struct {
	Repo        string       `json:"repo"`
	Dockerfile  string       `json:"dockerfile"`
	Rubric      string       `json:"rubric"`
	Status      string       `json:"status"`
	Error       string       `json:"error,omitempty"`
	Summary     Summary      `json:"summary"`
	TestResults []TestResult `json:"test_results"`

	// WallTime is the whole session's clock, build and teardown included.
	// Display only; the JSON summary carries the per-test sum.
	WallTime time.Duration `json:"-"`
}

// Summary aggregates the outcome counts and scores.
type Summary struct {
	TotalTests  int `json:"total_tests"`
	PassedTests int `json:"passed_tests"`
	FailedTests int `json:"failed_tests"`
	TotalScore  int `json:"total_score"`
	MaxScore    int `json:"max_score"`
	// SuccessRate is the score ratio total/max, zero when max is zero.
	SuccessRate float64 `json:"success_rate"`
	// TotalExecutionTime is the summed per-test time in seconds.
	TotalExecutionTime float64 `json:"total_execution_time"`
}

// TestResult is one test's entry in the report.
type TestResult struct {
	TestID        string  `json:"test_id"`
	TestType      string  `json:"test_type"`
	Passed        bool    `json:"passed"`
	Score         int     `json:"score"`
	Message       string  `json:"message"`
	ExecutionTime float64 `json:"execution_time"`
}

// Input carries everything Assemble needs from a finished session.
type Input struct {
	Repo       string
	Dockerfile string
	RubricPath string
	Status     string
	// BuildErr, when set, is surfaced in the report's error field.
	BuildErr error
	// MaxScore is the sum of declared weights over the whole rubric.
	MaxScore int
	Outcomes []model.TestOutcome
	WallTime time.Duration
}

// Assemble folds session outcomes into the report document. Every outcome
// maps to exactly one test result, in declared order.
func Assemble(in Input) *Report {
	rep := &Report{
		Repo:        in.Repo,
		Dockerfile:  in.Dockerfile,
		Rubric:      in.RubricPath,
		Status:      in.Status,
		TestResults: make([]TestResult, 0, len(in.Outcomes)),
		WallTime:    in.WallTime,
	}
	if in.BuildErr != nil {
		rep.Error = in.BuildErr.Error()
	}

	var testTime float64
	for _, outcome := range in.Outcomes {
		seconds := outcome.Duration.Seconds()
		testTime += seconds

		rep.Summary.TotalTests++
		if outcome.Passed {
			rep.Summary.PassedTests++
		} else {
			rep.Summary.FailedTests++
		}
		rep.Summary.TotalScore += outcome.Score

		rep.TestResults = append(rep.TestResults, TestResult{
			TestID:        outcome.TestID,
			TestType:      string(outcome.Kind),
			Passed:        outcome.Passed,
			Score:         outcome.Score,
			Message:       outcome.Message,
			ExecutionTime: seconds,
		})
	}

	rep.Summary.MaxScore = in.MaxScore
	if in.MaxScore > 0 {
		rep.Summary.SuccessRate = float64(rep.Summary.TotalScore) / float64(in.MaxScore)
	}
	rep.Summary.TotalExecutionTime = testTime
	return rep
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, rep *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
