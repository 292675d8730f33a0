package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hollowbend/crucible/internal/model"
	crucibleerrors "github.com/hollowbend/crucible/pkg/errors"
)

func TestAssembleComputesSummary(t *testing.T) {
	t.Parallel()

	rep := Assemble(Input{
		Repo:       "flask",
		Dockerfile: "candidates/flask.Dockerfile",
		RubricPath: "rubrics/flask.json",
		Status:     model.StatusFailed,
		MaxScore:   5,
		Outcomes: []model.TestOutcome{
			{TestID: "has_python", Kind: "command_exists", Passed: true, Score: 1, Message: "command 'python3' found at /usr/bin/python3", Duration: 800 * time.Millisecond},
			{TestID: "app_present", Kind: "files_exist", Passed: true, Score: 2, Message: "files exist: '/app/app.py'", Duration: 200 * time.Millisecond},
			{TestID: "tests_pass", Kind: "run_command", Passed: false, Score: 0, Message: "command failed (exit 1)", Duration: 3 * time.Second},
		},
		WallTime: 42 * time.Second,
	})

	require.Equal(t, 3, rep.Summary.TotalTests)
	require.Equal(t, 2, rep.Summary.PassedTests)
	require.Equal(t, 1, rep.Summary.FailedTests)
	require.Equal(t, 3, rep.Summary.TotalScore)
	require.Equal(t, 5, rep.Summary.MaxScore)
	require.InDelta(t, 0.6, rep.Summary.SuccessRate, 1e-9)
	require.InDelta(t, 4.0, rep.Summary.TotalExecutionTime, 1e-9)
	require.Len(t, rep.TestResults, 3)
	require.Equal(t, "command_exists", rep.TestResults[0].TestType)
	require.InDelta(t, 0.8, rep.TestResults[0].ExecutionTime, 1e-9)
	require.Equal(t, 42*time.Second, rep.WallTime)
}

func TestAssembleEmptyRubric(t *testing.T) {
	t.Parallel()

	rep := Assemble(Input{Repo: "empty", Status: model.StatusPassed})

	require.Zero(t, rep.Summary.TotalTests)
	require.Zero(t, rep.Summary.MaxScore)
	// Zero max score is not a division fault.
	require.Zero(t, rep.Summary.SuccessRate)
	require.NotNil(t, rep.TestResults)
}

func TestAssembleFullMarks(t *testing.T) {
	t.Parallel()

	rep := Assemble(Input{
		Repo:     "x",
		Status:   model.StatusPassed,
		MaxScore: 3,
		Outcomes: []model.TestOutcome{
			{TestID: "a", Kind: "command_exists", Passed: true, Score: 1},
			{TestID: "output_contains#2", Kind: "output_contains", Passed: true, Score: 2},
		},
	})

	require.Equal(t, 2, rep.Summary.TotalTests)
	require.Equal(t, 2, rep.Summary.PassedTests)
	require.Equal(t, 3, rep.Summary.TotalScore)
	require.Equal(t, 3, rep.Summary.MaxScore)
	require.InDelta(t, 1.0, rep.Summary.SuccessRate, 1e-9)
}

func TestAssembleSkippedDependentScoresZero(t *testing.T) {
	t.Parallel()

	rep := Assemble(Input{
		Repo:     "x",
		Status:   model.StatusFailed,
		MaxScore: 3,
		Outcomes: []model.TestOutcome{
			{TestID: "a", Kind: "command_exists", Passed: false, Message: "command 'bash' not found"},
			{TestID: "output_contains#2", Kind: "output_contains", Passed: false, Message: "skipped: dependencies not satisfied: a"},
		},
	})

	require.Zero(t, rep.Summary.TotalScore)
	require.Zero(t, rep.Summary.SuccessRate)
	require.Equal(t, 2, rep.Summary.FailedTests)
}

func TestAssembleBuildFailure(t *testing.T) {
	t.Parallel()

	rep := Assemble(Input{
		Repo:     "flask",
		Status:   model.StatusBuildFailed,
		BuildErr: crucibleerrors.NewBuildError("flask.Dockerfile", "unknown instruction: FROMM", nil),
		MaxScore: 4,
		Outcomes: []model.TestOutcome{
			{TestID: "a", Kind: "command_exists", Message: "image build failed"},
			{TestID: "b", Kind: "run_command", Message: "image build failed"},
		},
	})

	require.Equal(t, model.StatusBuildFailed, rep.Status)
	require.Contains(t, rep.Error, "flask.Dockerfile")
	require.Zero(t, rep.Summary.PassedTests)
	require.Equal(t, 2, rep.Summary.TotalTests)
	require.Len(t, rep.TestResults, 2)
}

func TestWriteJSONWireShape(t *testing.T) {
	t.Parallel()

	rep := Assemble(Input{
		Repo:       "flask",
		Dockerfile: "candidates/flask.Dockerfile",
		RubricPath: "rubrics/flask.json",
		Status:     model.StatusPassed,
		MaxScore:   1,
		Outcomes: []model.TestOutcome{
			{TestID: "has_python", Kind: "command_exists", Passed: true, Score: 1, Message: "found", Duration: 500 * time.Millisecond},
		},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, rep))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	require.Equal(t, "flask", decoded["repo"])
	require.Equal(t, "candidates/flask.Dockerfile", decoded["dockerfile"])
	require.Equal(t, "rubrics/flask.json", decoded["rubric"])
	require.Equal(t, "passed", decoded["status"])
	require.NotContains(t, decoded, "error")

	summary, ok := decoded["summary"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"total_tests", "passed_tests", "failed_tests", "total_score", "max_score", "success_rate", "total_execution_time"} {
		require.Contains(t, summary, key)
	}

	results, ok := decoded["test_results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 1)
	entry, ok := results[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "has_python", entry["test_id"])
	require.Equal(t, "command_exists", entry["test_type"])
	require.Equal(t, true, entry["passed"])
	require.InDelta(t, 0.5, entry["execution_time"], 1e-9)
}

func TestWriteJSONEmptyResultsIsArray(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, Assemble(Input{Repo: "x", Status: model.StatusPassed})))
	require.Contains(t, buf.String(), `"test_results": []`)
}

func TestWriteSummary(t *testing.T) {
	t.Parallel()

	rep := Assemble(Input{
		Repo:       "flask",
		Dockerfile: "flask.Dockerfile",
		Status:     model.StatusFailed,
		MaxScore:   20,
		Outcomes: []model.TestOutcome{
			{TestID: "a", Kind: "run_command", Passed: true, Score: 15, Duration: time.Second},
			{TestID: "b", Kind: "run_command", Passed: false},
		},
		WallTime: 30 * time.Second,
	})

	var buf bytes.Buffer
	WriteSummary(&buf, rep)
	out := buf.String()

	require.Contains(t, out, "EVALUATION SUMMARY")
	require.Contains(t, out, "Repository:   flask")
	require.Contains(t, out, "Status:       failed")
	require.Contains(t, out, "Score:        15/20")
	require.Contains(t, out, "Success Rate: 75.00%")
	require.Contains(t, out, "Wall Clock:   30.00s")
}

func TestWriteDetails(t *testing.T) {
	t.Parallel()

	rep := Assemble(Input{
		Repo:     "flask",
		Status:   model.StatusFailed,
		MaxScore: 2,
		Outcomes: []model.TestOutcome{
			{TestID: "has_python", Kind: "command_exists", Passed: true, Score: 1, Message: "command 'python3' found at /usr/bin/python3", Duration: 800 * time.Millisecond},
			{TestID: "tests_pass", Kind: "run_command", Passed: false, Message: "command failed (exit 1)", Duration: time.Second},
		},
	})

	var buf bytes.Buffer
	WriteDetails(&buf, rep)
	out := buf.String()

	require.Contains(t, out, "✓ has_python [command_exists] command 'python3' found at /usr/bin/python3 (0.80s)")
	require.Contains(t, out, "✗ tests_pass [run_command] command failed (exit 1) (1.00s)")
}

func TestWriteBatchTable(t *testing.T) {
	t.Parallel()

	reports := []*Report{
		Assemble(Input{Repo: "flask", Status: model.StatusPassed, MaxScore: 4, Outcomes: []model.TestOutcome{
			{TestID: "a", Kind: "run_command", Passed: true, Score: 4, Duration: time.Second},
		}}),
		Assemble(Input{Repo: "redis", Status: model.StatusBuildFailed, MaxScore: 2, Outcomes: []model.TestOutcome{
			{TestID: "b", Kind: "run_command", Message: "image build failed"},
		}}),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBatchTable(&buf, reports))
	out := buf.String()

	require.Contains(t, out, "REPO")
	require.Contains(t, out, "flask")
	require.Contains(t, out, "passed")
	require.Contains(t, out, "redis")
	require.Contains(t, out, "build_failed")
}
