package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

const rule = 50

// WriteSummary renders the aggregate block shown after every evaluation.
func WriteSummary(w io.Writer, rep *Report) {
	fmt.Fprintln(w, strings.Repeat("=", rule))
	fmt.Fprintln(w, "EVALUATION SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", rule))
	fmt.Fprintf(w, "Repository:   %s\n", rep.Repo)
	fmt.Fprintf(w, "Dockerfile:   %s\n", rep.Dockerfile)
	fmt.Fprintf(w, "Status:       %s\n", rep.Status)
	if rep.Error != "" {
		fmt.Fprintf(w, "Error:        %s\n", rep.Error)
	}
	fmt.Fprintf(w, "Total Tests:  %d\n", rep.Summary.TotalTests)
	fmt.Fprintf(w, "Passed:       %d\n", rep.Summary.PassedTests)
	fmt.Fprintf(w, "Failed:       %d\n", rep.Summary.FailedTests)
	fmt.Fprintf(w, "Score:        %d/%d\n", rep.Summary.TotalScore, rep.Summary.MaxScore)
	fmt.Fprintf(w, "Success Rate: %.2f%%\n", rep.Summary.SuccessRate*100)
	fmt.Fprintf(w, "Total Time:   %.2fs\n", rep.Summary.TotalExecutionTime)
	if rep.WallTime > 0 {
		fmt.Fprintf(w, "Wall Clock:   %.2fs\n", rep.WallTime.Seconds())
	}
}

// WriteDetails renders one line per test result.
func WriteDetails(w io.Writer, rep *Report) {
	fmt.Fprintln(w, "DETAILED RESULTS:")
	fmt.Fprintln(w, strings.Repeat("-", rule))
	for _, r := range rep.TestResults {
		mark := "✗"
		if r.Passed {
			mark = "✓"
		}
		fmt.Fprintf(w, "%s %s [%s] %s (%.2fs)\n", mark, r.TestID, r.TestType, r.Message, r.ExecutionTime)
	}
}

// WriteBatchTable renders one row per evaluated repository.
func WriteBatchTable(w io.Writer, reports []*Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REPO\tSTATUS\tPASSED\tSCORE\tRATE\tTIME")
	fmt.Fprintln(tw, strings.Repeat("-", 72))
	for _, rep := range reports {
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%d/%d\t%.0f%%\t%.1fs\n",
			rep.Repo, rep.Status,
			rep.Summary.PassedTests, rep.Summary.TotalTests,
			rep.Summary.TotalScore, rep.Summary.MaxScore,
			rep.Summary.SuccessRate*100,
			rep.Summary.TotalExecutionTime)
	}
	return tw.Flush()
}
