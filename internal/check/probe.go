package check

import (
	"context"
	"errors"
	"strings"

	"github.com/hollowbend/crucible/internal/rubric"
	"github.com/hollowbend/crucible/internal/runtime"
)

// ErrProbeTimedOut marks a probe that was killed at its deadline. The
// evaluator converts it into a timeout outcome for the owning test.
var ErrProbeTimedOut = errors.New("probe timed out")

// maxStderrInMessage caps how much captured stderr a failure message carries.
const maxStderrInMessage = 100

// probe runs one shell probe and normalizes timeout reporting: a killed
// probe surfaces as ErrProbeTimedOut instead of a result.
func probe(ctx context.Context, p runtime.Prober, image runtime.ImageRef, command string, spec rubric.TestSpec) (*runtime.ExecResult, error) {
	res, err := p.Probe(ctx, image, command, spec.TimeoutDuration())
	if err != nil {
		return nil, err
	}
	if res.TimedOut {
		return nil, ErrProbeTimedOut
	}
	return res, nil
}

// shellQuote wraps s in single quotes, escaping embedded single quotes, so
// rubric-supplied values pass through `sh -c` verbatim.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// truncate caps s at n bytes for inclusion in a message.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// missingFrom lists the wanted substrings absent from text, preserving order.
func missingFrom(text string, wanted []string) []string {
	var missing []string
	for _, w := range wanted {
		if !strings.Contains(text, w) {
			missing = append(missing, w)
		}
	}
	return missing
}

// quoteList renders values for a message, comma separated and quoted.
func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return strings.Join(quoted, ", ")
}
