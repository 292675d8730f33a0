package check

import (
	"context"
	"fmt"
	"strings"

	"github.com/hollowbend/crucible/internal/rubric"
	"github.com/hollowbend/crucible/internal/runtime"
)

// commandExistsCheck resolves a named executable on the image's search path.
type commandExistsCheck struct{}

func (commandExistsCheck) Kind() rubric.Kind { return rubric.KindCommandExists }

func (commandExistsCheck) Run(ctx context.Context, p runtime.Prober, image runtime.ImageRef, spec rubric.TestSpec) (Result, error) {
	params := spec.CommandExists
	if params == nil {
		return Result{}, fmt.Errorf("command_exists params missing")
	}

	res, err := probe(ctx, p, image, "command -v "+shellQuote(params.Name), spec)
	if err != nil {
		return Result{}, err
	}

	resolved := strings.TrimSpace(res.Stdout)
	if res.ExitCode != 0 || resolved == "" {
		return Result{Message: fmt.Sprintf("command '%s' not found", params.Name)}, nil
	}

	// `command -v` may echo multiple candidates; report the first.
	if i := strings.IndexByte(resolved, '\n'); i >= 0 {
		resolved = resolved[:i]
	}
	return Result{Passed: true, Message: fmt.Sprintf("command '%s' found at %s", params.Name, resolved)}, nil
}

// runCommandCheck executes a shell command and requires a zero exit.
type runCommandCheck struct{}

func (runCommandCheck) Kind() rubric.Kind { return rubric.KindRunCommand }

func (runCommandCheck) Run(ctx context.Context, p runtime.Prober, image runtime.ImageRef, spec rubric.TestSpec) (Result, error) {
	params := spec.RunCommand
	if params == nil {
		return Result{}, fmt.Errorf("run_command params missing")
	}

	res, err := probe(ctx, p, image, params.Command, spec)
	if err != nil {
		return Result{}, err
	}

	if res.ExitCode != 0 {
		return Result{Message: commandFailureMessage(res)}, nil
	}
	return Result{Passed: true, Message: "command executed successfully"}, nil
}

// outputContainsCheck executes a command and requires a zero exit plus every
// wanted substring in its combined output.
type outputContainsCheck struct{}

func (outputContainsCheck) Kind() rubric.Kind { return rubric.KindOutputContains }

func (outputContainsCheck) Run(ctx context.Context, p runtime.Prober, image runtime.ImageRef, spec rubric.TestSpec) (Result, error) {
	params := spec.OutputContains
	if params == nil {
		return Result{}, fmt.Errorf("output_contains params missing")
	}

	res, err := probe(ctx, p, image, params.Command, spec)
	if err != nil {
		return Result{}, err
	}

	if res.ExitCode != 0 {
		return Result{Message: commandFailureMessage(res)}, nil
	}

	if missing := missingFrom(res.CombinedOutput(), params.Contains); len(missing) > 0 {
		return Result{Message: fmt.Sprintf("output missing required strings: %s", quoteList(missing))}, nil
	}
	return Result{Passed: true, Message: "output contains all required strings"}, nil
}

// commandFailureMessage summarizes a non-zero exit, preferring stderr.
func commandFailureMessage(res *runtime.ExecResult) string {
	detail := res.Stderr
	if strings.TrimSpace(detail) == "" {
		detail = res.Stdout
	}
	detail = truncate(detail, maxStderrInMessage)
	if detail == "" {
		return fmt.Sprintf("command failed (exit %d)", res.ExitCode)
	}
	return fmt.Sprintf("command failed (exit %d): %s", res.ExitCode, detail)
}
