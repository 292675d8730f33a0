package check

import (
	"context"
	"fmt"

	"github.com/hollowbend/crucible/internal/rubric"
	"github.com/hollowbend/crucible/internal/runtime"
)

// dirsExistCheck verifies every listed path is a directory in the image.
type dirsExistCheck struct{}

func (dirsExistCheck) Kind() rubric.Kind { return rubric.KindDirsExist }

func (dirsExistCheck) Run(ctx context.Context, p runtime.Prober, image runtime.ImageRef, spec rubric.TestSpec) (Result, error) {
	params := spec.DirsExist
	if params == nil {
		return Result{}, fmt.Errorf("dirs_exist params missing")
	}

	for _, path := range params.Paths {
		res, err := probe(ctx, p, image, "test -d "+shellQuote(path), spec)
		if err != nil {
			return Result{}, err
		}
		if res.ExitCode != 0 {
			return Result{Message: fmt.Sprintf("directory '%s' missing or not a directory", path)}, nil
		}
	}
	return Result{Passed: true, Message: fmt.Sprintf("directories exist: %s", quoteList(params.Paths))}, nil
}

// filesExistCheck verifies every listed path is a regular file in the image.
type filesExistCheck struct{}

func (filesExistCheck) Kind() rubric.Kind { return rubric.KindFilesExist }

func (filesExistCheck) Run(ctx context.Context, p runtime.Prober, image runtime.ImageRef, spec rubric.TestSpec) (Result, error) {
	params := spec.FilesExist
	if params == nil {
		return Result{}, fmt.Errorf("files_exist params missing")
	}

	for _, path := range params.Paths {
		res, err := probe(ctx, p, image, "test -f "+shellQuote(path), spec)
		if err != nil {
			return Result{}, err
		}
		if res.ExitCode != 0 {
			return Result{Message: fmt.Sprintf("file '%s' missing or not a regular file", path)}, nil
		}
	}
	return Result{Passed: true, Message: fmt.Sprintf("files exist: %s", quoteList(params.Paths))}, nil
}

// fileContainsCheck reads a file and requires every wanted substring.
type fileContainsCheck struct{}

func (fileContainsCheck) Kind() rubric.Kind { return rubric.KindFileContains }

func (fileContainsCheck) Run(ctx context.Context, p runtime.Prober, image runtime.ImageRef, spec rubric.TestSpec) (Result, error) {
	params := spec.FileContains
	if params == nil {
		return Result{}, fmt.Errorf("file_contains params missing")
	}

	res, err := probe(ctx, p, image, "cat "+shellQuote(params.Path), spec)
	if err != nil {
		return Result{}, err
	}

	if res.ExitCode != 0 {
		detail := truncate(res.Stderr, maxStderrInMessage)
		if detail == "" {
			detail = "not readable"
		}
		return Result{Message: fmt.Sprintf("file '%s' unreadable: %s", params.Path, detail)}, nil
	}

	if missing := missingFrom(res.Stdout, params.Contains); len(missing) > 0 {
		return Result{Message: fmt.Sprintf("file '%s' missing required content: %s", params.Path, quoteList(missing))}, nil
	}
	return Result{Passed: true, Message: fmt.Sprintf("file '%s' contains all required strings", params.Path)}, nil
}
