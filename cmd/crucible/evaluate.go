package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hollowbend/crucible/internal/check"
	"github.com/hollowbend/crucible/internal/corpus"
	"github.com/hollowbend/crucible/internal/engine"
	"github.com/hollowbend/crucible/internal/logger"
	"github.com/hollowbend/crucible/internal/model"
	"github.com/hollowbend/crucible/internal/report"
	"github.com/hollowbend/crucible/internal/results"
	"github.com/hollowbend/crucible/internal/rubric"
	"github.com/hollowbend/crucible/internal/runtime"
	"github.com/hollowbend/crucible/internal/tui"
)

// evaluateOptions carries the resolved configuration for one evaluation run.
type evaluateOptions struct {
	Repo         string
	Dockerfile   string
	RubricPath   string
	OutputPath   string
	ContextDir   string
	BuildTimeout time.Duration
	Plain        bool
	Verbose      bool
}

// evaluateCmdRunner is swappable in tests.
var evaluateCmdRunner = runEvaluate

func newEvaluateCmd(root *rootFlags) *cobra.Command {
	var (
		repo         string
		dockerfile   string
		rubricPath   string
		outputPath   string
		contextDir   string
		buildTimeout time.Duration
		plain        bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Build a candidate Dockerfile and score it against its rubric",
		Long: `Evaluate builds the candidate Dockerfile into a throwaway image, runs every
rubric test inside it, and prints a scored report. The image is removed when
the run finishes, fails, or is interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := resolveEvaluateOptions(repo, dockerfile, rubricPath, outputPath, contextDir, buildTimeout, plain, root.verbose)
			if err != nil {
				return err
			}
			return evaluateCmdRunner(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&repo, "repo", "r", "", "repository name the Dockerfile targets (required)")
	cmd.Flags().StringVarP(&dockerfile, "dockerfile", "f", "", "path to the candidate Dockerfile (required)")
	cmd.Flags().StringVar(&rubricPath, "rubric", "", "rubric file (default rubrics/<repo>.json)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the JSON report to this path ('-' for stdout)")
	cmd.Flags().StringVar(&contextDir, "context", "", "build context directory (default: cloned repo data, else the Dockerfile's directory)")
	cmd.Flags().DurationVar(&buildTimeout, "build-timeout", runtime.DefaultBuildTimeout, "maximum time for the image build")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable the interactive progress view")

	_ = cmd.MarkFlagRequired("repo")
	_ = cmd.MarkFlagRequired("dockerfile")

	return cmd
}

// resolveEvaluateOptions fills defaults and validates everything that can be
// checked before touching Docker.
func resolveEvaluateOptions(repo, dockerfile, rubricPath, outputPath, contextDir string, buildTimeout time.Duration, plain, verbose bool) (evaluateOptions, error) {
	opts := evaluateOptions{
		Repo:         strings.TrimSpace(repo),
		Dockerfile:   strings.TrimSpace(dockerfile),
		RubricPath:   strings.TrimSpace(rubricPath),
		OutputPath:   strings.TrimSpace(outputPath),
		ContextDir:   strings.TrimSpace(contextDir),
		BuildTimeout: buildTimeout,
		Plain:        plain,
		Verbose:      verbose,
	}

	if opts.Repo == "" {
		return opts, fmt.Errorf("repo name cannot be empty")
	}
	if opts.Dockerfile == "" {
		return opts, fmt.Errorf("dockerfile path cannot be empty")
	}

	info, err := os.Stat(opts.Dockerfile)
	if err != nil {
		return opts, fmt.Errorf("dockerfile %s: %w", opts.Dockerfile, err)
	}
	if info.IsDir() {
		return opts, fmt.Errorf("dockerfile %s is a directory", opts.Dockerfile)
	}

	if opts.RubricPath == "" {
		opts.RubricPath = rubric.DefaultPath(opts.Repo)
	}
	if _, err := os.Stat(opts.RubricPath); err != nil {
		return opts, fmt.Errorf("rubric %s: %w", opts.RubricPath, err)
	}

	if opts.ContextDir == "" {
		opts.ContextDir = defaultContextDir(opts.Repo, opts.Dockerfile)
	}
	if opts.BuildTimeout <= 0 {
		opts.BuildTimeout = runtime.DefaultBuildTimeout
	}

	return opts, nil
}

// defaultContextDir prefers the fetched repository checkout so rubric tests
// that COPY project files keep working, and falls back to the Dockerfile's
// own directory.
func defaultContextDir(repo, dockerfile string) string {
	checkout := corpus.TargetDir(corpus.DefaultDataDir, repo)
	if info, err := os.Stat(checkout); err == nil && info.IsDir() {
		return checkout
	}
	return filepath.Dir(dockerfile)
}

func runEvaluate(parent context.Context, opts evaluateOptions) error {
	r, err := rubric.Load(opts.RubricPath)
	if err != nil {
		return err
	}

	level := "info"
	if opts.Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: true})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	stop := watchSignals(cancel)
	defer stop()

	session := engine.NewSession(runtime.NewDockerRuntime(log), check.NewRegistry(), log)

	sessionOpts := engine.SessionOptions{
		Recipe:       opts.Dockerfile,
		ContextDir:   opts.ContextDir,
		BuildTimeout: opts.BuildTimeout,
	}

	var (
		program    *tea.Program
		done       chan struct{}
		programErr error
	)

	interactive := !opts.Plain && term.IsTerminal(int(os.Stdout.Fd()))
	if interactive {
		model := tui.NewModel(opts.Repo, displayIDs(r), r.MaxScore(), cancel)
		program = tea.NewProgram(model)
		done = make(chan struct{})
		go func() {
			_, programErr = program.Run()
			close(done)
		}()
		sessionOpts.Sink = tui.NewEventSink(program.Send)
	} else {
		sessionOpts.Sink = newPlainSink(os.Stdout)
	}

	eval, err := session.Run(ctx, r, sessionOpts)
	if interactive {
		status := ""
		if eval != nil {
			status = eval.Status
		}
		program.Send(tui.DoneMsg{Status: status})
		<-done
		if programErr != nil {
			return programErr
		}
	}
	if err != nil {
		return err
	}

	rep := report.Assemble(report.Input{
		Repo:       opts.Repo,
		Dockerfile: opts.Dockerfile,
		RubricPath: opts.RubricPath,
		Status:     eval.Status,
		BuildErr:   eval.BuildErr,
		MaxScore:   r.MaxScore(),
		Outcomes:   eval.Outcomes,
		WallTime:   eval.WallTime,
	})

	// --output - keeps stdout machine-readable: the JSON document replaces
	// the human summary.
	if opts.OutputPath == "-" {
		if err := report.WriteJSON(os.Stdout, rep); err != nil {
			return err
		}
		return exitStatus(rep)
	}

	report.WriteSummary(os.Stdout, rep)
	if opts.Verbose {
		report.WriteDetails(os.Stdout, rep)
	}

	if opts.OutputPath != "" {
		if err := results.Save(opts.OutputPath, rep); err != nil {
			return err
		}
		fmt.Printf("Report saved to: %s\n", opts.OutputPath)
	}

	return exitStatus(rep)
}

// displayIDs lists the ids the progress view tracks, in declaration order.
func displayIDs(r *rubric.Rubric) []string {
	ids := make([]string, 0, len(r.Tests))
	for i, t := range r.Tests {
		ids = append(ids, t.EffectiveID(i+1))
	}
	return ids
}

// exitStatus maps a finished report onto the command's exit behaviour: nil
// for a clean pass, errInterrupted for signal-driven stops, and a plain
// error otherwise.
func exitStatus(rep *report.Report) error {
	switch rep.Status {
	case model.StatusPassed:
		return nil
	case model.StatusInterrupted:
		return errInterrupted
	case model.StatusBuildFailed:
		return fmt.Errorf("image build failed")
	default:
		return fmt.Errorf("%d of %d tests failed", rep.Summary.FailedTests, rep.Summary.TotalTests)
	}
}

// plainSink prints session progress line by line for non-TTY runs.
type plainSink struct {
	w io.Writer
}

func newPlainSink(w io.Writer) *plainSink {
	return &plainSink{w: w}
}

func (p *plainSink) Publish(e engine.Event) {
	switch e.Kind {
	case engine.EventBuildStarted:
		fmt.Fprintf(p.w, "Building image %s\n", e.Image)
	case engine.EventBuildFinished:
		if e.Err != nil {
			fmt.Fprintf(p.w, "Build failed: %v\n", e.Err)
		} else {
			fmt.Fprintln(p.w, "Build succeeded")
		}
	case engine.EventTestStarted:
		fmt.Fprintf(p.w, "Running test: %s [%s]\n", e.TestID, e.TestKind)
	case engine.EventTestFinished:
		if e.Outcome == nil {
			return
		}
		mark := "✗"
		if e.Outcome.Passed {
			mark = "✓"
		}
		fmt.Fprintf(p.w, "  %s %s (%.2fs)\n", mark, e.Outcome.TestID, e.Outcome.Duration.Seconds())
	case engine.EventTeardownStarted:
		fmt.Fprintf(p.w, "Removing image %s\n", e.Image)
	}
}
