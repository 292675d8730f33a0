package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hollowbend/crucible/internal/check"
	"github.com/hollowbend/crucible/internal/corpus"
	"github.com/hollowbend/crucible/internal/engine"
	"github.com/hollowbend/crucible/internal/logger"
	"github.com/hollowbend/crucible/internal/model"
	"github.com/hollowbend/crucible/internal/report"
	"github.com/hollowbend/crucible/internal/results"
	"github.com/hollowbend/crucible/internal/rubric"
	"github.com/hollowbend/crucible/internal/runtime"
)

// batchOptions carries the resolved configuration for a corpus-wide run.
type batchOptions struct {
	Manifest     string
	Recipes      string
	RubricDir    string
	DataDir      string
	ResultsDir   string
	Parallel     int
	BuildTimeout time.Duration
	Verbose      bool
}

var batchCmdRunner = runBatch

func newBatchCmd(root *rootFlags) *cobra.Command {
	var (
		manifest     string
		recipes      string
		rubricDir    string
		dataDir      string
		resultsDir   string
		parallel     int
		buildTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Evaluate every manifest target's candidate Dockerfile",
		Long: `Batch runs one evaluation session per manifest target, looking up
<name>.Dockerfile in the recipes directory and rubrics/<name>.json for the
scoring rules. Reports land in a timestamped run directory under the results
root, and an aggregate table is printed when all sessions finish.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := resolveBatchOptions(manifest, recipes, rubricDir, dataDir, resultsDir, parallel, buildTimeout, root.verbose)
			if err != nil {
				return err
			}
			return batchCmdRunner(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&manifest, "manifest", corpus.DefaultManifestPath, "corpus manifest listing the targets")
	cmd.Flags().StringVar(&recipes, "recipes", "", "directory holding <name>.Dockerfile candidates (required)")
	cmd.Flags().StringVar(&rubricDir, "rubrics", "rubrics", "directory holding <name>.json rubrics")
	cmd.Flags().StringVar(&dataDir, "data-dir", corpus.DefaultDataDir, "directory holding fetched target checkouts")
	cmd.Flags().StringVar(&resultsDir, "results", "results", "root directory for run reports")
	cmd.Flags().IntVar(&parallel, "parallel", 1, "max concurrent evaluations")
	cmd.Flags().DurationVar(&buildTimeout, "build-timeout", runtime.DefaultBuildTimeout, "maximum time for each image build")

	_ = cmd.MarkFlagRequired("recipes")

	return cmd
}

func resolveBatchOptions(manifest, recipes, rubricDir, dataDir, resultsDir string, parallel int, buildTimeout time.Duration, verbose bool) (batchOptions, error) {
	opts := batchOptions{
		Manifest:     strings.TrimSpace(manifest),
		Recipes:      strings.TrimSpace(recipes),
		RubricDir:    strings.TrimSpace(rubricDir),
		DataDir:      strings.TrimSpace(dataDir),
		ResultsDir:   strings.TrimSpace(resultsDir),
		Parallel:     parallel,
		BuildTimeout: buildTimeout,
		Verbose:      verbose,
	}

	if opts.Manifest == "" {
		return opts, fmt.Errorf("manifest path cannot be empty")
	}
	if opts.Recipes == "" {
		return opts, fmt.Errorf("recipes directory cannot be empty")
	}
	info, err := os.Stat(opts.Recipes)
	if err != nil {
		return opts, fmt.Errorf("recipes directory %s: %w", opts.Recipes, err)
	}
	if !info.IsDir() {
		return opts, fmt.Errorf("recipes path %s is not a directory", opts.Recipes)
	}
	if opts.RubricDir == "" {
		opts.RubricDir = "rubrics"
	}
	if opts.ResultsDir == "" {
		opts.ResultsDir = "results"
	}
	if opts.Parallel < 1 {
		opts.Parallel = 1
	}
	if opts.BuildTimeout <= 0 {
		opts.BuildTimeout = runtime.DefaultBuildTimeout
	}

	return opts, nil
}

func runBatch(parent context.Context, opts batchOptions) error {
	manifest, err := corpus.LoadManifest(opts.Manifest)
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

	runDir, err := results.CreateRunDir(opts.ResultsDir)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	stop := watchSignals(cancel)
	defer stop()

	rt := runtime.NewDockerRuntime(log)
	reports := make([]*report.Report, len(manifest.Targets))

	// Workers always return nil: one broken target must not cancel its
	// siblings through the group context. Interruption still propagates via
	// the signal-cancelled parent.
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallel)
	for i, target := range manifest.Targets {
		i, target := i, target
		g.Go(func() error {
			reports[i] = evaluateTarget(gCtx, rt, target, opts, log)
			return nil
		})
	}
	_ = g.Wait()

	for _, rep := range reports {
		path := results.ReportPath(runDir, rep.Repo)
		if err := results.Save(path, rep); err != nil {
			return err
		}
	}

	if err := report.WriteBatchTable(os.Stdout, reports); err != nil {
		return err
	}
	fmt.Printf("\nReports saved to: %s\n", runDir)

	if ctx.Err() != nil {
		return errInterrupted
	}
	failed := 0
	for _, rep := range reports {
		if rep.Status != model.StatusPassed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d candidates failed", failed, len(reports))
	}
	return nil
}

// evaluateTarget runs one full session for a manifest target. Preflight
// problems (missing recipe, bad rubric) become error reports rather than
// aborting the batch.
func evaluateTarget(ctx context.Context, rt runtime.Runtime, target corpus.Target, opts batchOptions, log *logger.Logger) *report.Report {
	recipe := filepath.Join(opts.Recipes, target.Name+".Dockerfile")
	rubricPath := filepath.Join(opts.RubricDir, target.Name+".json")

	if _, err := os.Stat(recipe); err != nil {
		return errorReport(target.Name, recipe, rubricPath, err)
	}
	r, err := rubric.Load(rubricPath)
	if err != nil {
		return errorReport(target.Name, recipe, rubricPath, err)
	}

	contextDir := filepath.Dir(recipe)
	checkout := corpus.TargetDir(opts.DataDir, target.Name)
	if info, err := os.Stat(checkout); err == nil && info.IsDir() {
		contextDir = checkout
	}

	session := engine.NewSession(rt, check.NewRegistry(), log)
	eval, err := session.Run(ctx, r, engine.SessionOptions{
		Recipe:       recipe,
		ContextDir:   contextDir,
		BuildTimeout: opts.BuildTimeout,
	})
	if err != nil {
		return errorReport(target.Name, recipe, rubricPath, err)
	}

	return report.Assemble(report.Input{
		Repo:       target.Name,
		Dockerfile: recipe,
		RubricPath: rubricPath,
		Status:     eval.Status,
		BuildErr:   eval.BuildErr,
		MaxScore:   r.MaxScore(),
		Outcomes:   eval.Outcomes,
		WallTime:   eval.WallTime,
	})
}

// errorReport records a target that never reached evaluation.
func errorReport(repo, recipe, rubricPath string, err error) *report.Report {
	return &report.Report{
		Repo:        repo,
		Dockerfile:  recipe,
		Rubric:      rubricPath,
		Status:      "error",
		Error:       err.Error(),
		TestResults: []report.TestResult{},
	}
}
