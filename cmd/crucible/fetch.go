package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hollowbend/crucible/internal/corpus"
	"github.com/hollowbend/crucible/internal/logger"
)

func newFetchCmd(root *rootFlags) *cobra.Command {
	var (
		manifest string
		dest     string
	)

	cmd := &cobra.Command{
		Use:   "fetch [TARGET...]",
		Short: "Clone manifest targets into the local data directory",
		Long: `Fetch clones each named target's repository into <dest>/<name> so
evaluations can use the checkout as their build context. With no arguments
every manifest target is fetched. Already-cloned targets are left alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), manifest, dest, args, root.verbose)
		},
	}

	cmd.Flags().StringVar(&manifest, "manifest", corpus.DefaultManifestPath, "corpus manifest listing the targets")
	cmd.Flags().StringVar(&dest, "dest", corpus.DefaultDataDir, "directory to clone targets into")

	return cmd
}

func runFetch(parent context.Context, manifestPath, dest string, names []string, verbose bool) error {
	m, err := corpus.LoadManifest(manifestPath)
	if err != nil {
		return err
	}

	targets := m.Targets
	if len(names) > 0 {
		targets = make([]corpus.Target, 0, len(names))
		for _, name := range names {
			t, ok := m.Lookup(name)
			if !ok {
				return fmt.Errorf("unknown target %q in %s", name, manifestPath)
			}
			targets = append(targets, t)
		}
	}

	level := "info"
	if verbose {
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

	for _, target := range targets {
		if ctx.Err() != nil {
			return errInterrupted
		}
		dir, err := corpus.Fetch(ctx, target, dest, log)
		if err != nil {
			return err
		}
		fmt.Printf("Fetched %s into %s\n", target.Name, dir)
	}

	return nil
}
