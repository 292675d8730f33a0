package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hollowbend/crucible/internal/rubric"
)

func newLintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint RUBRIC...",
		Short: "Validate rubric files without running anything",
		Long: `Lint parses and validates each rubric, including the reference rules and a
strict pass over test types. Unknown types are tolerated at evaluation time
(they score zero), but lint reports them so rubric authors catch typos early.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				if err := lintRubric(path); err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d rubrics failed lint", failed, len(args))
			}
			return nil
		},
	}
}

func lintRubric(path string) error {
	r, err := rubric.Load(path)
	if err != nil {
		return err
	}
	if unknown := rubric.UnknownKinds(r); len(unknown) > 0 {
		names := make([]string, 0, len(unknown))
		for _, k := range unknown {
			names = append(names, string(k))
		}
		return fmt.Errorf("unknown test types: %s", strings.Join(names, ", "))
	}
	return nil
}
