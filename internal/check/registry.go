package check

import (
	"context"
	"fmt"
	"sort"

	"github.com/hollowbend/crucible/internal/rubric"
	"github.com/hollowbend/crucible/internal/runtime"
)

// Result is what a check reports back: whether the condition holds and a
// human-readable account of what was found.
type Result struct {
	Passed  bool
	Message string
}

// Check probes one condition inside a built image. Implementations are pure
// over (prober, params): they never touch the image lifecycle and keep no
// state between runs.
type Check interface {
	Kind() rubric.Kind

	// Run evaluates the condition described by spec's params for this kind.
	// A false Result is a failed condition; an error is a fault reaching the
	// environment (unreachable daemon, missing params, killed probe).
	Run(ctx context.Context, prober runtime.Prober, image runtime.ImageRef, spec rubric.TestSpec) (Result, error)
}

// UnknownKindError reports a lookup for a kind outside the built-in set.
type UnknownKindError struct {
	Kind rubric.Kind
}

func (e UnknownKindError) Error() string {
	return fmt.Sprintf("unknown test type %q", e.Kind)
}

// Registry maps test kinds to their check implementations. It is constructed
// once with the complete built-in set and never mutated afterwards; the
// evaluator receives it by reference and only reads it.
type Registry struct {
	checks map[rubric.Kind]Check
}

// NewRegistry constructs the registry over the seven built-in kinds.
func NewRegistry() *Registry {
	r := &Registry{checks: make(map[rubric.Kind]Check, 7)}
	for _, c := range []Check{
		commandExistsCheck{},
		envVarSetCheck{},
		dirsExistCheck{},
		filesExistCheck{},
		fileContainsCheck{},
		runCommandCheck{},
		outputContainsCheck{},
	} {
		r.checks[c.Kind()] = c
	}
	return r
}

// Lookup returns the check for kind, or an UnknownKindError.
func (r *Registry) Lookup(kind rubric.Kind) (Check, error) {
	c, ok := r.checks[kind]
	if !ok {
		return nil, UnknownKindError{Kind: kind}
	}
	return c, nil
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []rubric.Kind {
	kinds := make([]rubric.Kind, 0, len(r.checks))
	for kind := range r.checks {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
