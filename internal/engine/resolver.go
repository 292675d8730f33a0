package engine

import (
	"github.com/hollowbend/crucible/internal/model"
	"github.com/hollowbend/crucible/internal/rubric"
)

// resolver tracks outcomes by declared id so later tests can be gated on
// their dependencies. Load-time validation guarantees every `requires` entry
// names an earlier-declared id, so a single pass in declared order is a
// valid execution order and no separate topological sort is needed.
type resolver struct {
	outcomes map[string]model.TestOutcome
}

func newResolver(capacity int) *resolver {
	return &resolver{outcomes: make(map[string]model.TestOutcome, capacity)}
}

// unmet returns the required ids that do not map to a passed outcome, in
// declaration order. Skipped dependencies count as unmet, which is what
// makes skips propagate transitively.
func (r *resolver) unmet(spec rubric.TestSpec) []string {
	var unmet []string
	for _, dep := range spec.Requires {
		outcome, ok := r.outcomes[dep]
		if !ok || !outcome.Passed {
			unmet = append(unmet, dep)
		}
	}
	return unmet
}

// record stores the outcome for dependents to consult. Anonymous tests are
// not referenceable, so only declared ids are recorded.
func (r *resolver) record(spec rubric.TestSpec, outcome model.TestOutcome) {
	if spec.ID != "" {
		r.outcomes[spec.ID] = outcome
	}
}
