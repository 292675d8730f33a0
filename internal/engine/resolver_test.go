package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hollowbend/crucible/internal/model"
	"github.com/hollowbend/crucible/internal/rubric"
)

func TestResolverUnmet(t *testing.T) {
	t.Parallel()

	res := newResolver(4)
	res.record(rubric.TestSpec{ID: "passed"}, model.TestOutcome{TestID: "passed", Passed: true})
	res.record(rubric.TestSpec{ID: "failed"}, model.TestOutcome{TestID: "failed"})

	tests := []struct {
		name     string
		requires []string
		want     []string
	}{
		{name: "no requirements", requires: nil, want: nil},
		{name: "met requirement", requires: []string{"passed"}, want: nil},
		{name: "failed requirement", requires: []string{"failed"}, want: []string{"failed"}},
		{name: "unrecorded requirement", requires: []string{"missing"}, want: []string{"missing"}},
		{
			name:     "mixed preserves declaration order",
			requires: []string{"failed", "passed", "missing"},
			want:     []string{"failed", "missing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := res.unmet(rubric.TestSpec{Requires: tt.requires})
			require.Equal(t, tt.want, got)
		})
	}
}

func TestResolverSkippedOutcomeStaysUnmet(t *testing.T) {
	t.Parallel()

	res := newResolver(2)
	res.record(rubric.TestSpec{ID: "b"}, model.Failed("b", rubric.KindRunCommand, "skipped: dependencies not satisfied: a"))

	require.Equal(t, []string{"b"}, res.unmet(rubric.TestSpec{Requires: []string{"b"}}))
}

func TestResolverIgnoresAnonymousTests(t *testing.T) {
	t.Parallel()

	res := newResolver(1)
	res.record(rubric.TestSpec{Type: rubric.KindDirsExist}, model.TestOutcome{TestID: "dirs_exist#1", Passed: true})

	require.Empty(t, res.outcomes)
}
