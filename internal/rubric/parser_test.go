package rubric

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	crucibleerrors "github.com/hollowbend/crucible/pkg/errors"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	validJSON := `{
  "repo": "demo",
  "tests": [
    {"id": "has_bash", "type": "command_exists", "params": {"name": "bash"}},
    {"id": "src_tree", "type": "dirs_exist", "params": {"path": ["/app", "/app/src"]}, "score": 2},
    {"type": "output_contains", "params": {"command": "bash --version", "contains": ["GNU"]}, "requires": ["has_bash"], "timeout": 10, "score": 0}
  ]
}`

	invalidJSON := `{"repo": "demo", "tests": [`

	missingRepo := `{"tests": []}`

	duplicateID := `{
  "repo": "demo",
  "tests": [
    {"id": "twice", "type": "run_command", "params": {"command": "true"}},
    {"id": "twice", "type": "run_command", "params": {"command": "false"}}
  ]
}`

	forwardReference := `{
  "repo": "demo",
  "tests": [
    {"id": "first", "type": "run_command", "params": {"command": "true"}, "requires": ["second"]},
    {"id": "second", "type": "run_command", "params": {"command": "true"}}
  ]
}`

	selfReference := `{
  "repo": "demo",
  "tests": [
    {"id": "loop", "type": "run_command", "params": {"command": "true"}, "requires": ["loop"]}
  ]
}`

	unknownDependency := `{
  "repo": "demo",
  "tests": [
    {"id": "only", "type": "run_command", "params": {"command": "true"}, "requires": ["ghost"]}
  ]
}`

	missingParams := `{
  "repo": "demo",
  "tests": [
    {"id": "bare", "type": "file_contains"}
  ]
}`

	cases := []struct {
		name     string
		contents string
		assert   func(t *testing.T, r *Rubric, err error)
	}{
		{
			name:     "valid rubric is parsed with defaults",
			contents: validJSON,
			assert: func(t *testing.T, r *Rubric, err error) {
				require.NoError(t, err)
				require.NotNil(t, r)
				require.Equal(t, "demo", r.Repo)
				require.Len(t, r.Tests, 3)

				first := r.Tests[0]
				require.Equal(t, KindCommandExists, first.Type)
				require.NotNil(t, first.CommandExists)
				require.Equal(t, "bash", first.CommandExists.Name)
				require.Equal(t, DefaultTimeoutSeconds, first.Timeout)
				require.Equal(t, DefaultScore, first.Score)

				second := r.Tests[1]
				require.NotNil(t, second.DirsExist)
				require.Equal(t, []string{"/app", "/app/src"}, second.DirsExist.Paths)
				require.Equal(t, 2, second.Score)

				third := r.Tests[2]
				require.Empty(t, third.ID)
				require.NotNil(t, third.OutputContains)
				require.Equal(t, []string{"GNU"}, third.OutputContains.Contains)
				require.Equal(t, []string{"has_bash"}, third.Requires)
				require.Equal(t, 10, third.Timeout)
				require.Zero(t, third.Score, "explicit zero score must survive decoding")
			},
		},
		{
			name:     "malformed json returns parse error",
			contents: invalidJSON,
			assert: func(t *testing.T, r *Rubric, err error) {
				require.Error(t, err)
				var parseErr *crucibleerrors.ParseError
				require.ErrorAs(t, err, &parseErr)
			},
		},
		{
			name:     "missing repo returns validation error",
			contents: missingRepo,
			assert: func(t *testing.T, r *Rubric, err error) {
				require.Error(t, err)
				var validationErr *crucibleerrors.ValidationError
				require.ErrorAs(t, err, &validationErr)
				require.Contains(t, validationErr.Message, "repo")
			},
		},
		{
			name:     "duplicate ids are rejected",
			contents: duplicateID,
			assert: func(t *testing.T, r *Rubric, err error) {
				require.Error(t, err)
				var validationErr *crucibleerrors.ValidationError
				require.ErrorAs(t, err, &validationErr)
				require.Contains(t, validationErr.Message, `duplicate test id "twice"`)
			},
		},
		{
			name:     "forward references are rejected",
			contents: forwardReference,
			assert: func(t *testing.T, r *Rubric, err error) {
				require.Error(t, err)
				var validationErr *crucibleerrors.ValidationError
				require.ErrorAs(t, err, &validationErr)
				require.Contains(t, validationErr.Message, "forward reference")
			},
		},
		{
			name:     "self references are rejected",
			contents: selfReference,
			assert: func(t *testing.T, r *Rubric, err error) {
				require.Error(t, err)
				var validationErr *crucibleerrors.ValidationError
				require.ErrorAs(t, err, &validationErr)
				require.Contains(t, validationErr.Message, "requires itself")
			},
		},
		{
			name:     "unknown dependency ids are rejected",
			contents: unknownDependency,
			assert: func(t *testing.T, r *Rubric, err error) {
				require.Error(t, err)
				var validationErr *crucibleerrors.ValidationError
				require.ErrorAs(t, err, &validationErr)
				require.Contains(t, validationErr.Message, `unknown test id "ghost"`)
			},
		},
		{
			name:     "missing params for a known kind are rejected",
			contents: missingParams,
			assert: func(t *testing.T, r *Rubric, err error) {
				require.Error(t, err)
				var validationErr *crucibleerrors.ValidationError
				require.ErrorAs(t, err, &validationErr)
				require.Contains(t, validationErr.Field, "tests[0]")
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := writeTempRubric(t, tc.contents)
			r, err := Load(path)
			tc.assert(t, r, err)
		})
	}
}

func TestLoadToleratesUnknownKinds(t *testing.T) {
	t.Parallel()

	contents := `{
  "repo": "demo",
  "tests": [
    {"id": "known", "type": "run_command", "params": {"command": "true"}},
    {"id": "mystery", "type": "gpu_available", "params": {"vendor": "any"}}
  ]
}`

	path := writeTempRubric(t, contents)
	r, err := Load(path)
	require.NoError(t, err, "unknown kinds must load so the evaluator can report them per test")
	require.Len(t, r.Tests, 2)
	require.False(t, r.Tests[1].Type.Known())
	require.Equal(t, []Kind{"gpu_available"}, UnknownKinds(r))
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	var parseErr *crucibleerrors.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestDefaultPath(t *testing.T) {
	t.Parallel()

	require.Equal(t, filepath.Join("rubrics", "demo.json"), DefaultPath("demo"))
}

func writeTempRubric(t *testing.T, contents string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "rubric.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}
