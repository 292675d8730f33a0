package rubric

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// DefaultTimeoutSeconds applies to tests that omit an explicit timeout.
	DefaultTimeoutSeconds = 30
	// DefaultScore applies to tests that omit an explicit score weight.
	DefaultScore = 1
)

// Kind identifies one of the built-in check kinds. The set is closed: the
// dispatcher matches on every constant below, and anything else is reported
// as an unknown kind rather than dispatched.
type Kind string

const (
	KindCommandExists  Kind = "command_exists"
	KindEnvVarSet      Kind = "envvar_set"
	KindDirsExist      Kind = "dirs_exist"
	KindFilesExist     Kind = "files_exist"
	KindFileContains   Kind = "file_contains"
	KindRunCommand     Kind = "run_command"
	KindOutputContains Kind = "output_contains"
)

// Kinds returns every built-in kind in stable order.
func Kinds() []Kind {
	return []Kind{
		KindCommandExists,
		KindEnvVarSet,
		KindDirsExist,
		KindFilesExist,
		KindFileContains,
		KindRunCommand,
		KindOutputContains,
	}
}

// Known reports whether k is one of the built-in kinds.
func (k Kind) Known() bool {
	switch k {
	case KindCommandExists, KindEnvVarSet, KindDirsExist, KindFilesExist,
		KindFileContains, KindRunCommand, KindOutputContains:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

// Rubric describes the full set of checks for one target repository.
// Immutable once loaded.
type Rubric struct {
	Repo  string     `json:"repo" validate:"required,min=1"`
	Tests []TestSpec `json:"tests" validate:"dive"`
}

// TestSpec describes an individual check in the rubric. Exactly one of the
// typed param pointers is populated, matching Type.
type TestSpec struct {
	ID       string   `json:"id,omitempty" validate:"omitempty,test_id"`
	Type     Kind     `json:"type" validate:"required"`
	Timeout  int      `json:"timeout,omitempty" validate:"min=1,max=3600"`
	Score    int      `json:"score,omitempty" validate:"min=0,max=1000"`
	Requires []string `json:"requires,omitempty"`

	CommandExists  *CommandExistsParams  `json:"-"`
	EnvVarSet      *EnvVarSetParams      `json:"-"`
	DirsExist      *DirsExistParams      `json:"-"`
	FilesExist     *FilesExistParams     `json:"-"`
	FileContains   *FileContainsParams   `json:"-"`
	RunCommand     *RunCommandParams     `json:"-"`
	OutputContains *OutputContainsParams `json:"-"`
}

// UnmarshalJSON customises test decoding to populate the kind-specific param
// structure and apply defaults. An explicit "score": 0 is preserved, which is
// why score and timeout decode through pointers.
func (t *TestSpec) UnmarshalJSON(data []byte) error {
	type envelope struct {
		ID       string          `json:"id"`
		Type     string          `json:"type"`
		Params   json.RawMessage `json:"params"`
		Timeout  *int            `json:"timeout"`
		Score    *int            `json:"score"`
		Requires []string        `json:"requires"`
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	t.ID = env.ID
	t.Type = Kind(env.Type)
	t.Requires = append([]string(nil), env.Requires...)

	t.Timeout = DefaultTimeoutSeconds
	if env.Timeout != nil {
		t.Timeout = *env.Timeout
	}
	t.Score = DefaultScore
	if env.Score != nil {
		t.Score = *env.Score
	}

	t.CommandExists = nil
	t.EnvVarSet = nil
	t.DirsExist = nil
	t.FilesExist = nil
	t.FileContains = nil
	t.RunCommand = nil
	t.OutputContains = nil

	params := env.Params
	if len(params) == 0 {
		params = []byte("{}")
	}

	switch t.Type {
	case KindCommandExists:
		var p CommandExistsParams
		if err := json.Unmarshal(params, &p); err != nil {
			return err
		}
		t.CommandExists = &p
	case KindEnvVarSet:
		var p EnvVarSetParams
		if err := json.Unmarshal(params, &p); err != nil {
			return err
		}
		t.EnvVarSet = &p
	case KindDirsExist:
		var p DirsExistParams
		if err := json.Unmarshal(params, &p); err != nil {
			return err
		}
		t.DirsExist = &p
	case KindFilesExist:
		var p FilesExistParams
		if err := json.Unmarshal(params, &p); err != nil {
			return err
		}
		t.FilesExist = &p
	case KindFileContains:
		var p FileContainsParams
		if err := json.Unmarshal(params, &p); err != nil {
			return err
		}
		t.FileContains = &p
	case KindRunCommand:
		var p RunCommandParams
		if err := json.Unmarshal(params, &p); err != nil {
			return err
		}
		t.RunCommand = &p
	case KindOutputContains:
		var p OutputContainsParams
		if err := json.Unmarshal(params, &p); err != nil {
			return err
		}
		t.OutputContains = &p
	default:
		// Unknown kinds decode without params; the evaluator reports them
		// as failed outcomes and lint rejects them.
	}

	return nil
}

// EffectiveID returns the declared id, or a synthesized display id derived
// from the kind and 1-based rubric position. Synthesized ids contain '#',
// which the test_id pattern forbids, so they never collide with declared ids.
func (t TestSpec) EffectiveID(position int) string {
	if t.ID != "" {
		return t.ID
	}
	return fmt.Sprintf("%s#%d", t.Type, position)
}

// TimeoutDuration converts the per-test budget to a duration.
func (t TestSpec) TimeoutDuration() time.Duration {
	return time.Duration(t.Timeout) * time.Second
}

// MaxScore sums the declared weights of every test, whether or not it ends
// up passing, failing, or skipped.
func (r *Rubric) MaxScore() int {
	total := 0
	for _, t := range r.Tests {
		total += t.Score
	}
	return total
}

// CommandExistsParams checks that a named executable resolves on PATH.
type CommandExistsParams struct {
	Name string `json:"name" validate:"required,min=1"`
}

// EnvVarSetParams checks that an environment variable is defined. NonEmpty
// tightens the check to require a non-empty value.
type EnvVarSetParams struct {
	Name     string `json:"name" validate:"required,env_name"`
	NonEmpty bool   `json:"non_empty,omitempty"`
}

// DirsExistParams checks that every listed path is a directory.
type DirsExistParams struct {
	Paths []string `json:"path" validate:"required,min=1,dive,min=1"`
}

// FilesExistParams checks that every listed path is a regular file.
type FilesExistParams struct {
	Paths []string `json:"path" validate:"required,min=1,dive,min=1"`
}

// FileContainsParams checks that a file's contents include every substring.
type FileContainsParams struct {
	Path     string   `json:"path" validate:"required,min=1"`
	Contains []string `json:"contains" validate:"required,min=1,dive,min=1"`
}

// RunCommandParams checks that a shell command exits zero.
type RunCommandParams struct {
	Command string `json:"command" validate:"required,min=1"`
}

// OutputContainsParams checks that a command exits zero and its combined
// output includes every substring.
type OutputContainsParams struct {
	Command  string   `json:"command" validate:"required,min=1"`
	Contains []string `json:"contains" validate:"required,min=1,dive,min=1"`
}
