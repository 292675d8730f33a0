// Package corpus manages the set of target repositories rubrics are written
// against: a YAML manifest naming them and a fetcher that clones them into
// the local data directory used as build context.
package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/hollowbend/crucible/internal/logger"
	crucibleerrors "github.com/hollowbend/crucible/pkg/errors"
)

const (
	// DefaultManifestPath is where the corpus manifest is looked up.
	DefaultManifestPath = "corpus.yaml"
	// DefaultDataDir is where fetched targets live, one subdirectory per
	// target name.
	DefaultDataDir = "data"
)

// Manifest lists the corpus targets.
type Manifest struct {
	Targets []Target `yaml:"targets" validate:"required,min=1,dive"`
}

// Target names one repository in the corpus. Name doubles as the rubric and
// data-directory key.
type Target struct {
	Name   string `yaml:"name" validate:"required,target_name"`
	Source string `yaml:"source" validate:"required,git_url"`
	Ref    string `yaml:"ref,omitempty"`
	Depth  int    `yaml:"depth,omitempty" validate:"min=0"`
}

// LoadManifest reads and validates a corpus manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, crucibleerrors.NewParseError(path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, crucibleerrors.NewParseError(path, err)
	}

	if err := Validate(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks manifest structure and rejects duplicate target names.
func Validate(m *Manifest) error {
	if m == nil {
		return crucibleerrors.NewValidationError("manifest", "manifest is nil", nil)
	}

	if err := validatorInstance().Struct(m); err != nil {
		if ves, ok := err.(validator.ValidationErrors); ok {
			ve := ves[0]
			return crucibleerrors.NewValidationError(ve.StructNamespace(), fmt.Sprintf("failed validation for tag '%s'", ve.Tag()), err)
		}
		return crucibleerrors.NewValidationError("manifest", err.Error(), err)
	}

	seen := make(map[string]struct{}, len(m.Targets))
	for i, t := range m.Targets {
		if _, dup := seen[t.Name]; dup {
			return crucibleerrors.NewValidationError(fmt.Sprintf("targets[%d].name", i), fmt.Sprintf("duplicate target name %q", t.Name), nil)
		}
		seen[t.Name] = struct{}{}
	}
	return nil
}

// Lookup returns the named target.
func (m *Manifest) Lookup(name string) (Target, bool) {
	for _, t := range m.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return Target{}, false
}

// TargetDir names the checkout directory for a target.
func TargetDir(dataDir, name string) string {
	return filepath.Join(dataDir, name)
}

// Fetch clones the target into dataDir. A destination that already holds a
// git checkout is left alone, so fetches are idempotent.
func Fetch(ctx context.Context, t Target, dataDir string, log *logger.Logger) (string, error) {
	dest := TargetDir(dataDir, t.Name)

	if _, err := git.PlainOpen(dest); err == nil {
		log.WithFields(map[string]any{"target": t.Name, "dir": dest}).Debug("target already cloned")
		return dest, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}

	opts := &git.CloneOptions{URL: t.Source}
	if t.Depth > 0 {
		opts.Depth = t.Depth
	}
	if t.Ref != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(t.Ref)
		opts.SingleBranch = true
	}

	log.WithFields(map[string]any{"target": t.Name, "source": t.Source}).Info("cloning target")
	if _, err := git.PlainCloneContext(ctx, dest, false, opts); err != nil {
		return "", fmt.Errorf("cloning %s: %w", t.Source, err)
	}
	return dest, nil
}
