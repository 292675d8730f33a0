package rubric

import (
	"encoding/json"
	"os"
	"path/filepath"

	crucibleerrors "github.com/hollowbend/crucible/pkg/errors"
)

// Load reads a rubric file from disk, validates it, and returns the resulting
// model.
func Load(path string) (*Rubric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, crucibleerrors.NewParseError(path, err)
	}

	var r Rubric
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, crucibleerrors.NewParseError(path, err)
	}

	if err := Validate(&r); err != nil {
		return nil, err
	}

	return &r, nil
}

// DefaultPath returns the conventional rubric location for a repository name,
// rubrics/<repo>.json.
func DefaultPath(repo string) string {
	return filepath.Join("rubrics", repo+".json")
}
