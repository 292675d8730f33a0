package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLintRubric(t *testing.T) {
	t.Parallel()

	t.Run("accepts a valid rubric", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "demo.json")
		require.NoError(t, os.WriteFile(path, []byte(minimalRubric), 0o644))

		require.NoError(t, lintRubric(path))
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "demo.json")
		require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

		require.Error(t, lintRubric(path))
	})

	t.Run("rejects unknown test types", func(t *testing.T) {
		t.Parallel()
		doc := `{
  "repo": "demo",
  "tests": [
    {"id": "gpu", "type": "gpu_available"}
  ]
}`
		path := filepath.Join(t.TempDir(), "demo.json")
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

		err := lintRubric(path)
		require.Error(t, err)
		require.Contains(t, err.Error(), "unknown test types: gpu_available")
	})

	t.Run("rejects forward references", func(t *testing.T) {
		t.Parallel()
		doc := `{
  "repo": "demo",
  "tests": [
    {"id": "early", "type": "command_exists", "params": {"name": "bash"}, "requires": ["late"]},
    {"id": "late", "type": "command_exists", "params": {"name": "go"}}
  ]
}`
		path := filepath.Join(t.TempDir(), "demo.json")
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

		require.Error(t, lintRubric(path))
	})
}

func TestLintCommandReportsPerFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(minimalRubric), 0o644))
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{broken"), 0o644))

	root := newRootCmd()
	root.SetArgs([]string{"lint", good, bad})
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)

	err := root.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "1 of 2 rubrics failed lint")

	out := buf.String()
	require.Contains(t, out, good+": ok")
	require.Contains(t, out, bad+": ")
}

func TestLintCommandRequiresArgs(t *testing.T) {
	root := newRootCmd()
	err := executeCommand(root, "lint")
	require.Error(t, err)
}
