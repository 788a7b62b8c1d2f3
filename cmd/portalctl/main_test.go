package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestChallengesImportListExport(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "portal.db")
	file := filepath.Join(dir, "challenges.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
challenges:
  - id: 2
    title: Two Sum
    difficulty: easy
  - id: 1
    title: Hello World
    difficulty: easy
`), 0o644))

	out, err := run(t, "--db", dbPath, "challenges", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No challenges found.")

	out, err = run(t, "--db", dbPath, "challenges", "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 challenges.")

	out, err = run(t, "--db", dbPath, "challenges", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello World")
	assert.Less(t, strings.Index(out, "Hello World"), strings.Index(out, "Two Sum"))

	out, err = run(t, "--db", dbPath, "challenges", "export")
	require.NoError(t, err)
	assert.Contains(t, out, "title: Two Sum")
}

func TestChallengesImportRejectsBadCatalog(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(file, []byte("challenges:\n  - id: -1\n    title: x\n"), 0o644))

	_, err := run(t, "--db", filepath.Join(dir, "portal.db"), "challenges", "import", file)
	require.Error(t, err)
}

func TestChallengesImportRequiresFile(t *testing.T) {
	_, err := run(t, "--db", filepath.Join(t.TempDir(), "portal.db"), "challenges", "import")
	require.Error(t, err)
}
