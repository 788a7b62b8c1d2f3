package catalog

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"challenge-portal/internal/domain"
	"challenge-portal/internal/repository/sqlite"
)

const sample = `
challenges:
  - id: 1
    title: Hello World
    difficulty: easy
  - id: 2
    title: "  Two Sum  "
    difficulty: medium
`

func TestParse(t *testing.T) {
	challenges, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, challenges, 2)
	assert.Equal(t, domain.Challenge{ID: 1, Title: "Hello World", Difficulty: "easy"}, challenges[0])
	assert.Equal(t, "Two Sum", challenges[1].Title)
}

func TestParseEmptyDocument(t *testing.T) {
	challenges, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, challenges)
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"zero id":       "challenges:\n  - id: 0\n    title: x\n",
		"duplicate id":  "challenges:\n  - id: 1\n    title: a\n  - id: 1\n    title: b\n",
		"missing title": "challenges:\n  - id: 3\n",
		"unknown field": "challenges:\n  - id: 4\n    title: x\n    points: 10\n",
		"not yaml":      "challenges: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc))
			require.Error(t, err)
		})
	}
}

func TestLoadFileAndImport(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "challenges.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	challenges, err := LoadFile(path)
	require.NoError(t, err)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "portal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := sqlite.NewChallengeRepository(db)
	require.NoError(t, repo.Init(ctx))

	n, err := Import(ctx, repo, challenges)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// a second import updates in place
	n, err = Import(ctx, repo, challenges)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Two Sum", list[1].Title)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestExportRoundTrip(t *testing.T) {
	in := []domain.Challenge{{ID: 7, Title: "Graphs", Difficulty: "hard"}}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, in))

	out, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
