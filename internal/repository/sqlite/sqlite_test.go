package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "portal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "portal.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	var fk int
	require.NoError(t, db.QueryRowContext(context.Background(), `PRAGMA foreign_keys`).Scan(&fk))
	require.Equal(t, 1, fk)
}

func TestEnsureColumnsIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	require.NoError(t, repo.Init(ctx))
	require.NoError(t, repo.Init(ctx))

	_, err := db.ExecContext(ctx, `SELECT display_name, bio FROM users`)
	require.NoError(t, err)
}
