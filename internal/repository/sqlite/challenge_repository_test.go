package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"challenge-portal/internal/domain"
	"challenge-portal/internal/repository"
)

func TestChallengeRepositoryUpsertGetList(t *testing.T) {
	ctx := context.Background()
	repo := NewChallengeRepository(openTestDB(t))
	require.NoError(t, repo.Init(ctx))

	require.NoError(t, repo.Upsert(ctx, &domain.Challenge{ID: 2, Title: "Two Sum", Difficulty: "easy"}))
	require.NoError(t, repo.Upsert(ctx, &domain.Challenge{ID: 1, Title: "Hello", Difficulty: "easy"}))
	require.NoError(t, repo.Upsert(ctx, &domain.Challenge{ID: 2, Title: "Two Sum II", Difficulty: "medium"}))

	c, err := repo.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Two Sum II", c.Title)
	assert.Equal(t, "medium", c.Difficulty)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].ID)
	assert.Equal(t, int64(2), list[1].ID)

	_, err = repo.Get(ctx, 3)
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.Error(t, repo.Upsert(ctx, &domain.Challenge{ID: 0, Title: "bad"}))
}
