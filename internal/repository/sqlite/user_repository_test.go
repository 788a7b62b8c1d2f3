package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"challenge-portal/internal/domain"
	"challenge-portal/internal/repository"
)

func newUserRepo(t *testing.T) repository.UserRepository {
	t.Helper()
	repo := NewUserRepository(openTestDB(t))
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func newUser(username string) *domain.User {
	return &domain.User{
		Username:     username,
		PasswordHash: "hash-" + username,
		DateOfBirth:  time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		DisplayName:  username,
	}
}

func TestUserRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo(t)

	u := newUser("alice")
	id, err := repo.Create(ctx, u)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, id, u.ID)

	byID, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.Equal(t, "hash-alice", byID.PasswordHash)
	assert.True(t, domain.SameDay(u.DateOfBirth, byID.DateOfBirth))
	assert.Empty(t, byID.CompletedChallenges)

	byName, err := repo.GetByUsername(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)
}

func TestUserRepositoryCreateDuplicateIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo(t)

	_, err := repo.Create(ctx, newUser("alice"))
	require.NoError(t, err)

	dup := newUser("Alice")
	dup.PasswordHash = "other"
	_, err = repo.Create(ctx, dup)
	require.ErrorIs(t, err, repository.ErrDuplicate)

	stored, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hash-alice", stored.PasswordHash)
	assert.Equal(t, "alice", stored.Username)
}

func TestUserRepositoryConcurrentCreateSingleWinner(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo(t)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, newUser("racer"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, repository.ErrDuplicate):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, conflicts)
}

func TestUserRepositoryGetMissing(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo(t)

	_, err := repo.GetByID(ctx, 42)
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetByUsername(ctx, "ghost")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepositoryUpdatePassword(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo(t)

	id, err := repo.Create(ctx, newUser("alice"))
	require.NoError(t, err)

	require.NoError(t, repo.UpdatePassword(ctx, id, "new-hash"))
	u, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", u.PasswordHash)

	require.ErrorIs(t, repo.UpdatePassword(ctx, id+100, "x"), repository.ErrNotFound)
}

func TestUserRepositoryUpdateProfile(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo(t)

	aliceID, err := repo.Create(ctx, newUser("alice"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newUser("bob"))
	require.NoError(t, err)

	t.Run("self rename", func(t *testing.T) {
		u := &domain.User{ID: aliceID, Username: "alice", DisplayName: "Alice A.", Bio: "hi"}
		require.NoError(t, repo.UpdateProfile(ctx, u))

		got, err := repo.GetByID(ctx, aliceID)
		require.NoError(t, err)
		assert.Equal(t, "Alice A.", got.DisplayName)
		assert.Equal(t, "hi", got.Bio)
	})

	t.Run("self rename changing case", func(t *testing.T) {
		u := &domain.User{ID: aliceID, Username: "Alice", DisplayName: "Alice A."}
		require.NoError(t, repo.UpdateProfile(ctx, u))
	})

	t.Run("collision", func(t *testing.T) {
		u := &domain.User{ID: aliceID, Username: "BOB", DisplayName: "nope"}
		require.ErrorIs(t, repo.UpdateProfile(ctx, u), repository.ErrDuplicate)

		got, err := repo.GetByID(ctx, aliceID)
		require.NoError(t, err)
		assert.Equal(t, "Alice", got.Username)
		assert.Equal(t, "Alice A.", got.DisplayName)
	})

	t.Run("missing user", func(t *testing.T) {
		u := &domain.User{ID: 999, Username: "carol"}
		require.ErrorIs(t, repo.UpdateProfile(ctx, u), repository.ErrNotFound)
	})
}

func TestUserRepositoryMarkChallengeCompletedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo(t)

	id, err := repo.Create(ctx, newUser("alice"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.MarkChallengeCompleted(ctx, id, 5))
	}
	require.NoError(t, repo.MarkChallengeCompleted(ctx, id, 2))

	ids, err := repo.ListCompletedChallenges(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 5}, ids)

	u, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 5}, u.CompletedChallenges)
}

func TestUserRepositoryMarkChallengeCompletedUnknownUser(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo(t)

	err := repo.MarkChallengeCompleted(ctx, 404, 1)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepositoryManyUsers(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo(t)

	seen := map[int64]struct{}{}
	for i := 0; i < 5; i++ {
		id, err := repo.Create(ctx, newUser(fmt.Sprintf("user-%d", i)))
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}
