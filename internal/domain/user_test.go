package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserViewOmitsSecretAndCopiesSlice(t *testing.T) {
	u := &User{
		ID:                  7,
		Username:            "alice",
		PasswordHash:        "$2a$hash",
		DisplayName:         "Alice",
		CompletedChallenges: []int64{1, 2},
	}

	v := u.View()
	assert.Equal(t, int64(7), v.ID)
	assert.Equal(t, "alice", v.Username)
	assert.Equal(t, []int64{1, 2}, v.CompletedChallenges)

	v.CompletedChallenges[0] = 99
	assert.Equal(t, int64(1), u.CompletedChallenges[0])

	var nilUser *User
	assert.Nil(t, nilUser.View())
}

func TestSameDay(t *testing.T) {
	a := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2000, 1, 1, 23, 59, 0, 0, time.UTC)
	c := time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(a, c))
}
