package repository

import (
	"context"
	"errors"

	"challenge-portal/internal/domain"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write would violate a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository defines persistence operations for User entities.
//
// Create and UpdateProfile enforce username uniqueness inside the write
// itself and return ErrDuplicate on collision, so callers never need a
// separate existence check.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateProfile(ctx context.Context, user *domain.User) error
	MarkChallengeCompleted(ctx context.Context, userID, challengeID int64) error
	ListCompletedChallenges(ctx context.Context, userID int64) ([]int64, error)
}
