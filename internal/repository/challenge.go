package repository

import (
	"context"

	"challenge-portal/internal/domain"
)

// ChallengeRepository exposes the challenge catalog.
type ChallengeRepository interface {
	Init(ctx context.Context) error
	Upsert(ctx context.Context, challenge *domain.Challenge) error
	Get(ctx context.Context, id int64) (*domain.Challenge, error)
	List(ctx context.Context) ([]domain.Challenge, error)
}
