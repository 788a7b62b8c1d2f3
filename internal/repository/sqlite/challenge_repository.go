package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"challenge-portal/internal/domain"
	"challenge-portal/internal/repository"
)

const createChallengesTable = `
CREATE TABLE IF NOT EXISTS challenges (
	id INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	difficulty TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
`

type ChallengeRepository struct {
	db *sql.DB
}

func NewChallengeRepository(db *sql.DB) repository.ChallengeRepository {
	return &ChallengeRepository{db: db}
}

func (r *ChallengeRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createChallengesTable); err != nil {
		return fmt.Errorf("create challenges table: %w", err)
	}
	return nil
}

// Upsert inserts the challenge or refreshes title and difficulty of an
// existing one. created_at is left unchanged.
func (r *ChallengeRepository) Upsert(ctx context.Context, challenge *domain.Challenge) error {
	if challenge.ID <= 0 {
		return fmt.Errorf("challenge id must be positive, got %d", challenge.ID)
	}
	if challenge.CreatedAt.IsZero() {
		challenge.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO challenges (id, title, difficulty, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET title=excluded.title, difficulty=excluded.difficulty`,
		challenge.ID,
		challenge.Title,
		challenge.Difficulty,
		challenge.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert challenge: %w", err)
	}
	return nil
}

func (r *ChallengeRepository) Get(ctx context.Context, id int64) (*domain.Challenge, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, difficulty, created_at
FROM challenges
WHERE id=?`, id)

	var c domain.Challenge
	if err := row.Scan(&c.ID, &c.Title, &c.Difficulty, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan challenge: %w", err)
	}
	return &c, nil
}

func (r *ChallengeRepository) List(ctx context.Context) ([]domain.Challenge, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, difficulty, created_at
FROM challenges
ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query challenges: %w", err)
	}
	defer rows.Close()

	challenges := []domain.Challenge{}
	for rows.Next() {
		var c domain.Challenge
		if err := rows.Scan(&c.ID, &c.Title, &c.Difficulty, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}

	return challenges, rows.Err()
}
