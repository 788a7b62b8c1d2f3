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

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE COLLATE NOCASE,
	password_hash TEXT NOT NULL,
	date_of_birth TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS user_challenges (
	user_id INTEGER NOT NULL,
	challenge_id INTEGER NOT NULL,
	completed_at DATETIME NOT NULL,
	PRIMARY KEY (user_id, challenge_id),
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return ensureColumns(ctx, r.db, "users", map[string]string{
		"display_name": `ALTER TABLE users ADD COLUMN display_name TEXT NOT NULL DEFAULT ''`,
		"bio":          `ALTER TABLE users ADD COLUMN bio TEXT NOT NULL DEFAULT ''`,
	})
}

// Create inserts the user. The UNIQUE NOCASE constraint on username makes
// this an insert-if-absent: a taken name yields repository.ErrDuplicate and
// no row is written.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO users (username, password_hash, date_of_birth, display_name, bio, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Username,
		user.PasswordHash,
		user.DateOfBirth.Format(domain.DateLayout),
		user.DisplayName,
		user.Bio,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert user %q: %w", user.Username, repository.ErrDuplicate)
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user last insert id: %w", err)
	}
	user.ID = id
	return id, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, username, password_hash, date_of_birth, display_name, bio, created_at, updated_at
FROM users
WHERE username = ?`,
		username,
	)
	return r.loadUser(ctx, row)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, username, password_hash, date_of_birth, display_name, bio, created_at, updated_at
FROM users
WHERE id = ?`,
		id,
	)
	return r.loadUser(ctx, row)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE users
SET password_hash=?, updated_at=?
WHERE id=?`,
		passwordHash,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireAffected(res, "update password")
}

// UpdateProfile writes username and profile fields in one statement, so the
// uniqueness check and the write cannot interleave with another rename.
// Renaming a user to its own name is not a conflict.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE users
SET username=?, display_name=?, bio=?, updated_at=?
WHERE id=?`,
		user.Username,
		user.DisplayName,
		user.Bio,
		now,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("rename user %d to %q: %w", user.ID, user.Username, repository.ErrDuplicate)
		}
		return fmt.Errorf("update profile: %w", err)
	}
	if err := requireAffected(res, "update profile"); err != nil {
		return err
	}
	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) MarkChallengeCompleted(ctx context.Context, userID, challengeID int64) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO user_challenges (user_id, challenge_id, completed_at)
VALUES (?, ?, ?)
ON CONFLICT(user_id, challenge_id) DO NOTHING`,
		userID,
		challengeID,
		time.Now().UTC(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("mark challenge for user %d: %w", userID, repository.ErrNotFound)
		}
		return fmt.Errorf("mark challenge completed: %w", err)
	}
	return nil
}

func (r *UserRepository) ListCompletedChallenges(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT challenge_id
FROM user_challenges
WHERE user_id=?
ORDER BY challenge_id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query completed challenges: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan completed challenge: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *UserRepository) loadUser(ctx context.Context, row *sql.Row) (*domain.User, error) {
	user, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	completed, err := r.ListCompletedChallenges(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.CompletedChallenges = completed
	return user, nil
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var (
		user domain.User
		dob  string
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&dob,
		&user.DisplayName,
		&user.Bio,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	parsed, err := time.Parse(domain.DateLayout, dob)
	if err != nil {
		return nil, fmt.Errorf("parse date of birth for user %d: %w", user.ID, err)
	}
	user.DateOfBirth = parsed
	return &user, nil
}

func requireAffected(res sql.Result, op string) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if aff == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return nil
}
