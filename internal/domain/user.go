package domain

import "time"

// DateLayout is the wire and storage format for dates of birth.
const DateLayout = "2006-01-02"

// User is the stored identity record. It carries the password hash and must
// not leave the service layer; use View for anything caller-facing.
type User struct {
	ID                  int64
	Username            string
	PasswordHash        string
	DateOfBirth         time.Time
	DisplayName         string
	Bio                 string
	CompletedChallenges []int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// UserView is the caller-facing projection of a User.
type UserView struct {
	ID                  int64
	Username            string
	DisplayName         string
	Bio                 string
	DateOfBirth         time.Time
	CompletedChallenges []int64
	ProfileImage        string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// View drops secret material and copies the remaining fields.
func (u *User) View() *UserView {
	if u == nil {
		return nil
	}
	completed := make([]int64, len(u.CompletedChallenges))
	copy(completed, u.CompletedChallenges)
	return &UserView{
		ID:                  u.ID,
		Username:            u.Username,
		DisplayName:         u.DisplayName,
		Bio:                 u.Bio,
		DateOfBirth:         u.DateOfBirth,
		CompletedChallenges: completed,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

// SameDay reports whether a and b fall on the same calendar date, ignoring
// time of day and location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
