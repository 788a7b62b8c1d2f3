package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"challenge-portal/internal/auth"
	"challenge-portal/internal/domain"
	"challenge-portal/internal/repository"
	"challenge-portal/internal/storage"
)

const (
	defaultOpTimeout     = 5 * time.Second
	defaultMaxImageBytes = 2 << 20
)

// TokenIssuer signs and verifies session credentials.
type TokenIssuer interface {
	Issue(username string) (auth.TokenPair, error)
	Parse(token string, kind auth.TokenKind) (*auth.Claims, error)
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Username    string
	Password    string
	DateOfBirth string
	DisplayName string
	Bio         string
}

// ResetPasswordInput carries the secondary factor and the replacement password.
type ResetPasswordInput struct {
	Username    string
	DateOfBirth string
	NewPassword string
}

// EditProfileInput replaces the username and profile fields of user ID.
type EditProfileInput struct {
	ID          int64
	Username    string
	DisplayName string
	Bio         string
}

// Options tunes the user service. Zero values fall back to defaults.
type Options struct {
	OpTimeout          time.Duration
	BcryptCost         int
	MaxImageBytes      int
	ValidateChallenges bool
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (int64, error)
	Login(ctx context.Context, username, password string) (auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error)
	ResetPassword(ctx context.Context, in ResetPasswordInput) error
	EditProfile(ctx context.Context, in EditProfileInput) (*domain.UserView, error)
	UploadProfileImage(ctx context.Context, id int64, imageB64 string) error
	GetUser(ctx context.Context, id int64) (*domain.UserView, error)
	MarkChallengeCompleted(ctx context.Context, userID, challengeID int64) error
	ListChallenges(ctx context.Context) ([]domain.Challenge, error)
}

type userService struct {
	users      repository.UserRepository
	challenges repository.ChallengeRepository
	images     storage.ImageStore
	tokens     TokenIssuer
	opts       Options
	dummyHash  []byte
}

func NewUserService(
	users repository.UserRepository,
	challenges repository.ChallengeRepository,
	images storage.ImageStore,
	tokens TokenIssuer,
	opts Options,
) UserService {
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = defaultOpTimeout
	}
	if opts.BcryptCost < bcrypt.MinCost || opts.BcryptCost > bcrypt.MaxCost {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = defaultMaxImageBytes
	}
	// compared against when the username is unknown so both login failures cost the same
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), opts.BcryptCost)

	return &userService{
		users:      users,
		challenges: challenges,
		images:     images,
		tokens:     tokens,
		opts:       opts,
		dummyHash:  dummy,
	}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (int64, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return 0, invalidInput("username is required")
	}
	if in.Password == "" {
		return 0, invalidInput("password is required")
	}
	dob, err := ParseDate(in.DateOfBirth)
	if err != nil {
		return 0, err
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return 0, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		DateOfBirth:  dob,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		Bio:          in.Bio,
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	id, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return 0, ErrUserAlreadyExists
		}
		return 0, collaboratorErr("create user", err)
	}
	return id, nil
}

// Login verifies the password and issues a token pair. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *userService) Login(ctx context.Context, username, password string) (auth.TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return auth.TokenPair{}, ErrInvalidCredentials
	}

	user, err := s.lookupByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return auth.TokenPair{}, ErrInvalidCredentials
		}
		return auth.TokenPair{}, collaboratorErr("lookup user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return auth.TokenPair{}, ErrInvalidCredentials
	}

	return s.issue(user.Username)
}

// Refresh exchanges a valid refresh token for a new token pair, provided the
// user it names still exists.
func (s *userService) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	claims, err := s.tokens.Parse(strings.TrimSpace(refreshToken), auth.KindRefresh)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	user, err := s.lookupByUsername(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return auth.TokenPair{}, ErrInvalidCredentials
		}
		return auth.TokenPair{}, collaboratorErr("lookup user", err)
	}

	return s.issue(user.Username)
}

// ResetPassword replaces the password of the named user once the date of
// birth matches the stored one. The old password is not required.
func (s *userService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return invalidInput("username is required")
	}
	if in.NewPassword == "" {
		return invalidInput("new password is required")
	}
	dob, err := ParseDate(in.DateOfBirth)
	if err != nil {
		return err
	}

	user, err := s.lookupByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return collaboratorErr("lookup user", err)
	}
	if !domain.SameDay(user.DateOfBirth, dob) {
		return ErrInvalidCredentials
	}

	hash, err := s.hashPassword(in.NewPassword)
	if err != nil {
		return err
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return collaboratorErr("update password", err)
	}
	return nil
}

func (s *userService) EditProfile(ctx context.Context, in EditProfileInput) (*domain.UserView, error) {
	if in.ID <= 0 {
		return nil, invalidInput("user id is required")
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, invalidInput("username is required")
	}

	update := &domain.User{
		ID:          in.ID,
		Username:    username,
		DisplayName: strings.TrimSpace(in.DisplayName),
		Bio:         in.Bio,
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	if err := s.users.UpdateProfile(ctx, update); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrUsernameTaken
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		}
		return nil, collaboratorErr("update profile", err)
	}

	user, err := s.users.GetByID(ctx, in.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, collaboratorErr("reload user", err)
	}
	return user.View(), nil
}

func (s *userService) UploadProfileImage(ctx context.Context, id int64, imageB64 string) error {
	if id <= 0 {
		return invalidInput("user id is required")
	}
	data, err := s.decodeImage(imageB64)
	if err != nil {
		return err
	}

	if _, err := s.getUser(ctx, id); err != nil {
		return err
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	if err := s.images.PutProfileImage(ctx, id, data); err != nil {
		return collaboratorErr("store profile image", err)
	}
	return nil
}

// GetUser returns the caller-facing view of user id, with the profile image
// attached when one has been uploaded.
func (s *userService) GetUser(ctx context.Context, id int64) (*domain.UserView, error) {
	if id <= 0 {
		return nil, invalidInput("user id is required")
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	view := user.View()

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	data, ok, err := s.images.GetProfileImage(ctx, id)
	if err != nil {
		return nil, collaboratorErr("load profile image", err)
	}
	if ok {
		view.ProfileImage = base64.StdEncoding.EncodeToString(data)
	}
	return view, nil
}

// MarkChallengeCompleted records challengeID as completed by userID.
// Repeated calls leave a single entry.
func (s *userService) MarkChallengeCompleted(ctx context.Context, userID, challengeID int64) error {
	if userID <= 0 {
		return invalidInput("user id is required")
	}
	if challengeID <= 0 {
		return invalidInput("challenge id is required")
	}

	if _, err := s.getUser(ctx, userID); err != nil {
		return err
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	if s.opts.ValidateChallenges {
		if _, err := s.challenges.Get(ctx, challengeID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrChallengeNotFound
			}
			return collaboratorErr("lookup challenge", err)
		}
	}

	if err := s.users.MarkChallengeCompleted(ctx, userID, challengeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return collaboratorErr("mark challenge completed", err)
	}
	return nil
}

func (s *userService) ListChallenges(ctx context.Context) ([]domain.Challenge, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	challenges, err := s.challenges.List(ctx)
	if err != nil {
		return nil, collaboratorErr("list challenges", err)
	}
	return challenges, nil
}

// ParseDate accepts a plain date (2006-01-02) or an RFC 3339 timestamp and
// returns midnight UTC of that day.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, invalidInput("date of birth is required")
	}
	if t, err := time.Parse(domain.DateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, invalidInput("date of birth %q is not a date", value)
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func (s *userService) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.OpTimeout)
}

func (s *userService) lookupByUsername(ctx context.Context, username string) (*domain.User, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.users.GetByUsername(ctx, username)
}

func (s *userService) getUser(ctx context.Context, id int64) (*domain.User, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, collaboratorErr("lookup user", err)
	}
	return user, nil
}

func (s *userService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", invalidInput("password must be at most 72 bytes")
		}
		return "", fmt.Errorf("hash password: %w: %w", ErrInternal, err)
	}
	return string(hash), nil
}

func (s *userService) issue(username string) (auth.TokenPair, error) {
	pair, err := s.tokens.Issue(username)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("issue tokens: %w: %w", ErrInternal, err)
	}
	return pair, nil
}

func (s *userService) decodeImage(imageB64 string) ([]byte, error) {
	payload := strings.TrimSpace(imageB64)
	if strings.HasPrefix(payload, "data:") {
		comma := strings.Index(payload, ",")
		if comma < 0 || !strings.HasSuffix(payload[:comma], ";base64") {
			return nil, fmt.Errorf("%w: unsupported data URL", ErrInvalidImage)
		}
		payload = payload[comma+1:]
	}
	if payload == "" {
		return nil, fmt.Errorf("%w: image is empty", ErrInvalidImage)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > s.opts.MaxImageBytes+2 {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidImage, s.opts.MaxImageBytes)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	if len(data) > s.opts.MaxImageBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidImage, s.opts.MaxImageBytes)
	}
	return data, nil
}
