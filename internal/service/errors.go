package service

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates a missing or malformed request field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidImage indicates an image payload that is not valid base64 or is out of bounds.
	ErrInvalidImage = errors.New("invalid image")
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when attempting to register with an existing username.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUsernameTaken is returned when a rename collides with another user.
	ErrUsernameTaken = errors.New("username is taken")
	// ErrUserNotFound is returned when no user has the requested id.
	ErrUserNotFound = errors.New("user not found")
	// ErrChallengeNotFound is returned when a challenge id is not in the catalog.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrUnavailable indicates a collaborator did not answer in time.
	ErrUnavailable = errors.New("service unavailable")
	// ErrInternal wraps collaborator failures that are not the caller's fault.
	ErrInternal = errors.New("internal error")
)

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// collaboratorErr classifies a storage or signing failure. The underlying
// error stays in the chain for logging.
func collaboratorErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}
