package http

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"challenge-portal/internal/domain"
	"challenge-portal/internal/service"
)

// Envelope is the body of every API response. Data is omitted on failure.
type Envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// messages customises the failure text of a single endpoint.
type messages struct {
	failed       string
	unauthorized string
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Message: message, Data: data})
}

// fail maps a service error to a status and a caller-safe message. Internal
// failures are logged with their cause and answered with a generic text.
func (h *Handler) fail(c *gin.Context, err error, msgs messages) {
	status, message := outcome(err, msgs)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Error("request failed")
	}
	_ = c.Error(err)
	respond(c, status, message, nil)
}

func outcome(err error, msgs messages) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidImage):
		return http.StatusBadRequest, "Invalid image."
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, sentence(err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		if msgs.unauthorized != "" {
			return http.StatusUnauthorized, msgs.unauthorized
		}
		return http.StatusUnauthorized, "Unauthorized."
	case errors.Is(err, service.ErrUserAlreadyExists):
		return http.StatusConflict, "User already exists!"
	case errors.Is(err, service.ErrUsernameTaken):
		return http.StatusConflict, "Username is taken."
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, "User not found."
	case errors.Is(err, service.ErrChallengeNotFound):
		return http.StatusNotFound, "Challenge not found."
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable, "Service temporarily unavailable."
	}
	if msgs.failed != "" {
		return http.StatusInternalServerError, msgs.failed
	}
	return http.StatusInternalServerError, "Internal server error."
}

func sentence(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	s = string(unicode.ToUpper(r)) + s[size:]
	if !strings.HasSuffix(s, ".") {
		s += "."
	}
	return s
}

type UserResponse struct {
	ID                  int64   `json:"id"`
	Username            string  `json:"username"`
	DisplayName         string  `json:"displayName"`
	Bio                 string  `json:"bio"`
	DateOfBirth         string  `json:"dateOfBirth"`
	CompletedChallenges []int64 `json:"completedChallenges"`
	ProfileImage        string  `json:"profileImg,omitempty"`
	CreatedAt           string  `json:"createdAt"`
	UpdatedAt           string  `json:"updatedAt"`
}

type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type ChallengeResponse struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
	CreatedAt  string `json:"createdAt"`
}

func userToResponse(v *domain.UserView) UserResponse {
	completed := v.CompletedChallenges
	if completed == nil {
		completed = []int64{}
	}
	return UserResponse{
		ID:                  v.ID,
		Username:            v.Username,
		DisplayName:         v.DisplayName,
		Bio:                 v.Bio,
		DateOfBirth:         v.DateOfBirth.Format(domain.DateLayout),
		CompletedChallenges: completed,
		ProfileImage:        v.ProfileImage,
		CreatedAt:           v.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           v.UpdatedAt.Format(time.RFC3339),
	}
}

func challengeToResponse(c domain.Challenge) ChallengeResponse {
	return ChallengeResponse{
		ID:         c.ID,
		Title:      c.Title,
		Difficulty: c.Difficulty,
		CreatedAt:  c.CreatedAt.Format(time.RFC3339),
	}
}
