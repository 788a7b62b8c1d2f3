package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind distinguishes session tokens from refresh tokens.
type TokenKind string

const (
	KindSession TokenKind = "session"
	KindRefresh TokenKind = "refresh"
)

var (
	// ErrInvalidToken covers malformed, expired, badly signed or wrong-kind tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMisconfigured is returned by NewIssuer when the token settings are unusable.
	ErrMisconfigured = errors.New("token issuer misconfigured")
)

// Config carries the signing secret and token lifetimes.
type Config struct {
	Secret     string
	SessionTTL time.Duration
	RefreshTTL time.Duration
}

// Claims binds a token to a username.
type Claims struct {
	jwt.RegisteredClaims
	Username string    `json:"username"`
	Kind     TokenKind `json:"kind"`
}

// TokenPair bundles a short-lived session token and a longer-lived refresh token.
type TokenPair struct {
	SessionToken string
	RefreshToken string
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret     []byte
	sessionTTL time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewIssuer validates cfg and returns an Issuer. A bad configuration is meant
// to stop the process at startup, not to surface per request.
func NewIssuer(cfg Config) (*Issuer, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("%w: secret is required", ErrMisconfigured)
	}
	if cfg.SessionTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("%w: token lifetimes must be positive", ErrMisconfigured)
	}
	if cfg.RefreshTTL < cfg.SessionTTL {
		return nil, fmt.Errorf("%w: refresh lifetime %s is shorter than session lifetime %s", ErrMisconfigured, cfg.RefreshTTL, cfg.SessionTTL)
	}
	return &Issuer{
		secret:     []byte(cfg.Secret),
		sessionTTL: cfg.SessionTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}, nil
}

// Issue signs a session and a refresh token for username.
func (i *Issuer) Issue(username string) (TokenPair, error) {
	session, err := i.sign(username, KindSession, i.sessionTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.sign(username, KindRefresh, i.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{SessionToken: session, RefreshToken: refresh}, nil
}

// Parse verifies signature, expiry and kind, and returns the claims.
func (i *Issuer) Parse(tokenString string, kind TokenKind) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, kind, claims.Kind)
	}
	if claims.Username == "" {
		return nil, fmt.Errorf("%w: missing username", ErrInvalidToken)
	}
	return claims, nil
}

func (i *Issuer) sign(username string, kind TokenKind, ttl time.Duration) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username: username,
		Kind:     kind,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}
