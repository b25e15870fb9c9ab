// Package auth issues and verifies bearer tokens that identify a user.
//
// Tokens are HS256 JWTs carrying the user ID as subject and an expiry.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"smartcook/internal/logging"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrUnauthenticated means the request carried no valid token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrTokenExpired is wrapped by ErrUnauthenticated for expired tokens.
	ErrTokenExpired = errors.New("token expired")
)

const issuer = "smartcook"

// Authenticator resolves the user behind a request.
type Authenticator interface {
	Authenticate(r *http.Request) (userID string, err error)
}

// TokenAuth signs and verifies bearer tokens.
type TokenAuth struct {
	secret []byte
	now    func() time.Time
}

// NewTokenAuth creates a TokenAuth. The secret must not be empty.
func NewTokenAuth(secret string) (*TokenAuth, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	return &TokenAuth{secret: []byte(secret), now: time.Now}, nil
}

// SetClock overrides the time source.
func (a *TokenAuth) SetClock(now func() time.Time) { a.now = now }

// Issue creates a token for userID valid for ttl.
func (a *TokenAuth) Issue(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("invalid ttl %s", ttl)
	}
	now := a.now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the user ID carried by token.
func (a *TokenAuth) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (interface{}, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, ErrTokenExpired)
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	case claims.Subject == "":
		return "", fmt.Errorf("%w: missing subject", ErrUnauthenticated)
	}
	return claims.Subject, nil
}

// Authenticate implements Authenticator using the Authorization header.
func (a *TokenAuth) Authenticate(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || token == "" {
		return "", fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	}
	userID, err := a.Verify(strings.TrimSpace(token))
	if err != nil {
		logging.Get(logging.CategoryAuth).Warn("Rejected token from %s: %v", r.RemoteAddr, err)
		return "", err
	}
	return userID, nil
}
