package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken is returned when a protected endpoint is called without a bearer token
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken is returned for tokens that fail signature or claim checks
	ErrInvalidToken = errors.New("invalid token")
)

// Claims carried by operator tokens
type Claims struct {
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens. A nil or empty-secret
// Authenticator lets every request through.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an authenticator for the given shared secret
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Enabled reports whether requests are checked
func (a *Authenticator) Enabled() bool {
	return a != nil && len(a.secret) > 0
}

// Generate issues a token for subject, valid for ttl
func (a *Authenticator) Generate(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Parse validates a token string and returns its claims
func (a *Authenticator) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims, ok := token.Claims.(*Claims); ok {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// Check validates the Authorization header of r
func (a *Authenticator) Check(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	tokenStr, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenStr == "" {
		return nil, ErrMissingToken
	}
	return a.Parse(tokenStr)
}

// Require wraps a handler with bearer token verification when enabled
func (a *Authenticator) Require(next http.HandlerFunc) http.HandlerFunc {
	if !a.Enabled() {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := a.Check(r); err != nil {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next(w, r)
	}
}
