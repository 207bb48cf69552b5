// Package auth issues and validates access tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned for malformed, tampered, or foreign tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token's exp claim has passed.
	ErrExpiredToken = errors.New("token expired")
)

// Claims carries the account identity inside an access token.
// Subject holds the login id.
type Claims struct {
	UserID  string `json:"uid"`
	LoginID string `json:"login_id"`
	jwt.RegisteredClaims
}

// Manager signs and verifies HS256 access tokens.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewManager returns a Manager. ttl <= 0 falls back to 24h.
func NewManager(secret, issuer string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// TTL returns the lifetime of issued tokens.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue signs a token for the given account.
func (m *Manager) Issue(userID, loginID string) (string, error) {
	now := m.now()
	claims := Claims{
		UserID:  userID,
		LoginID: loginID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   loginID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tok, nil
}

// Validate parses tokenString and returns its claims.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithTimeFunc(m.now)}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.LoginID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
