// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file authenticates requests carrying "Authorization: Bearer <jwt>".
// OptionalAuth attaches the identity when a valid token is present and lets
// anonymous requests through; RequireAuth rejects requests without one.
//
// The login id is stored under "userID" (the key the access logger and
// idempotency validator already read) and the account UUID under "uid".
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hoshibaby/spbox-back/internal/auth"
)

const (
	ctxKeyLoginID = "userID"
	ctxKeyUserUID = "uid"
	ctxKeyAuthErr = "auth.err"
)

// TokenValidator verifies an access token and returns its claims.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// OptionalAuth attaches the caller identity when a valid bearer token is
// present. Missing or invalid tokens are not an error at this stage.
func OptionalAuth(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := bearerToken(c); tok != "" {
			claims, err := v.Validate(tok)
			if err != nil {
				c.Set(ctxKeyAuthErr, err)
			} else {
				c.Set(ctxKeyLoginID, claims.LoginID)
				c.Set(ctxKeyUserUID, claims.UserID)
			}
		}
		c.Next()
	}
}

// RequireAuth aborts with 401 unless OptionalAuth attached an identity.
// It must run after OptionalAuth.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if LoginID(c) != "" {
			c.Next()
			return
		}
		msg := "authentication required"
		if v, ok := c.Get(ctxKeyAuthErr); ok {
			if err, _ := v.(error); errors.Is(err, auth.ErrExpiredToken) {
				msg = "token expired"
			} else {
				msg = "invalid token"
			}
		}
		rid, _ := c.Get(requestIDKey)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"request_id": asString(rid),
			"code":       "unauthorized",
			"message":    msg,
		})
	}
}

// LoginID returns the authenticated login id, or "" for anonymous callers.
func LoginID(c *gin.Context) string {
	v, _ := c.Get(ctxKeyLoginID)
	return asString(v)
}

// UserUID returns the authenticated account UUID, or "".
func UserUID(c *gin.Context) string {
	v, _ := c.Get(ctxKeyUserUID)
	return asString(v)
}

func bearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
