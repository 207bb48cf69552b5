// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for message submission. It
// validates an Idempotency-Key request header, optionally performs a lookup
// to detect a previously completed submission, and annotates the request
// context so downstream handlers can:
//   - read the validated key (GetIdempotencyKey)
//   - detect replayed requests (IsReplay)
//
// Keys are scoped per actor (login id, or client IP for anonymous visitors)
// and per box URL key, so the same key used against two boxes produces two
// messages.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the canonical request header carrying the key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
)

// GetIdempotencyKey returns the validated key stored by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the validator found a stored result for this
// (actor, box, key).
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures IdempotencyValidator.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. Nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
	// Scope extracts the box URL key from the request. Nil reads the
	// ":urlKey" path parameter. An empty scope skips the lookup.
	Scope func(c *gin.Context) string
}

// IdempotencyLookup reports whether a still-valid result exists for
// (actorID, boxKey, key) at now. Errors never block the request.
type IdempotencyLookup func(ctx context.Context, actorID, boxKey, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header (if present),
// stashes it, and marks the request as a replay when lookup finds a prior
// result. Invalid keys are rejected with 400. Handlers stay in charge of
// serving the stored result.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}
	scope := opts.Scope
	if scope == nil {
		scope = func(c *gin.Context) string { return c.Param("urlKey") }
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			rid, _ := c.Get(requestIDKey)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": asString(rid),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			if boxKey := scope(c); boxKey != "" {
				if exists, _ := lookup(c.Request.Context(), ActorID(c), boxKey, key, time.Now().UTC()); exists {
					c.Set(ctxKeyIdemReplay, true)
				}
			}
		}
		c.Next()
	}
}

// ActorID identifies the writer for idempotency purposes: the login id when
// authenticated, otherwise "ip:" plus the client IP.
func ActorID(c *gin.Context) string {
	if id := LoginID(c); id != "" {
		return id
	}
	return "ip:" + c.ClientIP()
}
