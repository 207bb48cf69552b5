// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the request ID injector, the structured access logger
// and the panic recovery handler. Recommended order:
//
//  1. RequestID()
//  2. Logger() or RedactingLogger()
//  3. Recovery()
//
// The request-scoped logger is stored under the "logger" Gin key and is also
// attached to the request context so services can fetch it with
// zerolog.Ctx.
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey      = "requestID"
	requestIDHeader   = "X-Request-ID"
	loggerKey         = "logger"
	maxQueryLogLength = 2048
)

// RequestID reuses an inbound X-Request-ID or generates a UUIDv4, echoes it on
// the response and stores it under "requestID".
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// Logger writes one access log line per request. The level follows the
// outcome: error for 5xx or collected gin errors, warn for 4xx, info
// otherwise.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		l := attachRequestLogger(c, log.Logger, c.Request.URL.RawQuery)
		c.Next()
		emitAccessLog(c, l, start)
	}
}

// attachRequestLogger derives the per-request logger from base and publishes
// it on both the gin context and the request context.
func attachRequestLogger(c *gin.Context, base zerolog.Logger, query string) zerolog.Logger {
	rid, _ := c.Get(requestIDKey)
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	l := base.With().
		Str("request_id", asString(rid)).
		Str("method", c.Request.Method).
		Str("path", path).
		Str("remote_ip", c.ClientIP()).
		Str("user_agent", c.Request.UserAgent()).
		Str("query", truncate(query, maxQueryLogLength)).
		Int64("bytes_in", c.Request.ContentLength).
		Logger()

	c.Set(loggerKey, &l)
	c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
	return l
}

// emitAccessLog reads the login id after the handler chain ran, since the
// auth middleware sits behind the logger.
func emitAccessLog(c *gin.Context, l zerolog.Logger, start time.Time) {
	status := c.Writer.Status()
	ev := l.With().
		Str("user_id", LoginID(c)).
		Int("status", status).
		Dur("latency", time.Since(start)).
		Int("bytes_out", c.Writer.Size()).
		Logger()

	switch {
	case len(c.Errors) > 0:
		ev.Error().Str("errors", c.Errors.String()).Msg("request")
	case status >= 500:
		ev.Error().Msg("request")
	case status >= 400:
		ev.Warn().Msg("request")
	default:
		ev.Info().Msg("request")
	}
}

// Recovery converts panics into a JSON 500 carrying the request id, and logs
// the stack trace.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			v, _ := c.Get(requestIDKey)
			rid := asString(v)
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", rid).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header(requestIDHeader, rid)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": rid,
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, or the global logger when
// none was attached.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// truncate cuts s to max bytes. max <= 0 disables truncation.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
