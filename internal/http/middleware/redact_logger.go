// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// RedactingLogger is the access logger used in production. It behaves like
// Logger but scrubs e-mail addresses, phone numbers and UUIDs from the query
// string and header values, and fully masks credential headers. Bodies are
// never logged; message content therefore never reaches the logs.
package middleware

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures RedactingLogger. MaskHeaders are matched
// case-insensitively and merged with Authorization, Cookie, Set-Cookie and
// Idempotency-Key.
type RedactOptions struct {
	MaskHeaders []string
}

var (
	// UUIDs go first so the phone pattern cannot eat their digit groups.
	redactUUID  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	redactEmail = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	redactPhone = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

type redactor struct {
	masked map[string]struct{}
}

func newRedactor(opts RedactOptions) redactor {
	r := redactor{masked: map[string]struct{}{
		"authorization":   {},
		"cookie":          {},
		"set-cookie":      {},
		"idempotency-key": {},
	}}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			r.masked[h] = struct{}{}
		}
	}
	return r
}

func (redactor) scrub(s string) string {
	if s == "" {
		return s
	}
	s = redactUUID.ReplaceAllString(s, "[REDACTED:id]")
	s = redactEmail.ReplaceAllString(s, "[REDACTED:email]")
	return redactPhone.ReplaceAllString(s, "[REDACTED:phone]")
}

func (r redactor) headers(in http.Header) map[string]string {
	out := make(map[string]string, len(in))
	for k, vv := range in {
		if _, ok := r.masked[strings.ToLower(k)]; ok {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = r.scrub(strings.Join(vv, ", "))
	}
	return out
}

// RedactingLogger returns the scrubbing access logger. Like Logger it
// attaches the request-scoped logger for handlers and services.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	rd := newRedactor(opts)
	return func(c *gin.Context) {
		start := time.Now()
		l := attachRequestLogger(c, log.Logger, rd.scrub(c.Request.URL.RawQuery))
		hdrs := rd.headers(c.Request.Header)

		c.Next()

		emitAccessLog(c, l.With().Interface("headers", hdrs).Logger(), start)
	}
}
