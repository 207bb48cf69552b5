package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hoshibaby/spbox-back/internal/services"
)

func loggedRouter(buf *bytes.Buffer, h gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zerolog.New(buf)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-1")
		c.Set("logger", &logger)
		c.Next()
	})
	r.GET("/x", h)
	return r
}

func TestFail_LogsServerErrors(t *testing.T) {
	var buf bytes.Buffer
	r := loggedRouter(&buf, func(c *gin.Context) {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "kaboom")
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	wantStatus(t, w, http.StatusInternalServerError, ErrCodeInternal)
	if got := decode[ErrorResponse](t, w); got.RequestID != "rid-1" || got.Message != "kaboom" {
		t.Fatalf("unexpected body: %+v", got)
	}
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("expected error log, got: %s", buf.String())
	}
}

func TestFail_ClientErrorsNotLogged(t *testing.T) {
	var buf bytes.Buffer
	r := loggedRouter(&buf, func(c *gin.Context) { Fail(c, http.StatusNotFound, ErrCodeNotFound, "nope") })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	wantStatus(t, w, http.StatusNotFound, ErrCodeNotFound)
	if buf.Len() != 0 {
		t.Fatalf("4xx should not be logged: %s", buf.String())
	}
}

func TestFailErr_Mapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
		msg    string
	}{
		{services.ErrEmptyContent, 400, ErrCodeBadRequest, "content is empty"},
		{services.ErrBadCredentials, 401, ErrCodeUnauthorized, "bad credentials"},
		{services.ErrLoginRequired, 403, ErrCodeLoginRequired, "login required"},
		{services.ErrBanned, 403, ErrCodeBanned, "account is banned"},
		{services.ErrUserBlocked, 403, ErrCodeBlocked, "user is blacklisted in this box"},
		{services.ErrNotBoxOwner, 403, ErrCodeForbidden, "not the box owner"},
		{fmt.Errorf("load: %w", services.ErrMessageNotFound), 404, ErrCodeNotFound, "load: message not found"},
		{services.ErrAIModeDisabled, 409, ErrCodeConflict, "ai mode is disabled for this box"},
		{services.ErrAIUnavailable, 502, ErrCodeAIUnavailable, "ai reply unavailable"},
		{errors.New("sql: connection refused"), 500, ErrCodeListFailed, "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			var buf bytes.Buffer
			r := loggedRouter(&buf, func(c *gin.Context) { failErr(c, tc.err, ErrCodeListFailed) })
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			wantStatus(t, w, tc.status, tc.code)
			if got := decode[ErrorResponse](t, w); got.Message != tc.msg {
				t.Fatalf("message = %q, want %q", got.Message, tc.msg)
			}
		})
	}
}

func TestOkAndNoContent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ok", func(c *gin.Context) { ok(c, http.StatusCreated, gin.H{"n": 1}) })
	r.DELETE("/gone", func(c *gin.Context) { noContent(c) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w.Code != http.StatusCreated || w.Body.String() != `{"n":1}` {
		t.Fatalf("ok: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/gone", nil))
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("noContent: %d %q", w.Code, w.Body.String())
	}
}

func contains(s, sub string) bool { return strings.Contains(s, sub) }
