package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123"

// baseEnv makes the defaults loadable in release mode.
func baseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)
}

func containsErr(err error, want string) bool {
	return err != nil && strings.Contains(err.Error(), want)
}

func TestMain(m *testing.M) {
	for _, k := range []string{"PORT", "GIN_MODE", "JWT_SECRET", "AI_ENDPOINT", "API_BASE_PATH"} {
		os.Unsetenv(k)
	}
	os.Exit(m.Run())
}

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	baseEnv(t)
	t.Setenv("LOG_LEVEL", "verbose")
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestMustLoad_Defaults(t *testing.T) {
	baseEnv(t)
	cfg := MustLoad()

	if cfg.APIBasePath != "/api" || cfg.DBPath != "spbox.db" || cfg.GinMode != "release" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.LabelLocale != "en" || cfg.MaxContentRunes != 1000 {
		t.Fatalf("postbox defaults: locale=%q max=%d", cfg.LabelLocale, cfg.MaxContentRunes)
	}
	if cfg.Auth.JWTIssuer != "spbox-back" || cfg.Auth.TokenTTL != 24*time.Hour {
		t.Fatalf("auth defaults: %+v", cfg.Auth)
	}
	if cfg.AI.Endpoint != "" || cfg.AI.Timeout != 10*time.Second {
		t.Fatalf("ai defaults: %+v", cfg.AI)
	}
	if cfg.IdempotencyTTL != 24*time.Hour || cfg.OTEL.ServiceName != "spbox-back" {
		t.Fatalf("misc defaults: ttl=%v svc=%q", cfg.IdempotencyTTL, cfg.OTEL.ServiceName)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird")
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "on")
	t.Setenv("API_BASE_PATH", "api/v2/")
	t.Setenv("DB_PATH", "db.sqlite")
	t.Setenv("LABEL_LOCALE", "ko")
	t.Setenv("MAX_CONTENT_RUNES", "500")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("JWT_ISSUER", "issuer")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("AI_ENDPOINT", " https://ai.internal/generate ")
	t.Setenv("AI_API_KEY", "k")
	t.Setenv("AI_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")
	t.Setenv("IDEMPOTENCY_TTL", "48h")
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/api/v2" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}
	if cfg.DBPath != "db.sqlite" || cfg.LabelLocale != "ko" || cfg.MaxContentRunes != 500 {
		t.Fatalf("app fields unexpected: %+v", cfg)
	}
	if cfg.Auth != (AuthConfig{JWTSecret: testSecret, JWTIssuer: "issuer", TokenTTL: 2 * time.Hour}) {
		t.Fatalf("auth unexpected: %+v", cfg.Auth)
	}
	if cfg.AI != (AIConfig{Endpoint: "https://ai.internal/generate", APIKey: "k", Timeout: 3 * time.Second}) {
		t.Fatalf("ai unexpected: %+v", cfg.AI)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("CORS origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour || cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("security/idempotency unexpected: %+v", cfg)
	}
	if cfg.OTEL != (OTELConfig{Enabled: true, Endpoint: "otel:4317", ServiceName: "svc", SampleRatio: 0.75}) {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_JWTSecret(t *testing.T) {
	t.Run("missing in release", func(t *testing.T) {
		if _, err := Load(); !containsErr(err, "JWT_SECRET must be set") {
			t.Fatalf("expected JWT_SECRET error, got %v", err)
		}
	})
	t.Run("dev default outside release", func(t *testing.T) {
		t.Setenv("GIN_MODE", "debug")
		cfg, err := Load()
		if err != nil || cfg.Auth.JWTSecret != devJWTSecret {
			t.Fatalf("expected dev secret, got %q err=%v", cfg.Auth.JWTSecret, err)
		}
	})
	t.Run("too short", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "short")
		if _, err := Load(); !containsErr(err, "at least 16 bytes") {
			t.Fatalf("expected length error, got %v", err)
		}
	})
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		key, val, want string
	}{
		{"LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"PORT", "   ", "PORT must not be empty"},
		{"READ_TIMEOUT", "0s", "timeouts must be positive"},
		{"MAX_HEADER_BYTES", "0", "MAX_HEADER_BYTES"},
		{"DB_PATH", "   ", "DB_PATH must not be empty"},
		{"MAX_CONTENT_RUNES", "0", "MAX_CONTENT_RUNES"},
		{"JWT_TTL", "-1h", "JWT_TTL"},
		{"AI_TIMEOUT", "0s", "AI_TIMEOUT"},
		{"AI_ENDPOINT", "ftp://x", "AI_ENDPOINT"},
		{"HSTS_MAX_AGE", "-1s", "HSTS_MAX_AGE"},
		{"IDEMPOTENCY_TTL", "0s", "IDEMPOTENCY_TTL"},
		{"OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			baseEnv(t)
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); !containsErr(err, tc.want) {
				t.Fatalf("%s=%q: expected error containing %q, got %v", tc.key, tc.val, tc.want, err)
			}
		})
	}
}

func TestHelpers_getenv(t *testing.T) {
	t.Setenv("X_EMPTY", "")
	if getenv("X_EMPTY", "d") != "d" {
		t.Fatalf("getenv should fall back to default on empty var")
	}
	t.Setenv("X_SET", "val")
	if getenv("X_SET", "d") != "val" {
		t.Fatalf("getenv should read set value")
	}
}

func TestHelpers_getfloat_getint_getdur(t *testing.T) {
	t.Setenv("F_VALID", "3.14")
	t.Setenv("F_BAD", "nope")
	t.Setenv("I_VALID", "42")
	t.Setenv("I_BAD", "x")
	t.Setenv("D_VALID", "150ms")
	t.Setenv("D_BAD", "zzz")

	if getfloat("F_VALID", 0) != 3.14 || getfloat("F_BAD", 1.23) != 1.23 {
		t.Fatalf("getfloat failed")
	}
	if getint("I_VALID", 0) != 42 || getint("I_BAD", 7) != 7 {
		t.Fatalf("getint failed")
	}
	if getdur("D_VALID", time.Second) != 150*time.Millisecond || getdur("D_BAD", 2*time.Second) != 2*time.Second {
		t.Fatalf("getdur failed")
	}
}

func TestHelpers_getbool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", " yes ", "Y", "on", "On"} {
		t.Setenv("B_VAL", v)
		if !getbool("B_VAL", false) {
			t.Fatalf("getbool(%q) = false; want true", v)
		}
	}
	for _, v := range []string{"0", "false", "FALSE", " no ", "N", "off", "Off"} {
		t.Setenv("B_VAL", v)
		if getbool("B_VAL", true) {
			t.Fatalf("getbool(%q) = true; want false", v)
		}
	}
	t.Setenv("B_VAL", "maybe")
	if !getbool("B_VAL", true) || getbool("B_VAL", false) {
		t.Fatalf("unrecognized values should fall back to default")
	}
}

func TestHelpers_splitCSV_and_normalizeBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	if got := splitCSV(" a, ,b ,  c  ,"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("splitCSV mismatch: %#v", got)
	}

	for in, want := range map[string]string{
		"":       "/",
		" / ":    "/",
		"///":    "/",
		"v1":     "/v1",
		"/v1/":   "/v1",
		"/api//": "/api",
	} {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q; want %q", in, got, want)
		}
	}
}
