package sysutil

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":     zerolog.DebugLevel,
		"  DeBuG  ": zerolog.DebugLevel,
		"info":      zerolog.InfoLevel,
		"":          zerolog.InfoLevel,
		"warn":      zerolog.WarnLevel,
		"warning":   zerolog.WarnLevel,
		"error":     zerolog.ErrorLevel,
		"fatal":     zerolog.FatalLevel,
		"panic":     zerolog.PanicLevel,
		"unknown":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v; want %v", in, got, want)
		}
	}
}

func restoreLogging(t *testing.T) {
	t.Helper()
	lvl, l := zerolog.GlobalLevel(), log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(lvl)
		log.Logger = l
	})
}

func TestConfigureLogging_JSON(t *testing.T) {
	restoreLogging(t)
	var buf bytes.Buffer
	l := ConfigureLogging(&buf, "warn", false)

	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Fatalf("global level = %v", zerolog.GlobalLevel())
	}
	l.Info().Msg("dropped")
	log.Warn().Msg("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &m); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if m["message"] != "kept" || m["service"] != "spbox-back" || m["time"] == nil {
		t.Fatalf("unexpected entry: %v", m)
	}
}

func TestConfigureLogging_Pretty(t *testing.T) {
	restoreLogging(t)
	var buf bytes.Buffer
	l := ConfigureLogging(&buf, "debug", true)
	l.Debug().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, "hello") || strings.HasPrefix(out, "{") {
		t.Fatalf("expected console output, got %q", out)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty(); got != "" {
		t.Fatalf("FirstNonEmpty() = %q", got)
	}
	if got := FirstNonEmpty(" ", "\t"); got != "" {
		t.Fatalf("FirstNonEmpty(blanks) = %q", got)
	}
	if got := FirstNonEmpty("   ", "  v1  ", "v2"); got != "  v1  " {
		t.Fatalf("FirstNonEmpty keeps original spacing, got %q", got)
	}
}
