package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_Formats(t *testing.T) {
	t.Parallel()

	var jsonBuf bytes.Buffer
	New(Config{Level: "info", Format: "json", Output: &jsonBuf}).Info("hello", "n", 1)
	var entry map[string]any
	if err := json.Unmarshal(jsonBuf.Bytes(), &entry); err != nil {
		t.Fatalf("json output not parseable: %v (%q)", err, jsonBuf.String())
	}
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", entry["msg"])
	}

	var textBuf bytes.Buffer
	New(Config{Level: "info", Format: "text", Output: &textBuf}).Info("hello", "n", 1)
	if !strings.Contains(textBuf.String(), "msg=hello") {
		t.Errorf("text output = %q", textBuf.String())
	}

	// auto falls back to json for non-terminals
	var autoBuf bytes.Buffer
	New(Config{Level: "info", Format: "auto", Output: &autoBuf}).Info("hello")
	if !strings.HasPrefix(autoBuf.String(), "{") {
		t.Errorf("auto output on a buffer = %q, want json", autoBuf.String())
	}
}

func TestNew_Level(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "text", Output: &buf})

	logger.Info("quiet")
	logger.Warn("loud")

	if strings.Contains(buf.String(), "quiet") {
		t.Error("info record written at warn level")
	}
	if !strings.Contains(buf.String(), "loud") {
		t.Error("warn record missing")
	}
}

func TestLogger_Sanitizes(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(Config{Level: "debug", Format: "text", Output: &buf})
	secret := "sk-1234567890abcdefghijklmnop"

	logger.Info("using "+secret,
		"key", secret,
		"error", errors.New("auth failed for "+secret),
		slog.Group("req", "token", secret),
	)
	logger.With("preset", secret).Info("with attrs")

	if strings.Contains(buf.String(), secret) {
		t.Errorf("secret leaked: %s", buf.String())
	}
	if !strings.Contains(buf.String(), redactedPlaceholder) {
		t.Errorf("no redaction marker in %s", buf.String())
	}
}

func TestLogger_WithComponent(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "text", Output: &buf}).WithComponent("crashlog")

	logger.Info("tailing")

	if !strings.Contains(buf.String(), "component=crashlog") {
		t.Errorf("component attr missing: %q", buf.String())
	}
	if logger.Sanitizer() == nil {
		t.Error("derived logger lost its sanitizer")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
		"":      slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewNop(t *testing.T) {
	t.Parallel()
	logger := NewNop()
	logger.Error("discarded")
	if got := logger.Sanitize("sk-1234567890abcdefghijklmnop"); got != redactedPlaceholder {
		t.Errorf("Sanitize() = %q", got)
	}
}

func TestPrettyHandler(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, slog.LevelInfo))

	logger.Debug("hidden")
	logger.With("pid", 42).WithGroup("fault").Error("crash", "kind", "string")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug record written at info level")
	}
	for _, want := range []string{"ERR", "crash", "pid", "42", "fault.kind", "string"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}
