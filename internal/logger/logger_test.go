package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"Warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	l := Init(Config{Level: "WARN", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(Config{Level: "INFO", Format: "text"}) })

	if Get() != l {
		t.Fatal("Get should return the initialized logger")
	}
	Info("dropped")
	Warn("kept", "key", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["msg"] != "kept" || rec["level"] != "WARN" || rec["key"] != float64(1) {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestInitText(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "text", Output: &buf})
	t.Cleanup(func() { Init(Config{Level: "INFO", Format: "text"}) })

	Debug("compiled", "source", "return 1;")
	Error("failed")
	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") || !strings.Contains(out, `source="return 1;"`) {
		t.Errorf("missing debug record: %s", out)
	}
	if !strings.Contains(out, "level=ERROR msg=failed") {
		t.Errorf("missing error record: %s", out)
	}
}
