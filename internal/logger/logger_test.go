package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSetupJSON(t *testing.T) {
	t.Cleanup(Reset)
	var buf bytes.Buffer
	l, err := Setup(Config{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if L() != l {
		t.Fatalf("L() should return the installed logger")
	}

	buf.Reset()
	L().Info("domain.sealed", "types", 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if rec["msg"] != "domain.sealed" || rec["types"] != float64(3) {
		t.Errorf("unexpected record %v", rec)
	}
	if ts, _ := rec["time"].(string); !strings.HasSuffix(ts, "Z") {
		t.Errorf("time should be UTC RFC3339, got %v", rec["time"])
	}
}

func TestSetupLevelFilters(t *testing.T) {
	t.Cleanup(Reset)
	var buf bytes.Buffer
	if _, err := Setup(Config{Level: "warn", Output: &buf}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	L().Info("hidden")
	L().Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestSetupRejectsUnknownValues(t *testing.T) {
	t.Cleanup(Reset)
	if _, err := Setup(Config{Level: "loud"}); err == nil {
		t.Errorf("expected error for unknown level")
	}
	if _, err := Setup(Config{Format: "xml"}); err == nil {
		t.Errorf("expected error for unknown format")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
}
