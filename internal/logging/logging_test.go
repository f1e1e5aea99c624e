package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestParseLevel normalizes spelling variants.
func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"Warning": slog.LevelWarn,
		"err":     slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q)=%v want %v", in, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

// TestNewAttachesComponent checks the component attribute and JSON output.
func TestNewAttachesComponent(t *testing.T) {
	var buf bytes.Buffer
	lg, _, err := New(Options{Level: "info", JSON: true, Writer: &buf, Component: "worker"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	lg.Info("hello")
	out := buf.String()
	if !strings.Contains(out, `"component":"worker"`) || !strings.Contains(out, `"msg":"hello"`) {
		t.Fatalf("unexpected output: %s", out)
	}
}
