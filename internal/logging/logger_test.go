package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerKeyValues(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, "Uploader")

	l.Info("file selected", "name", "note.jpg", "size", 42)

	out := buf.String()
	for _, want := range []string{"[Uploader]", "[INFO]", "file selected", "name=note.jpg", "size=42"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestLoggerOddKeyValues(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerTo(&buf, "x").Warn("odd", "key")

	if !strings.Contains(buf.String(), "key=<missing>") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestDebugGate(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, "x")

	SetDebug(false)
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug written while disabled: %q", buf.String())
	}

	SetDebug(true)
	defer SetDebug(false)
	l.Debug("shown")
	if !strings.Contains(buf.String(), "[DEBUG] shown") {
		t.Fatalf("debug missing: %q", buf.String())
	}
}

func TestWithSharesOutput(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerTo(&buf, "api").With("session").Error("boom")

	if !strings.Contains(buf.String(), "[api/session]") {
		t.Errorf("unexpected prefix in %q", buf.String())
	}
}
