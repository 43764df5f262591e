package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("hidden message")
	logger.Warn("shown message", "session", "abc")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("info logged at warn level:\n%s", out)
	}
	if !strings.Contains(out, "shown message") || !strings.Contains(out, "session=abc") {
		t.Errorf("warn line missing or lacks key/value pairs:\n%s", out)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, "chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestDiscard(t *testing.T) {
	Discard().Error("nothing to see")
}
