package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	if l := NewLogger(nil); l == nil {
		t.Fatal("NewLogger(nil) returned nil")
	}

	var buf bytes.Buffer
	l := NewLogger(&Config{Level: LevelDebug, Output: &buf})
	l.Debug("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("expected message in output, got %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{Level: LevelWarn, Output: &buf})

	l.Debug("should not appear")
	l.Info("should not appear either")
	if buf.Len() != 0 {
		t.Errorf("expected no output below configured level, got %q", buf.String())
	}

	l.Warn("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("expected warn message, got %q", buf.String())
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	managerLogger := base.With("fd", 7)
	managerLogger.Info("submitted batch")

	output := buf.String()
	if !strings.Contains(output, "fd=7") {
		t.Errorf("expected fd=7 in output, got: %s", output)
	}

	buf.Reset()
	workerLogger := managerLogger.With("worker", 2)
	workerLogger.Debug("draining queue")

	output = buf.String()
	if !strings.Contains(output, "fd=7") || !strings.Contains(output, "worker=2") {
		t.Errorf("expected fd=7 and worker=2 in output, got: %s", output)
	}
}

func TestGlobalLoggerFunctions(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewLogger(&Config{Level: LevelDebug, Output: &buf}))

	Debug("debug message", "key", "value")
	output := buf.String()
	if !strings.Contains(output, "debug message") || !strings.Contains(output, "key=value") {
		t.Errorf("expected debug message with key=value, got: %s", output)
	}

	buf.Reset()
	Error("error message")
	if !strings.Contains(buf.String(), "error message") {
		t.Errorf("expected error message, got: %s", buf.String())
	}
}
