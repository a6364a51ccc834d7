package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DEBUG, "DEBUG"},
		{INFO, "INFO"},
		{WARNING, "WARNING"},
		{ERROR, "ERROR"},
		{FATAL, "FATAL"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("LogLevel.String() = %v, want %v", got, tt.expected)
		}
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level    string
		expected LogLevel
	}{
		{"DEBUG", DEBUG},
		{"debug", DEBUG},
		{"INFO", INFO},
		{"warn", WARNING},
		{"WARNING", WARNING},
		{"error", ERROR},
		{"fatal", FATAL},
		{"invalid", INFO},
		{"", INFO},
	}

	for _, tt := range tests {
		logger := NewLogger(tt.level)
		if logger.level != tt.expected {
			t.Errorf("NewLogger(%q) level = %v, want %v", tt.level, logger.level, tt.expected)
		}
	}
}

func TestLogger_ShouldLog(t *testing.T) {
	logger := NewLogger("WARNING")

	tests := []struct {
		level    LogLevel
		expected bool
	}{
		{DEBUG, false},
		{INFO, false},
		{WARNING, true},
		{ERROR, true},
		{FATAL, true},
	}

	for _, tt := range tests {
		if got := logger.shouldLog(tt.level); got != tt.expected {
			t.Errorf("shouldLog(%v) = %v, want %v", tt.level, got, tt.expected)
		}
	}
}

func TestLogger_LogMethods(t *testing.T) {
	logger := NewLogger("DEBUG")
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)

	tests := []struct {
		method  func(string, ...interface{})
		level   string
		message string
	}{
		{logger.Debug, "DEBUG", "debug message"},
		{logger.Info, "INFO", "info message"},
		{logger.Warning, "WARNING", "warning message"},
		{logger.Error, "ERROR", "error message"},
	}

	for _, tt := range tests {
		buf.Reset()
		tt.method(tt.message)

		output := buf.String()
		if !strings.Contains(output, "["+tt.level+"]") {
			t.Errorf("Expected output to contain level %q, got %q", tt.level, output)
		}
		if !strings.Contains(output, tt.message) {
			t.Errorf("Expected output to contain message %q, got %q", tt.message, output)
		}
	}
}

func TestLogger_SuppressedBelowLevel(t *testing.T) {
	logger := NewLogger("ERROR")
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)

	logger.Info("chat request sent")
	if buf.Len() != 0 {
		t.Errorf("Expected no output below ERROR, got %q", buf.String())
	}
}

func TestLogger_LogWithFormat(t *testing.T) {
	logger := NewLogger("INFO")
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)

	logger.Info("captured %d samples at %d Hz", 16000, 16000)

	if !strings.Contains(buf.String(), "captured 16000 samples at 16000 Hz") {
		t.Errorf("Expected formatted message, got %q", buf.String())
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	logger := NewLogger("INFO")
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)

	logger.Info("test message")
	if strings.Contains(buf.String(), `"message"`) {
		t.Error("Text format should not contain JSON-style message field")
	}

	buf.Reset()
	logger.SetJSONFormat(true)
	logger.Info("test message")
	if !strings.Contains(buf.String(), `"message":"test message"`) {
		t.Errorf("JSON format should contain message field, got %q", buf.String())
	}
}

func TestLogger_Named(t *testing.T) {
	logger := NewLogger("INFO")
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)

	logger.Named("voice").Named("recorder").Info("state changed")
	if !strings.Contains(buf.String(), "voice.recorder: state changed") {
		t.Errorf("Expected component prefix, got %q", buf.String())
	}

	// Named loggers share the parent's output configuration.
	buf.Reset()
	named := logger.Named("chat")
	logger.SetJSONFormat(true)
	named.Info("sent")
	if !strings.Contains(buf.String(), `"logger":"chat"`) {
		t.Errorf("Expected JSON logger field, got %q", buf.String())
	}
}

func TestLogger_WithFields(t *testing.T) {
	logger := NewLogger("INFO")
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)

	fieldLogger := logger.WithFields(map[string]interface{}{
		"endpoint": "/chat",
		"status":   500,
	})
	fieldLogger.Warning("exchange failed")

	output := buf.String()
	for _, want := range []string{"exchange failed", "endpoint=/chat", "status=500"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got %q", want, output)
		}
	}
}

func TestFieldLogger_JSONFormat(t *testing.T) {
	logger := NewLogger("INFO")
	logger.SetJSONFormat(true)
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)

	logger.WithFields(map[string]interface{}{"user": "alice", "count": 42}).Info("Test message")

	output := buf.String()
	for _, want := range []string{`"user":"alice"`, `"count":"42"`, `"message":"Test message"`} {
		if !strings.Contains(output, want) {
			t.Errorf("JSON output should contain %s, got %q", want, output)
		}
	}
}

func TestLogrSink_Enabled(t *testing.T) {
	if !NewLogger("INFO").GetLogr().Enabled() {
		t.Error("INFO level should be enabled")
	}
	if NewLogger("INFO").GetLogr().V(1).Enabled() {
		t.Error("V(1) should be disabled at INFO")
	}
	if !NewLogger("DEBUG").GetLogr().V(1).Enabled() {
		t.Error("V(1) should be enabled at DEBUG")
	}
}

func TestLogrSink_InfoAndError(t *testing.T) {
	logger := NewLogger("DEBUG")
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)

	log := logger.GetLogr().WithName("backend").WithValues("path", "/chat")
	log.Info("request sent")

	output := buf.String()
	if !strings.Contains(output, "[INFO] backend: request sent") {
		t.Errorf("Expected logr info output, got %q", output)
	}
	if !strings.Contains(output, "path=/chat") {
		t.Errorf("Expected logr values in output, got %q", output)
	}

	buf.Reset()
	log.Error(errors.New("connection refused"), "request failed")
	output = buf.String()
	if !strings.Contains(output, "[ERROR]") || !strings.Contains(output, "error=connection refused") {
		t.Errorf("Expected logr error output, got %q", output)
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("nothing should be written")
	if logger.Level() != FATAL {
		t.Errorf("Discard level = %v, want FATAL", logger.Level())
	}
}
