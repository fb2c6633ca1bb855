package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vkbackup/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{
			name:    "info level",
			cfg:     &config.LoggingConfig{Level: "info"},
			wantErr: false,
		},
		{
			name:    "debug level",
			cfg:     &config.LoggingConfig{Level: "debug"},
			wantErr: false,
		},
		{
			name:    "invalid log level",
			cfg:     &config.LoggingConfig{Level: "invalid"},
			wantErr: true,
		},
		{
			name:    "file output",
			cfg:     &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "vkbackup.log")},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"quiet", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func newBufferLogger(t *testing.T, level string) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, level)
	if err != nil {
		t.Fatalf("NewWithWriter() error = %v", err)
	}
	return l, &buf
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(t, "warn")

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("Messages below warn should be filtered, got %s", out)
	}
	if !strings.Contains(out, "warn message") {
		t.Error("Warn message not found in output")
	}
	if !strings.Contains(out, `"app":"vkbackup"`) {
		t.Error("App field not found in output")
	}
}

func TestFieldChaining(t *testing.T) {
	l, buf := newBufferLogger(t, "debug")

	l.WithField("owner_id", 42).
		WithFields(map[string]interface{}{
			"destination": "yandex",
			"elapsed":     2 * time.Second,
		}).
		Info("chained fields")

	out := buf.String()
	for _, want := range []string{`"owner_id":42`, `"destination":"yandex"`, `"elapsed":2000`, "chained fields"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %s in output %s", want, out)
		}
	}
}

func TestWithFieldDoesNotLeakIntoParent(t *testing.T) {
	l, buf := newBufferLogger(t, "debug")

	_ = l.WithField("child", true)
	l.Info("parent message")

	if strings.Contains(buf.String(), "child") {
		t.Error("Child field leaked into parent logger")
	}
}

func TestWithError(t *testing.T) {
	l, buf := newBufferLogger(t, "debug")

	if l.WithError(nil) != l {
		t.Error("WithError(nil) should return the same logger")
	}

	l.WithError(errors.New("upload rejected")).Error("error occurred")

	out := buf.String()
	if !strings.Contains(out, `"error":"upload rejected"`) {
		t.Errorf("Error field not found in output %s", out)
	}
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogRequest(tl, "PUT", "https://example.com", 503, 15*time.Millisecond)
	LogRequest(tl, "GET", "https://example.com", 200, time.Millisecond)
	LogTransfer(tl, "gdrive", "10_1700000000_z.jpg", errors.New("boom"))
	LogSummary(tl, "upload", 3, 4)

	if got := len(tl.GetMessagesByLevel("ERROR")); got != 1 {
		t.Errorf("Expected 1 error message, got %d", got)
	}
	if got := len(tl.GetMessagesByLevel("DEBUG")); got != 1 {
		t.Errorf("Expected 1 debug message, got %d", got)
	}

	warns := tl.GetMessagesByLevel("WARN")
	if len(warns) != 1 || warns[0].Error == nil || warns[0].Fields["destination"] != "gdrive" {
		t.Errorf("Unexpected transfer warning: %+v", warns)
	}

	if !tl.HasMessage("Phase finished") {
		t.Error("Expected summary message")
	}

	tl.Clear()
	if len(tl.GetMessages()) != 0 {
		t.Error("Clear should drop all messages")
	}
}

func TestGlobalLogger(t *testing.T) {
	tl := NewTestLogger()
	SetLogger(tl)
	t.Cleanup(func() { SetLogger(nil) })

	Info("global info")
	WithField("k", "v").Warn("global warn")

	if !tl.HasMessage("global info") || !tl.HasMessage("global warn") {
		t.Errorf("Expected global helpers to use the installed logger, got %+v", tl.GetMessages())
	}
}
