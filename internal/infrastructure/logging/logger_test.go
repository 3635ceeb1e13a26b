package logging

import (
	"log/slog"
	"testing"

	"github.com/nerrad567/pihub/internal/infrastructure/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	cfg := config.LoggingConfig{
		Level:  "debug",
		Format: "json",
		Output: "stdout",
	}

	logger := New(cfg, "test")
	if logger == nil {
		t.Fatal("New returned nil")
	}
	if !logger.Enabled(nil, slog.LevelDebug) {
		t.Error("debug level should be enabled")
	}
}

func TestNewTextFormat(t *testing.T) {
	cfg := config.LoggingConfig{
		Level:  "warn",
		Format: "text",
		Output: "stderr",
	}

	logger := New(cfg, "test")
	if logger.Enabled(nil, slog.LevelInfo) {
		t.Error("info should be filtered at warn level")
	}
	if !logger.Enabled(nil, slog.LevelWarn) {
		t.Error("warn level should be enabled")
	}
}

func TestWith(t *testing.T) {
	logger := Default()
	child := logger.With("component", "test")
	if child == nil {
		t.Fatal("With returned nil")
	}
	if child == logger {
		t.Error("With should return a new logger")
	}
}

func TestDefault(t *testing.T) {
	logger := Default()
	if logger == nil {
		t.Fatal("Default returned nil")
	}
	if logger.Enabled(nil, slog.LevelDebug) {
		t.Error("default logger should filter debug")
	}
}
