package logging

import (
	"log/slog"
	"testing"

	"github.com/emberlink/ecomax-bridge/internal/infrastructure/config"
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
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	formats := []string{"json", "text", ""}
	for _, format := range formats {
		logger := New(config.LoggingConfig{
			Level:  "debug",
			Format: format,
			Output: "stderr",
		}, "test")
		if logger == nil || logger.Logger == nil {
			t.Fatalf("New returned nil logger for format %q", format)
		}
	}
}

func TestWith(t *testing.T) {
	logger := Default()
	child := logger.With("entry_id", "boiler-main")
	if child == nil || child.Logger == nil {
		t.Fatal("With returned nil logger")
	}
	if child == logger {
		t.Error("With returned the same logger instance")
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default returned nil")
	}
}
