package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLevelValidate(t *testing.T) {
	for _, level := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		if err := level.Validate(); err != nil {
			t.Errorf("Validate(%s) = %v, want nil", level, err)
		}
	}
	if err := Level("verbose").Validate(); err == nil {
		t.Error("Validate(verbose) = nil, want error")
	}
}

func TestLevelToSlogLevel(t *testing.T) {
	tests := []struct {
		level    Level
		expected slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{Level("unknown"), slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := tt.level.ToSlogLevel(); got != tt.expected {
			t.Errorf("ToSlogLevel(%s) = %v, want %v", tt.level, got, tt.expected)
		}
	}
}

func TestFormatValidate(t *testing.T) {
	if err := FormatText.Validate(); err != nil {
		t.Errorf("Validate(text) = %v", err)
	}
	if err := FormatJSON.Validate(); err != nil {
		t.Errorf("Validate(json) = %v", err)
	}
	if err := Format("xml").Validate(); err == nil {
		t.Error("Validate(xml) = nil, want error")
	}
}

func TestConfigFinalizeDefaults(t *testing.T) {
	var cfg Config
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() error: %v", err)
	}
	if cfg.Level != LevelInfo || cfg.Format != FormatText {
		t.Errorf("defaults = %s/%s, want info/text", cfg.Level, cfg.Format)
	}
}

func TestConfigFinalizeInvalid(t *testing.T) {
	cfg := Config{Level: "verbose"}
	if err := cfg.Finalize(); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&Config{Level: LevelInfo, Format: FormatJSON}, &buf)

	logger.Info("ready", "component", "server")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "ready" || entry["component"] != "server" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNewWithWriterLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&Config{Level: LevelWarn, Format: FormatText}, &buf)

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("warn record should be emitted")
	}
}
