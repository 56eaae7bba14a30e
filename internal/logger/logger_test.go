package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"  info  ", LevelInfo, false},
		{"verbose", LevelInfo, true},
		{"", LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLevel(%q) expected error, got nil", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLevel(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetLevel(LevelWarn)
	defer SetLevel(LevelInfo)

	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") {
		t.Error("debug message should be filtered at warn level")
	}
	if strings.Contains(out, "info message") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "warn message") {
		t.Error("warn message should be logged at warn level")
	}
	if !strings.Contains(out, "error message") {
		t.Error("error message should be logged at warn level")
	}
}

func TestLogFormat(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetLevel(LevelInfo)

	Info("hello %s", "world")

	line := strings.TrimSpace(buf.String())
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		t.Fatalf("expected 'timestamp LEVEL message', got %q", line)
	}
	if !strings.HasSuffix(parts[0], "Z") {
		t.Errorf("timestamp %q should be UTC with Z suffix", parts[0])
	}
	if parts[1] != "INFO" {
		t.Errorf("expected level INFO, got %q", parts[1])
	}
	if parts[2] != "hello world" {
		t.Errorf("expected message 'hello world', got %q", parts[2])
	}
}

func TestSetLogFile(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetLevel(LevelInfo)

	path := filepath.Join(t.TempDir(), "test.log")
	if err := SetLogFile(path); err != nil {
		t.Fatalf("SetLogFile() unexpected error: %v", err)
	}
	defer Close()

	Info("written to both")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to both") {
		t.Error("log file should contain the message")
	}
	if !strings.Contains(buf.String(), "written to both") {
		t.Error("primary output should contain the message")
	}
}

func TestSetLogFile_BadPath(t *testing.T) {
	err := SetLogFile("/nonexistent-dir-xyz/test.log")
	if err == nil {
		Close()
		t.Fatal("SetLogFile() expected error for bad path, got nil")
	}
}
