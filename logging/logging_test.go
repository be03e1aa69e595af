package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func Test_ParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func Test_NewWithWriter_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelWarn)

	logger.Info("hidden")
	logger.Error("shown", "error", "boom")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered at warn level, got: %s", out)
	}
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "error=boom") {
		t.Errorf("expected error line, got: %s", out)
	}
}

func Test_New_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "valyu.log")

	logger, closeFn, err := New(Options{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	logger.Debug("to file", "query", "q")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %s", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %s", err)
	}
	if !strings.Contains(string(data), "msg=\"to file\"") {
		t.Errorf("expected log line in file, got: %s", data)
	}
}

func Test_New_InvalidLevel(t *testing.T) {
	if _, _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func Test_New_UnwritableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "valyu.log")

	if _, _, err := New(Options{File: path}); err == nil {
		t.Fatal("expected error for log file in missing directory")
	}
}
