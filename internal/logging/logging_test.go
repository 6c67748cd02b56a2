package logging_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ossyrian/rezparse/internal/logging"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"trace", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"fatal", slog.LevelError},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := logging.ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetup(t *testing.T) {
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil))) })

	var console bytes.Buffer
	dir := t.TempDir()

	logger, err := logging.Setup(&console, "warn", dir)
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}

	logger.Info("hidden")
	logger.Warn("shown", "entry", "LOGO.pig")

	if out := console.String(); strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("console output = %q", out)
	}

	files, err := filepath.Glob(filepath.Join(dir, "rezparse_*.log"))
	if err != nil || len(files) != 1 {
		t.Fatalf("log files = %v, err = %v", files, err)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if !strings.Contains(string(data), `"entry":"LOGO.pig"`) {
		t.Errorf("log file = %q", data)
	}
}
