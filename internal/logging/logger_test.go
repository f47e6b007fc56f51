package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func restoreDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestSetup_ConsoleAndFile(t *testing.T) {
	restoreDefault(t)

	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "FakePrinter.log")
	closer, err := Setup(Options{Level: "info", Output: &console, File: path})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	slog.Debug("debug only")
	slog.Info("visible", "layer", 3)

	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	if strings.Contains(console.String(), "debug only") {
		t.Errorf("console received debug record:\n%s", console.String())
	}
	if !strings.Contains(console.String(), "visible") {
		t.Errorf("console missing info record:\n%s", console.String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("log file has %d lines, want 2:\n%s", len(lines), data)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatalf("log file line is not JSON: %v", err)
	}
	if rec["msg"] != "visible" || rec["layer"] != float64(3) {
		t.Errorf("file record = %v", rec)
	}
}

func TestSetup_BadFile(t *testing.T) {
	restoreDefault(t)
	path := filepath.Join(t.TempDir(), "missing", "dir", "x.log")
	if _, err := Setup(Options{File: path, Output: &bytes.Buffer{}}); err == nil {
		t.Error("Setup() error = nil, want open error")
	}
}

func TestFromContext(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer
	if _, err := Setup(Options{Format: "json", Output: &buf}); err != nil {
		t.Fatal(err)
	}

	ctx := WithRunID(context.Background(), "run-42")
	ctx = context.WithValue(ctx, middleware.RequestIDKey, "req-7")
	WithFields(ctx, "row", 2).Info("hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	for k, want := range map[string]any{"run_id": "run-42", "request_id": "req-7", "row": float64(2)} {
		if rec[k] != want {
			t.Errorf("%s = %v, want %v", k, rec[k], want)
		}
	}
}

func TestFromContext_Plain(t *testing.T) {
	if RunID(context.Background()) != "" {
		t.Error("RunID of empty context should be empty")
	}
	if FromContext(context.Background()) == nil {
		t.Error("FromContext returned nil")
	}
}
