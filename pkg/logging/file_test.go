package logging

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// newTestLogger opens a file logger in a temp dir and returns it with the
// log path
func newTestLogger(t *testing.T, config FileLoggerConfig) (*FileLogger, string) {
	t.Helper()
	if config.Path == "" {
		config.Path = filepath.Join(t.TempDir(), "archiver.log")
	}
	logger, err := NewFileLogger(config)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	return logger, config.Path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

func TestNewFileLogger_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera", "logs", "archiver.log")
	logger, _ := newTestLogger(t, FileLoggerConfig{Path: path, Format: FormatText})
	defer logger.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestFileLogger_LevelFilter(t *testing.T) {
	tests := []struct {
		level Level
		want  []string
	}{
		{DebugLevel, []string{"scanning", "planned", "slow probe", "encode failed"}},
		{InfoLevel, []string{"planned", "slow probe", "encode failed"}},
		{WarnLevel, []string{"slow probe", "encode failed"}},
		{ErrorLevel, []string{"encode failed"}},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			logger, path := newTestLogger(t, FileLoggerConfig{Format: FormatText, Level: tt.level})
			ctx := context.Background()

			logger.Debug(ctx, "scanning", nil)
			logger.Info(ctx, "planned", nil)
			logger.Warn(ctx, "slow probe", nil)
			logger.Error(ctx, "encode failed", nil, nil)
			logger.Close()

			lines := readLines(t, path)
			if len(lines) != len(tt.want) {
				t.Fatalf("got %d lines, want %d: %q", len(lines), len(tt.want), lines)
			}
			for i, msg := range tt.want {
				if !strings.Contains(lines[i], msg) {
					t.Errorf("line %d = %q, want %q", i, lines[i], msg)
				}
			}
		})
	}
}

func TestFileLogger_TextFormat(t *testing.T) {
	logger, path := newTestLogger(t, FileLoggerConfig{Format: FormatText, Level: InfoLevel})
	logger.Error(context.Background(), "Transcode failed", errors.New("exit status 1"), Fields{
		"path":   "/cam/2023/01/15/a.mp4",
		"output": "/cam/archived/2023/01/15/archived-20230115120000.mp4",
	})
	logger.Close()

	lines := readLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("got %d lines", len(lines))
	}
	line := lines[0]
	for _, want := range []string{
		"[ERROR] Transcode failed",
		`error="exit status 1"`,
		" output=/cam/archived/2023/01/15/archived-20230115120000.mp4 path=/cam/2023/01/15/a.mp4",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("line missing %q: %s", want, line)
		}
	}
}

func TestFileLogger_JSONFormat(t *testing.T) {
	logger, path := newTestLogger(t, FileLoggerConfig{Format: FormatJSON, Level: InfoLevel})
	logger.WithFields(Fields{"run_id": "run-1"}).Info(context.Background(), "Moved to trash", Fields{
		"reason": "archive exists",
	})
	logger.Close()

	lines := readLines(t, path)
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("invalid JSON %q: %v", lines[0], err)
	}

	want := map[string]string{
		"level":   "INFO",
		"message": "Moved to trash",
		"run_id":  "run-1",
		"reason":  "archive exists",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %q", k, entry[k], v)
		}
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("timestamp missing")
	}
}

func TestFileLogger_Rotation(t *testing.T) {
	logger, path := newTestLogger(t, FileLoggerConfig{
		Format:     FormatText,
		Level:      InfoLevel,
		MaxSize:    100,
		MaxBackups: 2,
	})

	ctx := context.Background()
	for i := 0; i < 20; i++ {
		logger.Info(ctx, "Transcoding /cam/2023/01/15/REO_driveway_20230115120000.mp4", nil)
	}
	logger.Close()

	for _, p := range []string{path, path + ".1", path + ".2"} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s missing after rotation: %v", filepath.Base(p), err)
		}
	}
	if _, err := os.Stat(path + ".3"); err == nil {
		t.Error("backups beyond MaxBackups kept")
	}
}

func TestFileLogger_WithFieldsSharesFile(t *testing.T) {
	logger, path := newTestLogger(t, FileLoggerConfig{Format: FormatText, Level: InfoLevel})

	ctx := context.Background()
	child := logger.WithFields(Fields{"run_id": "abc"})

	logger.Info(ctx, "parent line", nil)
	child.Info(ctx, "child line", nil)

	// Closing the parent closes the shared file for the child too
	logger.Close()
	child.Info(ctx, "after close", nil)

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[1], "run_id=abc") {
		t.Errorf("child line should carry run_id: %q", lines[1])
	}
	if strings.Contains(lines[0], "run_id") {
		t.Errorf("parent line should not carry run_id: %q", lines[0])
	}
}

func TestFileLogger_ConcurrentWrites(t *testing.T) {
	logger, path := newTestLogger(t, FileLoggerConfig{Format: FormatJSON, Level: InfoLevel})

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			child := logger.WithFields(Fields{"worker": id})
			for i := 0; i < 50; i++ {
				child.Info(context.Background(), "progress", Fields{"percent": i * 2})
			}
		}(g)
	}
	wg.Wait()
	logger.Close()

	lines := readLines(t, path)
	if len(lines) != 500 {
		t.Fatalf("Expected 500 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !json.Valid([]byte(line)) {
			t.Fatalf("interleaved line: %q", line)
		}
	}
}

func TestNullLogger(t *testing.T) {
	var logger Logger = NewNullLogger()
	ctx := context.Background()

	logger.Debug(ctx, "debug", nil)
	logger.Info(ctx, "info", nil)
	logger.Warn(ctx, "warn", nil)
	logger.Error(ctx, "error", errors.New("boom"), nil)

	if logger.WithFields(Fields{"key": "value"}) == nil {
		t.Error("WithFields should return a logger")
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"Warn", WarnLevel},
		{"warning", WarnLevel},
		{"ERROR", ErrorLevel},
		{"verbose", InfoLevel},
		{"", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLevel_String(t *testing.T) {
	tests := map[Level]string{
		DebugLevel: "DEBUG",
		InfoLevel:  "INFO",
		WarnLevel:  "WARN",
		ErrorLevel: "ERROR",
		Level(99):  "UNKNOWN",
	}

	for level, want := range tests {
		if got := level.String(); got != want {
			t.Errorf("Level(%d).String() = %q, want %q", int(level), got, want)
		}
	}
}
