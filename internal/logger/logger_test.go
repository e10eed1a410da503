package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewWritesJSONToExtraOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	log, err := New(true, false, path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	log.Debug("hidden below info")
	log.Info("recommendation completed", zap.Int("ranked", 3))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %s", len(lines), data)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if entry["step"] != "recommendation completed" || entry["level"] != "info" || entry["ranked"] != float64(3) {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewDebugLevel(t *testing.T) {
	t.Parallel()

	log, err := New(false, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !log.Core().Enabled(zap.DebugLevel) {
		t.Fatal("debug logger must enable debug level")
	}
}
