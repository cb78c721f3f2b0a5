package logging

import (
	"os"
	"strings"
	"testing"
)

func TestLoggerWritesLevelsToFile(t *testing.T) {
	projectDir := t.TempDir()
	logger, err := New(projectDir, Options{Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Printf("ensured %d modifiers\n", 3)
	logger.Warnf("asset %s missing", "BP_AutoUV")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(logger.Path())
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, `"msg":"ensured 3 modifiers"`) {
		t.Fatalf("info line missing or untrimmed: %s", text)
	}
	if !strings.Contains(text, `"level":"warn"`) {
		t.Fatalf("warn level missing: %s", text)
	}
}

func TestNopLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Printf("nil receiver")
	Nop().Errorf("discarded %d", 1)
	if Nop().Path() != "" {
		t.Fatalf("nop logger should have no path")
	}
}
