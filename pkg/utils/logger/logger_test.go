package logger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Gooit/Interpreter/pkg/utils/contextkey"
)

func TestNewLoggerWritesContextFields(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "judge.log")
	errPath := filepath.Join(dir, "judge.err.log")

	l, err := NewLogger(Config{Level: "info", Format: "json", OutputPath: outPath, ErrorPath: errPath, Service: "judge"})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	ctx := context.WithValue(context.Background(), contextkey.TraceID, "trace-1")
	ctx = context.WithValue(ctx, contextkey.SolutionID, "42")
	l.WithContext(ctx).Info("verdict ready")
	l.WithContext(ctx).Error("sandbox failed")
	_ = l.Sync()

	out, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output log: %v", err)
	}
	for _, want := range []string{`"msg":"verdict ready"`, `"trace_id":"trace-1"`, `"solution_id":"42"`, `"service":"judge"`} {
		if !strings.Contains(string(out), want) {
			t.Fatalf("expected output log to contain %s, got %s", want, out)
		}
	}

	errOut, err := os.ReadFile(errPath)
	if err != nil {
		t.Fatalf("read error log: %v", err)
	}
	if strings.Contains(string(errOut), "verdict ready") {
		t.Fatalf("info entry leaked into error log: %s", errOut)
	}
	if !strings.Contains(string(errOut), "sandbox failed") {
		t.Fatalf("expected error entry in error log, got %s", errOut)
	}
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	if _, err := NewLogger(Config{Level: "loud"}); err == nil {
		t.Fatal("expected invalid level error")
	}
}

func TestGlobalHelpersWithoutInit(t *testing.T) {
	prev := globalLogger
	globalLogger = nil
	defer func() { globalLogger = prev }()

	Info(context.Background(), "dropped")
	if err := Sync(); err != nil {
		t.Fatalf("expected nil sync error, got %v", err)
	}
}
