// Package observer defines metrics hooks for compile, run and judge phases.
package observer

import (
	"context"
	"time"

	"github.com/Gooit/Interpreter/internal/judge/sandbox/result"
	"github.com/Gooit/Interpreter/internal/judge/status"
)

// MetricsRecorder records per-phase judge metrics.
type MetricsRecorder interface {
	ObserveCompile(ctx context.Context, language string, ok bool, elapsed time.Duration)
	ObserveRun(ctx context.Context, language string, class result.Class, timeMs int64, memoryKB int64)
	ObserveVerdict(ctx context.Context, language string, verdict status.Status, elapsed time.Duration)
}

// Noop discards every observation.
type Noop struct{}

func (Noop) ObserveCompile(context.Context, string, bool, time.Duration)         {}
func (Noop) ObserveRun(context.Context, string, result.Class, int64, int64)       {}
func (Noop) ObserveVerdict(context.Context, string, status.Status, time.Duration) {}
