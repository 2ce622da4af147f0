package engine

import (
	"context"

	"github.com/Gooit/Interpreter/internal/judge/sandbox/result"
	"github.com/Gooit/Interpreter/internal/judge/sandbox/spec"
)

// Engine executes one process under the limits of a RunSpec.
// A non-nil error means the process could not be launched at all.
type Engine interface {
	Run(ctx context.Context, runSpec spec.RunSpec) (result.Outcome, error)
}
