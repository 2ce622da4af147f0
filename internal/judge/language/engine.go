package language

import (
	"context"
	"time"

	"github.com/Gooit/Interpreter/internal/judge/cases"
	"github.com/Gooit/Interpreter/internal/judge/sandbox/result"
)

// Submission is one immutable judging request.
type Submission struct {
	Language      string
	Source        string
	ProblemID     string
	SolutionID    string
	TimeLimitMs   int64
	MemoryLimitKB int64
}

// CompileResult is the outcome of the compile step. OK false carries the
// diagnostic in Output.
type CompileResult struct {
	OK       bool
	Output   string
	TimedOut bool
	Elapsed  time.Duration
}

// Engine is the capability set of one language. One instance is shared by
// every submission of that language.
type Engine interface {
	Language() string
	// Scan reports whether the source passes the language's danger check.
	Scan(source string) bool
	// Compile writes the source into ws and builds the artifact. An error
	// means the compiler could not be run at all.
	Compile(ctx context.Context, ws *Workspace, source string) (CompileResult, error)
	// RunCase executes the artifact on one case. Infrastructure failures
	// are reported as a system error outcome.
	RunCase(ctx context.Context, ws *Workspace, sub Submission, c cases.Case) result.Outcome
}
