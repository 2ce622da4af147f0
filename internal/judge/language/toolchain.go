package language

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Gooit/Interpreter/internal/judge/cases"
	"github.com/Gooit/Interpreter/internal/judge/sandbox/engine"
	"github.com/Gooit/Interpreter/internal/judge/sandbox/observer"
	"github.com/Gooit/Interpreter/internal/judge/sandbox/result"
	"github.com/Gooit/Interpreter/internal/judge/sandbox/spec"
	"github.com/Gooit/Interpreter/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	defaultCompileTimeout = 10 * time.Second
	defaultOutputLimitKB  = 64 * 1024

	// maxCompileOutput caps the diagnostic kept from the compiler.
	maxCompileOutput = 64 * 1024
	compileLogName   = "compile.log"
)

// Deps are the collaborators shared by all engines.
type Deps struct {
	Sandbox engine.Engine
	Metrics observer.MetricsRecorder
	// OutputLimitKB caps what a judged program may write to its output file.
	OutputLimitKB  int64
	CompileTimeout time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Metrics == nil {
		d.Metrics = observer.Noop{}
	}
	if d.OutputLimitKB <= 0 {
		d.OutputLimitKB = defaultOutputLimitKB
	}
	if d.CompileTimeout <= 0 {
		d.CompileTimeout = defaultCompileTimeout
	}
	return d
}

// toolchain carries the compile and run mechanics every variant shares.
type toolchain struct {
	lang Spec
	deps Deps
	// compileMu serializes write-source-and-compile for this language.
	compileMu sync.Mutex
}

func newToolchain(lang Spec, deps Deps) *toolchain {
	deps = deps.withDefaults()
	if lang.CompileTimeout <= 0 {
		lang.CompileTimeout = deps.CompileTimeout
	}
	return &toolchain{lang: lang, deps: deps}
}

func (t *toolchain) Language() string {
	return t.lang.ID
}

// Compile implements Engine.
func (t *toolchain) Compile(ctx context.Context, ws *Workspace, source string) (CompileResult, error) {
	t.compileMu.Lock()
	defer t.compileMu.Unlock()

	start := time.Now()
	if err := os.WriteFile(ws.Path(t.lang.SourceFile), []byte(source), 0644); err != nil {
		return CompileResult{}, fmt.Errorf("write source: %w", err)
	}
	if t.lang.CompileCmd == "" {
		return CompileResult{OK: true}, nil
	}
	cmd, err := expandCommand(t.lang.CompileCmd, t.lang, ws.Dir)
	if err != nil {
		return CompileResult{}, err
	}

	// Compilers report on either stream, so both land in one log.
	logPath := ws.Path(compileLogName)
	compileLog, err := os.Create(logPath)
	if err != nil {
		return CompileResult{}, fmt.Errorf("create compile log: %w", err)
	}
	defer compileLog.Close()

	outcome, err := t.deps.Sandbox.Run(ctx, spec.RunSpec{
		Cmd:    cmd,
		Dir:    ws.Dir,
		Env:    processEnv(t.lang, ws.Dir),
		Stdout: compileLog,
		Stderr: compileLog,
		Limits: spec.ResourceLimit{WallTimeMs: t.lang.CompileTimeout.Milliseconds()},
	})
	elapsed := time.Since(start)
	if err != nil {
		t.deps.Metrics.ObserveCompile(ctx, t.lang.ID, false, elapsed)
		return CompileResult{}, fmt.Errorf("launch compiler: %w", err)
	}

	output := engine.ReadLimitedFile(logPath, maxCompileOutput)
	if output == "" {
		output = outcome.Stderr
	}
	res := CompileResult{Elapsed: elapsed, Output: output}
	switch outcome.Class {
	case result.ClassNormal:
		res.OK = true
	case result.ClassTimeLimit:
		res.TimedOut = true
		res.Output = fmt.Sprintf("compilation timed out after %s", t.lang.CompileTimeout)
	case result.ClassSystemError:
		t.deps.Metrics.ObserveCompile(ctx, t.lang.ID, false, elapsed)
		return CompileResult{}, fmt.Errorf("compiler aborted: %s", outcome.Error)
	}
	if !res.OK && res.Output == "" {
		res.Output = fmt.Sprintf("compiler exited with code %d", outcome.ExitCode)
	}
	t.deps.Metrics.ObserveCompile(ctx, t.lang.ID, res.OK, elapsed)
	return res, nil
}

// RunCase implements Engine with the language's configured scaling.
func (t *toolchain) RunCase(ctx context.Context, ws *Workspace, sub Submission, c cases.Case) result.Outcome {
	return t.runCase(ctx, ws, sub, c, limitScale{time: t.lang.TimeMultiplier, memory: t.lang.MemoryMultiplier})
}

func (t *toolchain) runCase(ctx context.Context, ws *Workspace, sub Submission, c cases.Case, scale limitScale) result.Outcome {
	outcome := t.execute(ctx, ws, sub, c, scale)
	t.deps.Metrics.ObserveRun(ctx, t.lang.ID, outcome.Class, outcome.TimeMs, outcome.MemoryKB)
	return outcome
}

func (t *toolchain) execute(ctx context.Context, ws *Workspace, sub Submission, c cases.Case, scale limitScale) result.Outcome {
	in, err := os.Open(c.InputPath)
	if err != nil {
		return t.systemFailure(ctx, sub, c, fmt.Errorf("open input: %w", err))
	}
	defer in.Close()
	out, err := os.Create(ws.OutputPath(c.Index))
	if err != nil {
		return t.systemFailure(ctx, sub, c, fmt.Errorf("create output: %w", err))
	}
	defer out.Close()

	cmd, err := expandCommand(t.lang.RunCmd, t.lang, ws.Dir)
	if err != nil {
		return t.systemFailure(ctx, sub, c, err)
	}
	limits := applyMultipliers(spec.ResourceLimit{
		TimeMs:   sub.TimeLimitMs,
		MemoryKB: sub.MemoryLimitKB,
		OutputKB: t.deps.OutputLimitKB,
	}, scale)

	outcome, err := t.deps.Sandbox.Run(ctx, spec.RunSpec{
		Cmd:    cmd,
		Dir:    ws.Dir,
		Env:    processEnv(t.lang, ws.Dir),
		Stdin:  in,
		Stdout: out,
		Limits: limits,
	})
	if err != nil {
		return t.systemFailure(ctx, sub, c, err)
	}
	return outcome
}

func (t *toolchain) systemFailure(ctx context.Context, sub Submission, c cases.Case, err error) result.Outcome {
	logger.Error(ctx, "case run failed",
		zap.String("language", t.lang.ID),
		zap.String("problem_id", sub.ProblemID),
		zap.Int("case", c.Index),
		zap.Error(err),
	)
	return result.SystemFailure(err)
}
