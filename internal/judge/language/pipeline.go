package language

import (
	"context"
	"time"

	"github.com/Gooit/Interpreter/internal/judge/cases"
	"github.com/Gooit/Interpreter/internal/judge/compare"
	"github.com/Gooit/Interpreter/internal/judge/sandbox/observer"
	"github.com/Gooit/Interpreter/internal/judge/sandbox/result"
	"github.com/Gooit/Interpreter/internal/judge/status"
	"github.com/Gooit/Interpreter/pkg/utils/logger"

	"go.uber.org/zap"
)

const maxLoggedDiagnostic = 512

// PipelineConfig configures where submissions are built and judged.
type PipelineConfig struct {
	WorkRoot      string
	KeepWorkspace bool
	Owner         WorkspaceOwner
}

// Pipeline drives one submission through scan, compile and the sequential
// run and judge loop. Every failure ends up in the returned verdict.
type Pipeline struct {
	cfg      PipelineConfig
	layout   cases.Layout
	comparer compare.Comparer
	metrics  observer.MetricsRecorder
}

func NewPipeline(cfg PipelineConfig, layout cases.Layout, comparer compare.Comparer, metrics observer.MetricsRecorder) *Pipeline {
	if comparer == nil {
		comparer = compare.FileComparer{}
	}
	if metrics == nil {
		metrics = observer.Noop{}
	}
	return &Pipeline{cfg: cfg, layout: layout, comparer: comparer, metrics: metrics}
}

// Run judges sub with eng.
func (p *Pipeline) Run(ctx context.Context, eng Engine, sub Submission) status.Verdict {
	start := time.Now()
	verdict := p.run(ctx, eng, sub)
	p.metrics.ObserveVerdict(ctx, eng.Language(), verdict.Status, time.Since(start))
	logger.Info(ctx, "submission judged",
		zap.String("language", eng.Language()),
		zap.String("problem_id", sub.ProblemID),
		zap.String("verdict", verdict.Status.Code()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return verdict
}

func (p *Pipeline) run(ctx context.Context, eng Engine, sub Submission) status.Verdict {
	if !eng.Scan(sub.Source) {
		logger.Info(ctx, "source rejected by danger scan", zap.String("language", eng.Language()))
		return status.Fail(status.RuntimeError, "source uses a forbidden facility")
	}

	ws, err := NewWorkspace(p.cfg.WorkRoot, eng.Language(), sub.SolutionID, p.cfg.Owner)
	if err != nil {
		logger.Error(ctx, "create workspace failed", zap.Error(err))
		return status.Fail(status.SystemError, err.Error())
	}
	if !p.cfg.KeepWorkspace {
		defer func() {
			if err := ws.Remove(); err != nil {
				logger.Warn(ctx, "remove workspace failed", zap.String("dir", ws.Dir), zap.Error(err))
			}
		}()
	}

	compiled, err := eng.Compile(ctx, ws, sub.Source)
	if err != nil {
		logger.Error(ctx, "compile step failed", zap.String("language", eng.Language()), zap.Error(err))
		return status.Fail(status.SystemError, err.Error())
	}
	if !compiled.OK {
		logger.Info(ctx, "compile error",
			zap.String("language", eng.Language()),
			zap.String("diagnostic", truncate(compiled.Output, maxLoggedDiagnostic)),
		)
		return status.Fail(status.CompileError, compiled.Output)
	}

	caseList, err := p.layout.List(ctx, sub.ProblemID)
	if err != nil {
		logger.Error(ctx, "list test cases failed", zap.String("problem_id", sub.ProblemID), zap.Error(err))
		return status.Fail(status.SystemError, err.Error())
	}
	if len(caseList) == 0 {
		return status.Fail(status.SystemError, "no test cases")
	}

	var maxTimeMs, maxMemoryKB int64
	for _, c := range caseList {
		outcome := eng.RunCase(ctx, ws, sub, c)
		maxTimeMs = max(maxTimeMs, outcome.TimeMs)
		maxMemoryKB = max(maxMemoryKB, outcome.MemoryKB)
		if outcome.Class != result.ClassNormal {
			return status.Fail(outcome.Class.Status(), outcome.Error)
		}
		if judged := p.comparer.CompareFiles(ctx, c.OutputPath, ws.OutputPath(c.Index)); judged != status.Accepted {
			return status.Fail(judged, "")
		}
	}
	return status.Pass(maxTimeMs, maxMemoryKB)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
