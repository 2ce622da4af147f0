//go:build linux

package language

import (
	"context"
	"os/exec"
	"testing"

	"github.com/Gooit/Interpreter/internal/judge/sandbox/engine"
	"github.com/Gooit/Interpreter/internal/judge/status"
)

func TestPipelineWithRealToolchains(t *testing.T) {
	sources := map[string]string{
		"python": "a, b = map(int, input().split())\nprint(a + b)\n",
		"gcc":    "#include <stdio.h>\nint main(void){long a,b;scanf(\"%ld %ld\",&a,&b);printf(\"%ld\\n\",a+b);return 0;}\n",
	}
	tools := map[string]string{"python": "python3", "gcc": "gcc"}

	sandbox, err := engine.NewEngine(engine.Config{})
	if err != nil {
		t.Fatalf("new sandbox: %v", err)
	}
	caseRoot := t.TempDir()
	writeAddProblem(t, caseRoot, "1", [][2]int{{1, 2}, {-7, 3}, {123456, 654321}})
	pipeline, _ := newTestPipeline(t, caseRoot)

	for id, source := range sources {
		t.Run(id, func(t *testing.T) {
			if _, err := exec.LookPath(tools[id]); err != nil {
				t.Skipf("%s not installed", tools[id])
			}
			eng, err := NewEngine(specByID(t, id), Deps{Sandbox: sandbox})
			if err != nil {
				t.Fatalf("new engine: %v", err)
			}
			verdict := pipeline.Run(context.Background(), eng, Submission{
				Language:      id,
				Source:        source,
				ProblemID:     "1",
				SolutionID:    "1",
				TimeLimitMs:   2000,
				MemoryLimitKB: 512 * 1024,
			})
			if !verdict.Accepted {
				t.Fatalf("expected accepted, got %s: %s", verdict.Status, verdict.Detail)
			}
		})
	}
}

func TestPipelineRealCompileError(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not installed")
	}
	sandbox, err := engine.NewEngine(engine.Config{})
	if err != nil {
		t.Fatalf("new sandbox: %v", err)
	}
	caseRoot := t.TempDir()
	writeAddProblem(t, caseRoot, "1", [][2]int{{1, 2}})
	pipeline, _ := newTestPipeline(t, caseRoot)
	eng, err := NewEngine(specByID(t, "python"), Deps{Sandbox: sandbox})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	verdict := pipeline.Run(context.Background(), eng, Submission{ProblemID: "1", Source: "def broken(:\n", TimeLimitMs: 1000})
	if verdict.Status != status.CompileError || verdict.Detail == "" {
		t.Fatalf("expected compile error with diagnostic, got %+v", verdict)
	}
}
