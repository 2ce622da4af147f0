package language

import (
	"context"
	"fmt"

	"github.com/Gooit/Interpreter/internal/judge/cases"
	"github.com/Gooit/Interpreter/internal/judge/sandbox/result"
	"github.com/Gooit/Interpreter/internal/judge/scan"
)

// gate applies a danger scan.
type gate struct {
	scanner scan.Scanner
}

func (g gate) Scan(source string) bool { return g.scanner.Allow(source) }

// cEngine serves C and C++. Shell escapes through system() are rejected.
type cEngine struct {
	*toolchain
	gate
}

func newCEngine(tc *toolchain, override scan.Scanner) *cEngine {
	scanner := override
	if scanner == nil {
		scanner = scan.ForbiddenToken{Tokens: []string{"system"}}
	}
	return &cEngine{toolchain: tc, gate: gate{scanner: scanner}}
}

// pythonLimitScale is the interpreter's allowance over the submitted limits.
const pythonLimitScale = 2.0

// pythonEngine runs byte-compiled source under scaled limits. Imports must
// come from an allow-list.
type pythonEngine struct {
	*toolchain
	gate
}

func newPythonEngine(tc *toolchain, override scan.Scanner) *pythonEngine {
	scanner := override
	if scanner == nil {
		scanner = scan.ImportAllowList{Keyword: "import", Modules: scan.PythonModuleSet()}
	}
	return &pythonEngine{toolchain: tc, gate: gate{scanner: scanner}}
}

// RunCase doubles time and memory unless the language configures its own factors.
func (e *pythonEngine) RunCase(ctx context.Context, ws *Workspace, sub Submission, c cases.Case) result.Outcome {
	scale := limitScale{time: e.lang.TimeMultiplier, memory: e.lang.MemoryMultiplier}
	return e.runCase(ctx, ws, sub, c, scale.orDefault(limitScale{time: pythonLimitScale, memory: pythonLimitScale}))
}

// javaEngine has no source restrictions by default.
type javaEngine struct {
	*toolchain
	gate
}

func newJavaEngine(tc *toolchain, override scan.Scanner) *javaEngine {
	scanner := override
	if scanner == nil {
		scanner = scan.AllowAll
	}
	return &javaEngine{toolchain: tc, gate: gate{scanner: scanner}}
}

// goEngine rejects imports of system facing standard packages.
type goEngine struct {
	*toolchain
	gate
}

func newGoEngine(tc *toolchain, override scan.Scanner) *goEngine {
	scanner := override
	if scanner == nil {
		scanner = scan.QuotedPackageDenyList{Packages: scan.GoPackages}
	}
	return &goEngine{toolchain: tc, gate: gate{scanner: scanner}}
}

// NewEngine builds the variant selected by lang.Kind.
func NewEngine(lang Spec, deps Deps) (Engine, error) {
	if err := lang.Validate(); err != nil {
		return nil, err
	}
	if deps.Sandbox == nil {
		return nil, fmt.Errorf("language %s: sandbox engine is required", lang.ID)
	}
	var override scan.Scanner
	if lang.ScanPolicy != "" {
		scanner, err := scan.ForPolicy(lang.ScanPolicy)
		if err != nil {
			return nil, fmt.Errorf("language %s: %w", lang.ID, err)
		}
		override = scanner
	}
	tc := newToolchain(lang, deps)
	switch lang.Kind {
	case KindC:
		return newCEngine(tc, override), nil
	case KindPython:
		return newPythonEngine(tc, override), nil
	case KindJava:
		return newJavaEngine(tc, override), nil
	case KindGo:
		return newGoEngine(tc, override), nil
	default:
		return nil, fmt.Errorf("language %s: unknown kind %q", lang.ID, lang.Kind)
	}
}
