// Package language holds the per-language engines, the compile and run
// toolchain they share, and the pipeline that judges one submission.
package language

import (
	"fmt"
	"strings"
	"time"

	"github.com/Gooit/Interpreter/internal/judge/scan"
)

// Kind selects the concrete engine variant for a language.
type Kind string

const (
	KindC      Kind = "c"
	KindPython Kind = "python"
	KindJava   Kind = "java"
	KindGo     Kind = "go"
)

// Spec describes how one language is compiled and run.
//
// Command templates are split with shell quoting rules after expanding
// {src} and {bin} (file names inside the workspace) and {dir} (the
// workspace's absolute path). Env entries are expanded the same way.
type Spec struct {
	ID      string   `yaml:"id"`
	Aliases []string `yaml:"aliases"`
	Name    string   `yaml:"name"`
	Kind    Kind     `yaml:"kind"`

	SourceFile   string   `yaml:"sourceFile"`
	ArtifactFile string   `yaml:"artifactFile"`
	CompileCmd   string   `yaml:"compileCmd"`
	RunCmd       string   `yaml:"runCmd"`
	Env          []string `yaml:"env"`

	TimeMultiplier   float64       `yaml:"timeMultiplier"`
	MemoryMultiplier float64       `yaml:"memoryMultiplier"`
	CompileTimeout   time.Duration `yaml:"compileTimeout"`
	// ScanPolicy overrides the variant's default danger scan; see scan.ForPolicy.
	ScanPolicy string `yaml:"scanPolicy"`
}

// DefaultSpecs returns the built-in languages.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			ID:           "gcc",
			Aliases:      []string{"c"},
			Name:         "C (gcc)",
			Kind:         KindC,
			SourceFile:   "main.c",
			ArtifactFile: "main",
			CompileCmd:   "gcc -O2 -std=c11 -o {bin} {src} -lm",
			RunCmd:       "{dir}/{bin}",
		},
		{
			ID:           "g++",
			Aliases:      []string{"cpp", "c++"},
			Name:         "C++ (g++)",
			Kind:         KindC,
			SourceFile:   "main.cpp",
			ArtifactFile: "main",
			CompileCmd:   "g++ -O2 -std=c++17 -o {bin} {src}",
			RunCmd:       "{dir}/{bin}",
		},
		{
			ID:           "python",
			Aliases:      []string{"python3"},
			Name:         "Python 3",
			Kind:         KindPython,
			SourceFile:   "main.py",
			ArtifactFile: "main.pyc",
			CompileCmd:   `python3 -c "import py_compile; py_compile.compile('{src}', cfile='{bin}', doraise=True)"`,
			RunCmd:       "python3 {dir}/{bin}",
		},
		{
			ID:           "java",
			Name:         "Java",
			Kind:         KindJava,
			SourceFile:   "Main.java",
			ArtifactFile: "Main.class",
			CompileCmd:   "javac -encoding UTF-8 {src}",
			RunCmd:       "java -cp {dir} Main",
		},
		{
			ID:           "go",
			Aliases:      []string{"golang"},
			Name:         "Go",
			Kind:         KindGo,
			SourceFile:   "main.go",
			ArtifactFile: "main",
			CompileCmd:   "go build -o {bin} {src}",
			RunCmd:       "{dir}/{bin}",
			Env:          []string{"GOCACHE={dir}/.gocache", "GOPATH={dir}/.gopath", "CGO_ENABLED=0"},
		},
	}
}

// MergeSpecs overlays configured languages on the defaults. An override with
// a known id replaces non-zero fields of that language; unknown ids are added.
func MergeSpecs(defaults, overrides []Spec) []Spec {
	merged := make([]Spec, len(defaults))
	copy(merged, defaults)
	index := make(map[string]int, len(merged))
	for i, s := range merged {
		index[s.ID] = i
	}
	for _, o := range overrides {
		i, ok := index[o.ID]
		if !ok {
			index[o.ID] = len(merged)
			merged = append(merged, o)
			continue
		}
		merged[i] = overlay(merged[i], o)
	}
	return merged
}

func overlay(base, o Spec) Spec {
	if len(o.Aliases) > 0 {
		base.Aliases = o.Aliases
	}
	if o.Name != "" {
		base.Name = o.Name
	}
	if o.Kind != "" {
		base.Kind = o.Kind
	}
	if o.SourceFile != "" {
		base.SourceFile = o.SourceFile
	}
	if o.ArtifactFile != "" {
		base.ArtifactFile = o.ArtifactFile
	}
	if o.CompileCmd != "" {
		base.CompileCmd = o.CompileCmd
	}
	if o.RunCmd != "" {
		base.RunCmd = o.RunCmd
	}
	if len(o.Env) > 0 {
		base.Env = o.Env
	}
	if o.TimeMultiplier > 0 {
		base.TimeMultiplier = o.TimeMultiplier
	}
	if o.MemoryMultiplier > 0 {
		base.MemoryMultiplier = o.MemoryMultiplier
	}
	if o.CompileTimeout > 0 {
		base.CompileTimeout = o.CompileTimeout
	}
	if o.ScanPolicy != "" {
		base.ScanPolicy = o.ScanPolicy
	}
	return base
}

// Validate checks that the spec can produce an engine.
func (s Spec) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("language id is required")
	}
	if strings.ContainsAny(s.ID, `/\`) {
		return fmt.Errorf("language %s: id must not contain path separators", s.ID)
	}
	switch s.Kind {
	case KindC, KindPython, KindJava, KindGo:
	default:
		return fmt.Errorf("language %s: unknown kind %q", s.ID, s.Kind)
	}
	if s.SourceFile == "" || strings.ContainsAny(s.SourceFile, `/\`) {
		return fmt.Errorf("language %s: invalid source file %q", s.ID, s.SourceFile)
	}
	if s.RunCmd == "" {
		return fmt.Errorf("language %s: run command is required", s.ID)
	}
	if _, err := expandCommand(s.RunCmd, s, "/"); err != nil {
		return fmt.Errorf("language %s: run command: %w", s.ID, err)
	}
	if s.CompileCmd != "" {
		if _, err := expandCommand(s.CompileCmd, s, "/"); err != nil {
			return fmt.Errorf("language %s: compile command: %w", s.ID, err)
		}
	}
	if s.ScanPolicy != "" {
		if _, err := scan.ForPolicy(s.ScanPolicy); err != nil {
			return fmt.Errorf("language %s: %w", s.ID, err)
		}
	}
	return nil
}
