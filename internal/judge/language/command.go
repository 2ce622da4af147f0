package language

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/Gooit/Interpreter/internal/judge/sandbox/spec"

	"github.com/google/shlex"
)

func expandPlaceholders(tpl string, lang Spec, dir string) string {
	expanded := strings.ReplaceAll(tpl, "{src}", lang.SourceFile)
	expanded = strings.ReplaceAll(expanded, "{bin}", lang.ArtifactFile)
	return strings.ReplaceAll(expanded, "{dir}", dir)
}

// expandCommand turns a command template into argv for a workspace.
func expandCommand(tpl string, lang Spec, dir string) ([]string, error) {
	if strings.TrimSpace(tpl) == "" {
		return nil, fmt.Errorf("command template is required")
	}
	fields, err := shlex.Split(expandPlaceholders(tpl, lang, dir))
	if err != nil {
		return nil, fmt.Errorf("parse command template: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("command is empty after expansion")
	}
	return fields, nil
}

// processEnv is the environment handed to compilers and judged programs.
// The service's own environment is not inherited.
func processEnv(lang Spec, dir string) []string {
	env := []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + dir,
		"LANG=C.UTF-8",
	}
	for _, kv := range lang.Env {
		env = append(env, expandPlaceholders(kv, lang, dir))
	}
	return env
}

// limitScale multiplies the submission's limits; zero factors leave them as is.
type limitScale struct {
	time   float64
	memory float64
}

// orDefault fills unset factors from def.
func (s limitScale) orDefault(def limitScale) limitScale {
	if s.time <= 0 {
		s.time = def.time
	}
	if s.memory <= 0 {
		s.memory = def.memory
	}
	return s
}

func applyMultipliers(limits spec.ResourceLimit, scale limitScale) spec.ResourceLimit {
	limits.TimeMs = scaleLimit(limits.TimeMs, scale.time)
	limits.WallTimeMs = scaleLimit(limits.WallTimeMs, scale.time)
	limits.MemoryKB = scaleLimit(limits.MemoryKB, scale.memory)
	return limits
}

func scaleLimit(value int64, multiplier float64) int64 {
	if value <= 0 {
		return 0
	}
	if multiplier <= 0 {
		return value
	}
	return int64(math.Ceil(float64(value) * multiplier))
}
