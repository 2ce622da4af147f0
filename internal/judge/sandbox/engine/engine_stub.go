//go:build !linux

package engine

import (
	"context"
	"fmt"

	"github.com/Gooit/Interpreter/internal/judge/sandbox/result"
	"github.com/Gooit/Interpreter/internal/judge/sandbox/spec"
)

type stubEngine struct{}

func NewEngine(cfg Config) (Engine, error) {
	return &stubEngine{}, nil
}

func (s *stubEngine) Run(ctx context.Context, runSpec spec.RunSpec) (result.Outcome, error) {
	return result.Outcome{}, fmt.Errorf("sandbox engine is only supported on linux")
}
