// Package service admits submissions and runs them through the judge pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gooit/Interpreter/internal/judge/cases"
	"github.com/Gooit/Interpreter/internal/judge/language"
	"github.com/Gooit/Interpreter/internal/judge/status"
	appErr "github.com/Gooit/Interpreter/pkg/errors"
	"github.com/Gooit/Interpreter/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	defaultMaxConcurrent     = 4
	defaultQueueWait         = 2 * time.Second
	defaultSubmissionTimeout = 2 * time.Minute
	defaultMaxSourceBytes    = 64 * 1024
)

// CaseFetcher makes a problem's cases available locally.
type CaseFetcher interface {
	Ensure(ctx context.Context, problemID string) error
}

// AdmissionMetrics observes the admission limiter.
type AdmissionMetrics interface {
	Admitted()
	Finished()
	Rejected()
}

type noopAdmission struct{}

func (noopAdmission) Admitted() {}
func (noopAdmission) Finished() {}
func (noopAdmission) Rejected() {}

// Config holds service dependencies and settings.
type Config struct {
	Registry          *language.Registry
	Pipeline          *language.Pipeline
	Cases             CaseFetcher
	Metrics           AdmissionMetrics
	MaxConcurrent     int
	QueueWait         time.Duration
	SubmissionTimeout time.Duration
	MaxSourceBytes    int
}

// Service judges submissions synchronously under bounded concurrency.
type Service struct {
	registry          *language.Registry
	pipeline          *language.Pipeline
	cases             CaseFetcher
	metrics           AdmissionMetrics
	limiter           *TokenLimiter
	queueWait         time.Duration
	submissionTimeout time.Duration
	maxSourceBytes    int
}

// NewService creates a new judge service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("language registry is required")
	}
	if cfg.Pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if cfg.Cases == nil {
		return nil, fmt.Errorf("case fetcher is required")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopAdmission{}
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	if cfg.QueueWait <= 0 {
		cfg.QueueWait = defaultQueueWait
	}
	if cfg.SubmissionTimeout <= 0 {
		cfg.SubmissionTimeout = defaultSubmissionTimeout
	}
	if cfg.MaxSourceBytes <= 0 {
		cfg.MaxSourceBytes = defaultMaxSourceBytes
	}
	return &Service{
		registry:          cfg.Registry,
		pipeline:          cfg.Pipeline,
		cases:             cfg.Cases,
		metrics:           cfg.Metrics,
		limiter:           NewTokenLimiter(cfg.MaxConcurrent),
		queueWait:         cfg.QueueWait,
		submissionTimeout: cfg.SubmissionTimeout,
		maxSourceBytes:    cfg.MaxSourceBytes,
	}, nil
}

// Judge runs one submission to a verdict. The returned error is reserved for
// requests that were never judged: invalid input, unknown language, or no
// free judge slot.
func (s *Service) Judge(ctx context.Context, sub language.Submission) (status.Verdict, error) {
	if err := s.validate(sub); err != nil {
		return status.Verdict{}, err
	}
	eng, err := s.registry.Get(sub.Language)
	if err != nil {
		return status.Verdict{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.submissionTimeout)
	defer cancel()
	if err := s.acquireSlot(ctx); err != nil {
		return status.Verdict{}, err
	}
	defer s.releaseSlot()

	if err := s.cases.Ensure(ctx, sub.ProblemID); err != nil {
		logger.Error(ctx, "test cases unavailable", zap.String("problem_id", sub.ProblemID), zap.Error(err))
		return status.Fail(status.SystemError, appErr.GetError(err).Message), nil
	}
	return s.pipeline.Run(ctx, eng, sub), nil
}

// Languages lists the languages the service accepts.
func (s *Service) Languages() []language.Spec {
	return s.registry.Languages()
}

func (s *Service) validate(sub language.Submission) error {
	if sub.Source == "" {
		return appErr.ValidationError("code", "required")
	}
	if len(sub.Source) > s.maxSourceBytes {
		return appErr.Newf(appErr.CodeTooLarge, "source exceeds %d bytes", s.maxSourceBytes)
	}
	if sub.TimeLimitMs <= 0 {
		return appErr.ValidationError("time_limited", "must be positive")
	}
	if sub.MemoryLimitKB <= 0 {
		return appErr.ValidationError("memory_limited", "must be positive")
	}
	return cases.ValidateProblemID(sub.ProblemID)
}

func (s *Service) acquireSlot(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.queueWait)
	defer cancel()
	if err := s.limiter.Acquire(waitCtx); err != nil {
		if ctx.Err() != nil {
			return appErr.Wrap(ctx.Err(), appErr.Timeout)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			s.metrics.Rejected()
			return appErr.New(appErr.JudgeQueueFull).WithMessage("all judge slots are busy")
		}
		return appErr.Wrap(err, appErr.InternalServerError)
	}
	s.metrics.Admitted()
	return nil
}

func (s *Service) releaseSlot() {
	s.limiter.Release()
	s.metrics.Finished()
}
