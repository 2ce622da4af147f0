package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gooit/Interpreter/internal/judge/cases"
	"github.com/Gooit/Interpreter/internal/judge/language"
	"github.com/Gooit/Interpreter/internal/judge/sandbox/result"
	"github.com/Gooit/Interpreter/internal/judge/sandbox/spec"
	"github.com/Gooit/Interpreter/internal/judge/status"
	appErr "github.com/Gooit/Interpreter/pkg/errors"
)

// echoSandbox copies stdin to stdout for runs and blocks compiles on gate.
type echoSandbox struct {
	gate chan struct{}
}

func (s *echoSandbox) Run(ctx context.Context, rs spec.RunSpec) (result.Outcome, error) {
	if rs.Stdin == nil {
		if s.gate != nil {
			select {
			case <-s.gate:
			case <-ctx.Done():
				return result.Outcome{Class: result.ClassSystemError, Error: ctx.Err().Error()}, nil
			}
		}
		return result.Outcome{}, nil
	}
	if _, err := rs.Stdout.ReadFrom(rs.Stdin); err != nil {
		return result.Outcome{}, err
	}
	return result.Outcome{TimeMs: 3, MemoryKB: 512}, nil
}

type fakeFetcher struct {
	err   error
	calls atomic.Int32
}

func (f *fakeFetcher) Ensure(ctx context.Context, problemID string) error {
	f.calls.Add(1)
	return f.err
}

type countingAdmission struct {
	admitted, finished, rejected atomic.Int32
}

func (c *countingAdmission) Admitted() { c.admitted.Add(1) }
func (c *countingAdmission) Finished() { c.finished.Add(1) }
func (c *countingAdmission) Rejected() { c.rejected.Add(1) }

func writeEchoProblem(t *testing.T, root string) {
	t.Helper()
	for _, dir := range []string{"in", "out"} {
		if err := os.MkdirAll(filepath.Join(root, "1", dir), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "1", "in", "0.in"), []byte("hello\n"), 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "1", "out", "0.out"), []byte("hello"), 0644); err != nil {
		t.Fatalf("write output: %v", err)
	}
}

func newTestService(t *testing.T, sb *echoSandbox, fetcher CaseFetcher, admission AdmissionMetrics, maxConcurrent int, queueWait time.Duration) *Service {
	t.Helper()
	caseRoot := t.TempDir()
	writeEchoProblem(t, caseRoot)
	registry, err := language.NewRegistry(language.DefaultSpecs(), func(s language.Spec) (language.Engine, error) {
		return language.NewEngine(s, language.Deps{Sandbox: sb})
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	pipeline := language.NewPipeline(language.PipelineConfig{WorkRoot: t.TempDir()}, cases.Layout{Root: caseRoot}, nil, nil)
	svc, err := NewService(Config{
		Registry:      registry,
		Pipeline:      pipeline,
		Cases:         fetcher,
		Metrics:       admission,
		MaxConcurrent: maxConcurrent,
		QueueWait:     queueWait,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func validSubmission(lang string) language.Submission {
	return language.Submission{
		Language:      lang,
		Source:        "int main(){}",
		ProblemID:     "1",
		SolutionID:    "7",
		TimeLimitMs:   1000,
		MemoryLimitKB: 65536,
	}
}

func TestJudgeAccepted(t *testing.T) {
	fetcher := &fakeFetcher{}
	admission := &countingAdmission{}
	svc := newTestService(t, &echoSandbox{}, fetcher, admission, 2, time.Second)

	verdict, err := svc.Judge(context.Background(), validSubmission("gcc"))
	if err != nil {
		t.Fatalf("judge: %v", err)
	}
	if !verdict.Accepted || verdict.Status != status.Accepted {
		t.Fatalf("expected accepted, got %+v", verdict)
	}
	if fetcher.calls.Load() != 1 {
		t.Fatalf("expected cases to be ensured once, got %d", fetcher.calls.Load())
	}
	if admission.admitted.Load() != 1 || admission.finished.Load() != 1 {
		t.Fatalf("expected one admitted and finished submission")
	}
}

func TestJudgeRejectsInvalidRequests(t *testing.T) {
	svc := newTestService(t, &echoSandbox{}, &fakeFetcher{}, nil, 1, time.Second)

	tests := []struct {
		name string
		mut  func(*language.Submission)
		code appErr.ErrorCode
	}{
		{name: "unknown language", mut: func(s *language.Submission) { s.Language = "cobol" }, code: appErr.LanguageNotSupported},
		{name: "empty code", mut: func(s *language.Submission) { s.Source = "" }, code: appErr.ValidationFailed},
		{name: "zero time limit", mut: func(s *language.Submission) { s.TimeLimitMs = 0 }, code: appErr.ValidationFailed},
		{name: "negative memory", mut: func(s *language.Submission) { s.MemoryLimitKB = -1 }, code: appErr.ValidationFailed},
		{name: "escaping problem id", mut: func(s *language.Submission) { s.ProblemID = "../1" }, code: appErr.ValidationFailed},
		{name: "source too large", mut: func(s *language.Submission) { s.Source = string(make([]byte, defaultMaxSourceBytes+1)) }, code: appErr.CodeTooLarge},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sub := validSubmission("g++")
			tc.mut(&sub)
			_, err := svc.Judge(context.Background(), sub)
			if got := appErr.GetCode(err); got != tc.code {
				t.Fatalf("expected code %d, got %d (%v)", tc.code, got, err)
			}
		})
	}
}

func TestJudgeMissingCasesIsSystemError(t *testing.T) {
	fetcher := &fakeFetcher{err: appErr.Newf(appErr.TestCaseNotFound, "no test cases for problem 1")}
	svc := newTestService(t, &echoSandbox{}, fetcher, nil, 1, time.Second)

	verdict, err := svc.Judge(context.Background(), validSubmission("gcc"))
	if err != nil {
		t.Fatalf("judge: %v", err)
	}
	if verdict.Status != status.SystemError || verdict.Detail == "" {
		t.Fatalf("expected system error verdict, got %+v", verdict)
	}
}

func TestJudgeQueueFull(t *testing.T) {
	gate := make(chan struct{})
	admission := &countingAdmission{}
	svc := newTestService(t, &echoSandbox{gate: gate}, &fakeFetcher{}, admission, 1, 50*time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := svc.Judge(context.Background(), validSubmission("gcc")); err != nil {
			t.Errorf("first judge: %v", err)
		}
	}()
	deadline := time.Now().Add(2 * time.Second)
	for svc.limiter.Available() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("first submission never took the slot")
		}
		time.Sleep(5 * time.Millisecond)
	}

	_, err := svc.Judge(context.Background(), validSubmission("g++"))
	if appErr.GetCode(err) != appErr.JudgeQueueFull {
		t.Fatalf("expected JudgeQueueFull, got %v", err)
	}
	if admission.rejected.Load() != 1 {
		t.Fatalf("expected one rejection, got %d", admission.rejected.Load())
	}
	close(gate)
	wg.Wait()
	if svc.limiter.Available() != 1 {
		t.Fatal("expected slot to be released")
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(Config{}); err == nil {
		t.Fatal("expected error without registry")
	}
}

func TestTokenLimiter(t *testing.T) {
	l := NewTokenLimiter(1)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.Acquire(ctx); err == nil {
		t.Fatal("expected second acquire to time out")
	}
	l.Release()
	l.Release()
	if got := l.Available(); got != 1 {
		t.Fatalf("expected release to be capped at capacity, got %d", got)
	}
	if got := NewTokenLimiter(0).Available(); got != 1 {
		t.Fatalf("expected minimum capacity 1, got %d", got)
	}
}
