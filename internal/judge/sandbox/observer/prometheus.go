package observer

import (
	"context"
	"time"

	"github.com/Gooit/Interpreter/internal/judge/sandbox/result"
	"github.com/Gooit/Interpreter/internal/judge/status"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus records judge metrics into a prometheus registry.
type Prometheus struct {
	compileTotal    *prometheus.CounterVec
	compileDuration *prometheus.HistogramVec
	runTotal        *prometheus.CounterVec
	runTime         *prometheus.HistogramVec
	runMemory       *prometheus.HistogramVec
	verdictTotal    *prometheus.CounterVec
	judgeDuration   *prometheus.HistogramVec

	InFlight      prometheus.Gauge
	QueueRejected prometheus.Counter
	RateLimitHits prometheus.Counter
	CasePackFetch *prometheus.CounterVec
}

// NewPrometheus registers the judge collectors on reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		compileTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "judge_compile_total",
			Help: "Total number of compilations by outcome",
		}, []string{"language", "outcome"}),
		compileDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "judge_compile_duration_ms",
			Help:    "Compilation wall time in milliseconds",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"language"}),
		runTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "judge_case_runs_total",
			Help: "Total number of test case executions by class",
		}, []string{"language", "class"}),
		runTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "judge_case_cpu_time_ms",
			Help:    "CPU time per test case execution in milliseconds",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"language"}),
		runMemory: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "judge_case_memory_kb",
			Help:    "Peak memory per test case execution in KB",
			Buckets: []float64{1024, 4096, 16384, 65536, 131072, 262144},
		}, []string{"language"}),
		verdictTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "judge_verdicts_total",
			Help: "Total number of submissions by final verdict",
		}, []string{"language", "verdict"}),
		judgeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "judge_submission_duration_ms",
			Help:    "End to end judging time in milliseconds",
			Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		}, []string{"language"}),
		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "judge_inflight_submissions",
			Help: "Number of submissions currently being judged",
		}),
		QueueRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "judge_queue_rejected_total",
			Help: "Submissions rejected because no judge slot freed up in time",
		}),
		RateLimitHits: f.NewCounter(prometheus.CounterOpts{
			Name: "judge_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		}),
		CasePackFetch: f.NewCounterVec(prometheus.CounterOpts{
			Name: "judge_case_pack_fetch_total",
			Help: "Test case pack downloads by outcome",
		}, []string{"outcome"}),
	}
}

func (p *Prometheus) ObserveCompile(_ context.Context, language string, ok bool, elapsed time.Duration) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	p.compileTotal.WithLabelValues(language, outcome).Inc()
	p.compileDuration.WithLabelValues(language).Observe(float64(elapsed.Milliseconds()))
}

func (p *Prometheus) ObserveRun(_ context.Context, language string, class result.Class, timeMs int64, memoryKB int64) {
	p.runTotal.WithLabelValues(language, class.String()).Inc()
	p.runTime.WithLabelValues(language).Observe(float64(timeMs))
	p.runMemory.WithLabelValues(language).Observe(float64(memoryKB))
}

func (p *Prometheus) ObserveVerdict(_ context.Context, language string, verdict status.Status, elapsed time.Duration) {
	p.verdictTotal.WithLabelValues(language, verdict.Code()).Inc()
	p.judgeDuration.WithLabelValues(language).Observe(float64(elapsed.Milliseconds()))
}

// Admitted, Finished and Rejected track the judge admission limiter.
func (p *Prometheus) Admitted() { p.InFlight.Inc() }
func (p *Prometheus) Finished() { p.InFlight.Dec() }
func (p *Prometheus) Rejected() { p.QueueRejected.Inc() }

// RateLimited counts a request refused by the rate limiter.
func (p *Prometheus) RateLimited() { p.RateLimitHits.Inc() }

// CasePackFetched counts one case pack download by outcome.
func (p *Prometheus) CasePackFetched(outcome string) {
	p.CasePackFetch.WithLabelValues(outcome).Inc()
}
