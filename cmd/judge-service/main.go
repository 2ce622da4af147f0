package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	commonmw "github.com/Gooit/Interpreter/internal/common/http/middleware"
	"github.com/Gooit/Interpreter/internal/common/storage"
	"github.com/Gooit/Interpreter/internal/judge/cases"
	"github.com/Gooit/Interpreter/internal/judge/compare"
	"github.com/Gooit/Interpreter/internal/judge/controller"
	"github.com/Gooit/Interpreter/internal/judge/language"
	"github.com/Gooit/Interpreter/internal/judge/sandbox/engine"
	"github.com/Gooit/Interpreter/internal/judge/sandbox/observer"
	"github.com/Gooit/Interpreter/internal/judge/service"
	"github.com/Gooit/Interpreter/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/judge_service.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	sandboxEngine, err := engine.NewEngine(appCfg.Sandbox.toEngineConfig())
	if err != nil {
		logger.Error(context.Background(), "init sandbox engine failed", zap.Error(err))
		return
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observer.NewPrometheus(promRegistry)

	deps := language.Deps{
		Sandbox:        sandboxEngine,
		Metrics:        metrics,
		OutputLimitKB:  appCfg.Judge.OutputLimitKB,
		CompileTimeout: appCfg.Judge.CompileTimeout,
	}
	specs := language.MergeSpecs(language.DefaultSpecs(), appCfg.Languages)
	registry, err := language.NewRegistry(specs, func(s language.Spec) (language.Engine, error) {
		return language.NewEngine(s, deps)
	})
	if err != nil {
		logger.Error(context.Background(), "init language registry failed", zap.Error(err))
		return
	}

	layout := cases.Layout{Root: appCfg.Cases.Root}
	pipeline := language.NewPipeline(language.PipelineConfig{
		WorkRoot:      appCfg.Judge.WorkRoot,
		KeepWorkspace: appCfg.Judge.KeepWorkspace,
		Owner:         appCfg.Sandbox.workspaceOwner(),
	}, layout, compare.FileComparer{}, metrics)

	var objStorage storage.ObjectStorage
	if appCfg.MinIO.Enabled() {
		minioStorage, err := storage.NewMinIOStorage(appCfg.MinIO)
		if err != nil {
			logger.Error(context.Background(), "init minio failed", zap.Error(err))
			return
		}
		objStorage = minioStorage
	} else {
		logger.Info(context.Background(), "object storage disabled, serving local cases only", zap.String("root", layout.Root))
	}
	fetcher := cases.NewPackFetcher(layout, objStorage, cases.FetcherConfig{
		Bucket:  appCfg.MinIO.Bucket,
		Prefix:  appCfg.MinIO.Prefix,
		Timeout: appCfg.Cases.FetchTimeout,
		OnFetch: metrics.CasePackFetched,
	})

	judgeSvc, err := service.NewService(service.Config{
		Registry:          registry,
		Pipeline:          pipeline,
		Cases:             fetcher,
		Metrics:           metrics,
		MaxConcurrent:     appCfg.Judge.MaxConcurrent,
		QueueWait:         appCfg.Judge.QueueWait,
		SubmissionTimeout: appCfg.Judge.SubmissionTimeout,
		MaxSourceBytes:    appCfg.Judge.MaxSourceBytes,
	})
	if err != nil {
		logger.Error(context.Background(), "init judge service failed", zap.Error(err))
		return
	}

	rateLimiter := commonmw.NewRateLimiter(appCfg.RateLimit, metrics.RateLimited)
	var metricsHandler http.Handler
	if appCfg.Metrics.Enabled {
		metricsHandler = promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{Registry: promRegistry})
	}

	httpServer := buildHTTPServer(appCfg, judgeSvc, rateLimiter, metricsHandler)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(context.Background(), "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "judge http server started",
			zap.String("addr", appCfg.Server.Addr),
			zap.Int("languages", len(specs)),
		)
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(context.Background(), "http server shutdown failed", zap.Error(err))
	}
}

func buildHTTPServer(cfg *AppConfig, judger controller.Judger, rateLimiter *commonmw.RateLimiter, metricsHandler http.Handler) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(commonmw.TraceContextMiddleware())
	router.Use(requestLogger())

	judgeController := controller.NewJudgeController(judger)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/languages", judgeController.Languages)
	if metricsHandler != nil {
		router.GET(cfg.Metrics.Path, gin.WrapH(metricsHandler))
	}
	router.POST("/:language/", commonmw.RateLimitMiddleware(rateLimiter), judgeController.Submit)

	return &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		logger.Info(
			c.Request.Context(),
			"request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
