package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Gooit/Interpreter/internal/common/http/middleware"
	"github.com/Gooit/Interpreter/internal/common/storage"
	"github.com/Gooit/Interpreter/internal/judge/language"
	"github.com/Gooit/Interpreter/internal/judge/sandbox/engine"
	"github.com/Gooit/Interpreter/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8085"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 5 * time.Minute
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultWorkRoot        = "/tmp/judge-work"
	defaultCasesRoot       = "data/cases"
	defaultMetricsPath     = "/metrics"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// JudgeConfig holds judge work settings.
type JudgeConfig struct {
	WorkRoot          string        `yaml:"workRoot"`
	KeepWorkspace     bool          `yaml:"keepWorkspace"`
	MaxConcurrent     int           `yaml:"maxConcurrent"`
	QueueWait         time.Duration `yaml:"queueWait"`
	SubmissionTimeout time.Duration `yaml:"submissionTimeout"`
	MaxSourceBytes    int           `yaml:"maxSourceBytes"`
	CompileTimeout    time.Duration `yaml:"compileTimeout"`
	OutputLimitKB     int64         `yaml:"outputLimitKB"`
}

// SandboxConfig holds sandbox engine settings.
type SandboxConfig struct {
	WallTimeFactor  float64 `yaml:"wallTimeFactor"`
	WallTimeExtraMs int64   `yaml:"wallTimeExtraMs"`
	StderrMaxBytes  int64   `yaml:"stderrMaxBytes"`
	RunAsUID        int     `yaml:"runAsUID"`
	RunAsGID        int     `yaml:"runAsGID"`
	CgroupRoot      string  `yaml:"cgroupRoot"`
	EnableCgroup    bool    `yaml:"enableCgroup"`
}

// CasesConfig holds test case store settings.
type CasesConfig struct {
	Root         string        `yaml:"root"`
	FetchTimeout time.Duration `yaml:"fetchTimeout"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// AppConfig holds judge-service config.
type AppConfig struct {
	Server    ServerConfig               `yaml:"server"`
	Logger    logger.Config              `yaml:"logger"`
	Judge     JudgeConfig                `yaml:"judge"`
	Sandbox   SandboxConfig              `yaml:"sandbox"`
	Cases     CasesConfig                `yaml:"cases"`
	MinIO     storage.MinIOConfig        `yaml:"minio"`
	RateLimit middleware.RateLimitConfig `yaml:"rateLimit"`
	Metrics   MetricsConfig              `yaml:"metrics"`
	// Languages override built-in definitions by id or add new ones.
	Languages []language.Spec `yaml:"languages"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Judge.WorkRoot == "" {
		cfg.Judge.WorkRoot = defaultWorkRoot
	}
	if cfg.Cases.Root == "" {
		cfg.Cases.Root = defaultCasesRoot
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = defaultMetricsPath
	}
	if cfg.Sandbox.EnableCgroup && cfg.Sandbox.CgroupRoot == "" {
		return nil, fmt.Errorf("sandbox cgroupRoot is required when enableCgroup is set")
	}
	if cfg.RateLimit.Enabled && cfg.RateLimit.PerIPRPS <= 0 {
		return nil, fmt.Errorf("rateLimit perIPRPS must be positive when enabled")
	}
	return &cfg, nil
}

func (s SandboxConfig) toEngineConfig() engine.Config {
	return engine.Config{
		WallTimeFactor:  s.WallTimeFactor,
		WallTimeExtraMs: s.WallTimeExtraMs,
		StderrMaxBytes:  s.StderrMaxBytes,
		RunAsUID:        s.RunAsUID,
		RunAsGID:        s.RunAsGID,
		CgroupRoot:      s.CgroupRoot,
		EnableCgroup:    s.EnableCgroup,
	}
}

// workspaceOwner hands workspaces to the run-as user so the judged process can write its output.
func (s SandboxConfig) workspaceOwner() language.WorkspaceOwner {
	gid := s.RunAsGID
	if gid <= 0 {
		gid = s.RunAsUID
	}
	return language.WorkspaceOwner{UID: s.RunAsUID, GID: gid}
}
