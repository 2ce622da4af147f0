package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL       = "http://127.0.0.1:8085"
	DefaultTimeout       = 2 * time.Minute
	DefaultHistoryFile   = ".judge_cli_history"
	DefaultTimeLimitMs   = 1000
	DefaultMemoryLimitKB = 65536
)

// Defaults are applied to submissions that omit their limits.
type Defaults struct {
	TimeLimitMs   int64 `yaml:"timeLimitMs"`
	MemoryLimitKB int64 `yaml:"memoryLimitKB"`
}

// Config holds CLI configuration.
type Config struct {
	BaseURL     string        `yaml:"baseURL"`
	Timeout     time.Duration `yaml:"timeout"`
	HistoryFile string        `yaml:"historyFile"`
	PrettyJSON  *bool         `yaml:"prettyJSON"`
	Defaults    Defaults      `yaml:"defaults"`
}

func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file failed: %w", err)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HistoryFile == "" {
		cfg.HistoryFile = DefaultHistoryFile
	}
	if cfg.PrettyJSON == nil {
		value := true
		cfg.PrettyJSON = &value
	}
	if cfg.Defaults.TimeLimitMs <= 0 {
		cfg.Defaults.TimeLimitMs = DefaultTimeLimitMs
	}
	if cfg.Defaults.MemoryLimitKB <= 0 {
		cfg.Defaults.MemoryLimitKB = DefaultMemoryLimitKB
	}
}
