package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	if err := os.WriteFile(path, []byte("baseURL: http://judge:9000\nprettyJSON: false\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://judge:9000" || *cfg.PrettyJSON {
		t.Fatalf("expected configured values kept, got %+v", cfg)
	}
	if cfg.Timeout != DefaultTimeout || cfg.HistoryFile != DefaultHistoryFile {
		t.Fatalf("expected defaults, got timeout=%s history=%q", cfg.Timeout, cfg.HistoryFile)
	}
	if cfg.Defaults.TimeLimitMs != DefaultTimeLimitMs || cfg.Defaults.MemoryLimitKB != DefaultMemoryLimitKB {
		t.Fatalf("expected default limits, got %+v", cfg.Defaults)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected missing file error")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("timeout: soon\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
