package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meld.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"), false)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if !cfg.LeafOnly {
		t.Error("LeafOnly should default to true")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Threshold != 0 {
		t.Errorf("Threshold = %v, want 0 (advisor default applies later)", cfg.Threshold)
	}
}

func TestLoadConfigExplicitMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"), true)
	if err == nil {
		t.Error("explicitly named missing config should be an error")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
collection: /data/collection.anki2
threshold: 1.5
workers: 4
timeout: 2m
leaf_only: false
log_level: debug
fit:
  epochs: 3
  mini_batch_size: 128
  learning_rate: 0.02
  min_cross_day: 64
`)
	cfg, err := loadConfig(path, true)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Collection != "/data/collection.anki2" {
		t.Errorf("Collection = %q", cfg.Collection)
	}
	if cfg.Threshold != 1.5 {
		t.Errorf("Threshold = %v", cfg.Threshold)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d", cfg.Workers)
	}
	if time.Duration(cfg.Timeout) != 2*time.Minute {
		t.Errorf("Timeout = %v", time.Duration(cfg.Timeout))
	}
	if cfg.LeafOnly {
		t.Error("LeafOnly should be false")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.Fit.Epochs != 3 || cfg.Fit.MiniBatchSize != 128 || cfg.Fit.LearningRate != 0.02 || cfg.Fit.MinCrossDay != 64 {
		t.Errorf("Fit = %+v", cfg.Fit)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, "threshold: 1.5\ncollection: /from/file.anki2\n")

	t.Setenv("MELD_COLLECTION", "/from/env.anki2")
	t.Setenv("MELD_THRESHOLD", "3.25")
	t.Setenv("MELD_WORKERS", "8")
	t.Setenv("MELD_TIMEOUT", "90s")
	t.Setenv("MELD_LOG_LEVEL", "warn")

	cfg, err := loadConfig(path, true)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Collection != "/from/env.anki2" {
		t.Errorf("Collection = %q, env should override file", cfg.Collection)
	}
	if cfg.Threshold != 3.25 {
		t.Errorf("Threshold = %v", cfg.Threshold)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d", cfg.Workers)
	}
	if time.Duration(cfg.Timeout) != 90*time.Second {
		t.Errorf("Timeout = %v", time.Duration(cfg.Timeout))
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadConfigBadEnv(t *testing.T) {
	t.Setenv("MELD_THRESHOLD", "not-a-number")
	if _, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"), false); err == nil {
		t.Error("invalid MELD_THRESHOLD should be an error")
	}
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := writeConfig(t, "threshold: [not a number\n")
	if _, err := loadConfig(path, true); err == nil {
		t.Error("malformed YAML should be an error")
	}
}
