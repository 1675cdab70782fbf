package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// duration decodes "90s"-style YAML scalars into a time.Duration.
type duration time.Duration

func (d *duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*d = duration(parsed)
	return nil
}

// config is the meld CLI configuration. Values resolve in order:
// built-in defaults, then the YAML file, then environment variables,
// then command-line flags.
type config struct {
	Collection string   `yaml:"collection"`
	Threshold  float64  `yaml:"threshold"`
	Workers    int      `yaml:"workers"`
	Timeout    duration `yaml:"timeout"`
	LeafOnly   bool     `yaml:"leaf_only"`
	LogLevel   string   `yaml:"log_level"` // debug, info, warn, error

	Fit struct {
		Epochs        int     `yaml:"epochs"`
		MiniBatchSize int     `yaml:"mini_batch_size"`
		LearningRate  float64 `yaml:"learning_rate"`
		MinCrossDay   int     `yaml:"min_cross_day"`
	} `yaml:"fit"`
}

func defaultConfig() config {
	var cfg config
	cfg.LeafOnly = true
	cfg.LogLevel = "info"
	return cfg
}

// loadConfig reads the YAML file at path if it exists, then applies
// env-var overrides. A missing file is not an error unless the path
// was set explicitly.
func loadConfig(path string, explicit bool) (config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file: defaults plus env.
	default:
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	if v := os.Getenv("MELD_COLLECTION"); v != "" {
		cfg.Collection = v
	}
	if v := os.Getenv("MELD_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("MELD_THRESHOLD: %w", err)
		}
		cfg.Threshold = f
	}
	if v := os.Getenv("MELD_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("MELD_WORKERS: %w", err)
		}
		cfg.Workers = n
	}
	if v := os.Getenv("MELD_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("MELD_TIMEOUT: %w", err)
		}
		cfg.Timeout = duration(d)
	}
	if v := os.Getenv("MELD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}
