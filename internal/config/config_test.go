// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/shopper-spectrum/internal/recommend"
	"github.com/tomtom215/shopper-spectrum/internal/retail"
	"github.com/tomtom215/shopper-spectrum/internal/segment"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spectrum.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault_Valid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if got := cfg.SegmentConfig(); got != segment.DefaultConfig() {
		t.Errorf("SegmentConfig() = %+v, want package default %+v", got, segment.DefaultConfig())
	}
	if got, want := cfg.RecommendConfig(), recommend.DefaultConfig(); *got != *want {
		t.Errorf("RecommendConfig() = %+v, want %+v", got, want)
	}
	pc := cfg.PipelineConfig()
	if pc.Frequency != retail.FrequencyLineItems || pc.Aggregation != recommend.AggregateSum {
		t.Errorf("PipelineConfig() = %+v", pc)
	}
	if lc := cfg.LoggingConfig(); lc.Level != "info" || lc.Format != "json" || !lc.Timestamp {
		t.Errorf("LoggingConfig() = %+v", lc)
	}
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeYAML(t, `
data:
  input_path: /data/retail.csv
training:
  k: 6
  frequency: distinct_invoices
  rules:
    high_value_min_monetary: 50000
    regular_max_recency: 150
  dbscan:
    enabled: false
recommend:
  aggregation: mean
  cache_ttl: 30s
artifacts:
  backend: badger
  path: /data/artifacts
server:
  cors_origins:
    - https://shop.example
retrain:
  enabled: true
  interval: 6h
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Data.InputPath != "/data/retail.csv" {
		t.Errorf("InputPath = %q", cfg.Data.InputPath)
	}
	if cfg.Data.Encoding != "latin-1" {
		t.Errorf("Encoding = %q, want default latin-1", cfg.Data.Encoding)
	}
	sc := cfg.SegmentConfig()
	if sc.K != 6 || sc.Rules.HighValueMinMonetary != 50000 || sc.Rules.RegularMaxRecency != 150 {
		t.Errorf("SegmentConfig() = %+v", sc)
	}
	if sc.Rules.HighRiskMinRecency != 180 {
		t.Errorf("unset rule lost its default: %+v", sc.Rules)
	}
	if sc.DBSCAN.Enabled {
		t.Error("dbscan.enabled = true, want false")
	}
	if cfg.PipelineConfig().Frequency != retail.FrequencyDistinctInvoices {
		t.Errorf("Frequency = %q", cfg.Training.Frequency)
	}
	if cfg.Recommend.Aggregation != "mean" || cfg.Recommend.CacheTTL != 30*time.Second {
		t.Errorf("Recommend = %+v", cfg.Recommend)
	}
	if cfg.Artifacts.Backend != "badger" {
		t.Errorf("Backend = %q", cfg.Artifacts.Backend)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "https://shop.example" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if !cfg.Retrain.Enabled || cfg.Retrain.Interval != 6*time.Hour {
		t.Errorf("Retrain = %+v", cfg.Retrain)
	}
}

func TestLoadFile_EnvOverridesFile(t *testing.T) {
	path := writeYAML(t, "training:\n  k: 6\n")
	t.Setenv("TRAINING_K", "3")
	t.Setenv("TRAINING_RULES_HIGH_RISK_MIN_RECENCY", "120")
	t.Setenv("RECOMMEND_CACHE_TTL", "2m")
	t.Setenv("SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DUCKDB_PATH", "/tmp/x.duckdb")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Training.K != 3 {
		t.Errorf("K = %d, want env value 3", cfg.Training.K)
	}
	if cfg.Training.Rules.HighRiskMinRecency != 120 {
		t.Errorf("HighRiskMinRecency = %v", cfg.Training.Rules.HighRiskMinRecency)
	}
	if cfg.Recommend.CacheTTL != 2*time.Minute {
		t.Errorf("CacheTTL = %v", cfg.Recommend.CacheTTL)
	}
	if got := cfg.Server.CORSOrigins; len(got) != 2 || got[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", got)
	}
	if cfg.Logging.Level != "debug" || cfg.Database.Path != "/tmp/x.duckdb" {
		t.Errorf("aliases not applied: logging=%+v database=%+v", cfg.Logging, cfg.Database)
	}
}

func TestLoad_ConfigPathEnv(t *testing.T) {
	path := writeYAML(t, "artifacts:\n  keep: 2\n")
	t.Setenv(ConfigPathEnvVar, path)

	if got := findConfigFile(); got != path {
		t.Fatalf("findConfigFile() = %q, want %q", got, path)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Artifacts.Keep != 2 {
		t.Errorf("Keep = %d, want 2", cfg.Artifacts.Keep)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFile(missing) expected error")
	}

	path := writeYAML(t, "training:\n  k: 0\n")
	_, err := LoadFile(path)
	if err == nil || !strings.Contains(err.Error(), "training.k") {
		t.Errorf("LoadFile(k=0) error = %v, want training.k failure", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"TRAINING_K", "training.k"},
		{"TRAINING_MAX_ITERATIONS", "training.max_iterations"},
		{"TRAINING_RULES_HIGH_VALUE_MIN_MONETARY", "training.rules.high_value_min_monetary"},
		{"TRAINING_DBSCAN_EPS", "training.dbscan.eps"},
		{"RECOMMEND_CACHE_TTL", "recommend.cache_ttl"},
		{"ARTIFACTS_BACKEND", "artifacts.backend"},
		{"DATA_INPUT_PATH", "data.input_path"},
		{"LOG_FORMAT", "logging.format"},
		{"HTTP_ADDR", "server.addr"},
		{"PATH", ""},
		{"HOME", ""},
		{"TRAINING_", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := envTransformFunc(tt.in); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown frequency", func(c *Config) { c.Training.Frequency = "weekly" }, "training.frequency"},
		{"unknown aggregation", func(c *Config) { c.Recommend.Aggregation = "max" }, "recommend.aggregation"},
		{"unknown backend", func(c *Config) { c.Artifacts.Backend = "s3" }, "artifacts.backend"},
		{"negative threshold", func(c *Config) { c.Training.Rules.HighRiskMinRecency = -1 }, "training.rules.high_risk_min_recency"},
		{"zero eps", func(c *Config) { c.Training.DBSCAN.Eps = 0 }, "training.dbscan.eps"},
		{"bad addr", func(c *Config) { c.Server.Addr = "nowhere" }, "server.addr"},
		{"bad log level", func(c *Config) { c.Logging.Level = "chatty" }, "logging.level"},
		{"max_k below default_k", func(c *Config) { c.Recommend.MaxK = 2 }, "recommend.max_k"},
		{"cache ttl", func(c *Config) { c.Recommend.CacheTTL = 0 }, "recommend.cache_ttl"},
		{"read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }, "server.read_timeout"},
		{"retrain interval", func(c *Config) {
			c.Retrain.Enabled = true
			c.Retrain.Interval = time.Second
		}, "retrain.interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error mentioning %s", err, tt.want)
			}
		})
	}

	t.Run("cache disabled skips cache checks", func(t *testing.T) {
		t.Parallel()
		cfg := Default()
		cfg.Recommend.CacheEnabled = false
		cfg.Recommend.CacheTTL = 0
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})
}
