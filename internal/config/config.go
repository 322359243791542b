// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package config

import (
	"time"
)

// Config is the complete application configuration.
type Config struct {
	Data      DataConfig      `koanf:"data"`
	Training  TrainingConfig  `koanf:"training"`
	Recommend RecommendConfig `koanf:"recommend"`
	Artifacts ArtifactsConfig `koanf:"artifacts"`
	Database  DatabaseConfig  `koanf:"database"`
	Server    ServerConfig    `koanf:"server"`
	Retrain   RetrainConfig   `koanf:"retrain"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DataConfig locates the raw transaction export.
type DataConfig struct {
	// InputPath is the CSV file with the retail transactions.
	InputPath string `koanf:"input_path"`

	// Encoding of the CSV. The public Online Retail export is latin-1.
	// Default: latin-1
	Encoding string `koanf:"encoding" validate:"oneof=latin-1 utf-8 utf-16"`

	// DateFormat is the strptime-style format of InvoiceDate. Empty lets
	// DuckDB detect it.
	// Default: %m/%d/%Y %H:%M
	DateFormat string `koanf:"date_format"`
}

// TrainingConfig configures RFM construction and segmentation.
type TrainingConfig struct {
	// Frequency is line_items (one per cleaned row) or distinct_invoices.
	// Default: line_items
	Frequency string `koanf:"frequency" validate:"frequency_mode"`

	// K is the number of clusters.
	// Default: 4
	K int `koanf:"k" validate:"gte=1,lte=64"`

	// Seed drives k-means++ initialization.
	// Default: 42
	Seed int64 `koanf:"seed"`

	// Default: 300
	MaxIterations int `koanf:"max_iterations" validate:"gte=1"`

	// NumInit is how many initializations run; the lowest inertia wins.
	// Default: 10
	NumInit int `koanf:"num_init" validate:"gte=1"`

	// Default: 1e-4
	Tolerance float64 `koanf:"tolerance" validate:"finite,gte=0"`

	Rules  RulesConfig  `koanf:"rules"`
	DBSCAN DBSCANConfig `koanf:"dbscan"`
}

// RulesConfig holds the cluster label thresholds, compared against
// centroids in original units. Zero disables the optional thresholds.
type RulesConfig struct {
	HighValueMaxRecency   float64 `koanf:"high_value_max_recency" validate:"finite,gte=0"`
	HighValueMinFrequency float64 `koanf:"high_value_min_frequency" validate:"finite,gte=0"`
	HighValueMinMonetary  float64 `koanf:"high_value_min_monetary" validate:"finite,gte=0"`
	HighRiskMinRecency    float64 `koanf:"high_risk_min_recency" validate:"finite,gte=0"`
	HighRiskMaxFrequency  float64 `koanf:"high_risk_max_frequency" validate:"finite,gte=0"`
	RegularMinFrequency   float64 `koanf:"regular_min_frequency" validate:"finite,gte=0"`
	RegularMaxRecency     float64 `koanf:"regular_max_recency" validate:"finite,gte=0"`
}

// DBSCANConfig configures the density clustering diagnostic.
type DBSCANConfig struct {
	// Default: true
	Enabled bool `koanf:"enabled"`

	// Default: 0.8
	Eps float64 `koanf:"eps" validate:"finite,gt=0"`

	// Default: 5
	MinSamples int `koanf:"min_samples" validate:"gte=1"`
}

// RecommendConfig configures the similarity build and query engine.
type RecommendConfig struct {
	// Aggregation is sum or mean.
	// Default: sum
	Aggregation string `koanf:"aggregation" validate:"aggregation"`

	// Workers computing similarity rows.
	// Default: 4
	Workers int `koanf:"workers" validate:"gte=1,lte=256"`

	// DefaultK is used when a request does not specify k.
	// Default: 5
	DefaultK int `koanf:"default_k" validate:"gte=1"`

	// MaxK caps k.
	// Default: 100
	MaxK int `koanf:"max_k" validate:"gte=1"`

	// Default: true
	CacheEnabled bool `koanf:"cache_enabled"`

	// Default: 10m
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// Default: 10000
	CacheMaxEntries int `koanf:"cache_max_entries" validate:"gte=0"`
}

// ArtifactsConfig selects where fitted bundles are persisted.
type ArtifactsConfig struct {
	// Backend is file or badger.
	// Default: file
	Backend string `koanf:"backend" validate:"oneof=file badger"`

	// Path is a directory for either backend.
	// Default: ./artifacts
	Path string `koanf:"path" validate:"required"`

	// Keep is how many bundle versions survive pruning. 0 keeps all.
	// Default: 5
	Keep int `koanf:"keep" validate:"gte=0"`

	// SyncWrites makes badger fsync every write.
	// Default: true
	SyncWrites bool `koanf:"sync_writes"`
}

// DatabaseConfig configures DuckDB, used to read the CSV and to hold the
// report tables written after training.
type DatabaseConfig struct {
	// Path is the DuckDB file. Empty runs in memory.
	// Default: ./spectrum.duckdb
	Path string `koanf:"path"`

	// MaxMemory is passed to DuckDB's memory_limit setting.
	// Default: 1GB
	MaxMemory string `koanf:"max_memory"`

	// Threads for DuckDB. 0 leaves DuckDB's default.
	Threads int `koanf:"threads" validate:"gte=0"`

	// WriteReports stores customer_segments and product_neighbors tables.
	// Default: true
	WriteReports bool `koanf:"write_reports"`

	// NeighborsPerProduct is the depth of the product_neighbors table.
	// Default: 10
	NeighborsPerProduct int `koanf:"neighbors_per_product" validate:"gte=1"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Default: 0.0.0.0:8080
	Addr string `koanf:"addr" validate:"required,hostname_port"`

	// Default: 10s
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// Default: 30s
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// Default: 120s
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// Default: 15s
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Default: ["*"]
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitRequests per RateLimitWindow per client IP. 0 disables.
	// Default: 100
	RateLimitRequests int `koanf:"rate_limit_requests" validate:"gte=0"`

	// Default: 1m
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// RetrainConfig controls periodic retraining while serving.
type RetrainConfig struct {
	// Default: false
	Enabled bool `koanf:"enabled"`

	// Default: 24h
	Interval time.Duration `koanf:"interval"`

	// OnStartup trains before serving when no stored bundle exists.
	// Default: true
	OnStartup bool `koanf:"on_startup"`

	// Timeout bounds one training run.
	// Default: 30m
	Timeout time.Duration `koanf:"timeout"`

	// MaxFailures trips the retrain circuit breaker.
	// Default: 3
	MaxFailures uint32 `koanf:"max_failures" validate:"gte=1"`

	// CooldownPeriod keeps the breaker open before a trial run.
	// Default: 1h
	CooldownPeriod time.Duration `koanf:"cooldown_period"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	// Default: info
	Level string `koanf:"level" validate:"log_level"`

	// Default: json
	Format string `koanf:"format" validate:"oneof=json console"`

	// Caller adds file:line to log events.
	Caller bool `koanf:"caller"`
}

func defaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			InputPath:  "online_retail.csv",
			Encoding:   "latin-1",
			DateFormat: "%m/%d/%Y %H:%M",
		},
		Training: TrainingConfig{
			Frequency:     "line_items",
			K:             4,
			Seed:          42,
			MaxIterations: 300,
			NumInit:       10,
			Tolerance:     1e-4,
			Rules: RulesConfig{
				HighValueMaxRecency:   60,
				HighValueMinFrequency: 8,
				HighRiskMinRecency:    180,
				HighRiskMaxFrequency:  2,
				RegularMinFrequency:   5,
			},
			DBSCAN: DBSCANConfig{
				Enabled:    true,
				Eps:        0.8,
				MinSamples: 5,
			},
		},
		Recommend: RecommendConfig{
			Aggregation:     "sum",
			Workers:         4,
			DefaultK:        5,
			MaxK:            100,
			CacheEnabled:    true,
			CacheTTL:        10 * time.Minute,
			CacheMaxEntries: 10000,
		},
		Artifacts: ArtifactsConfig{
			Backend:    "file",
			Path:       "./artifacts",
			Keep:       5,
			SyncWrites: true,
		},
		Database: DatabaseConfig{
			Path:                "./spectrum.duckdb",
			MaxMemory:           "1GB",
			WriteReports:        true,
			NeighborsPerProduct: 10,
		},
		Server: ServerConfig{
			Addr:              "0.0.0.0:8080",
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Retrain: RetrainConfig{
			Enabled:        false,
			Interval:       24 * time.Hour,
			OnStartup:      true,
			Timeout:        30 * time.Minute,
			MaxFailures:    3,
			CooldownPeriod: time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Default returns the built-in configuration without consulting files or
// the environment.
func Default() *Config {
	return defaultConfig()
}
