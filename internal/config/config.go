// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

// Package config holds all application configuration loaded from environment
// variables and optional config files via Koanf v2.
//
// Configuration loading order (highest priority wins):
//  1. Built-in defaults
//  2. Optional YAML config file (config.yaml, or CONFIG_PATH)
//  3. Environment variables
//
// Config is immutable after Load() and safe for concurrent read access.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	State     StateConfig     `koanf:"state"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	ModelA    ModelConfig     `koanf:"model_a"`
	ModelB    ModelConfig     `koanf:"model_b"`
	Server    ServerConfig    `koanf:"server"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DatabaseConfig holds DuckDB dataset store settings.
//
// Environment variables:
//   - DUCKDB_PATH: database file path (default: /data/churnwatch.duckdb)
//   - DUCKDB_MAX_MEMORY: memory limit (default: 2GB)
//   - DUCKDB_THREADS: worker threads, 0 = NumCPU (default: 0)
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// StateConfig holds BadgerDB settings for the counter and artifact stores.
//
// Environment variables:
//   - STATE_PATH: Badger directory (default: /data/state)
type StateConfig struct {
	Path string `koanf:"path"`
}

// SchedulerConfig holds retraining scheduler settings.
//
// Environment variables:
//   - SCHEDULER_POLL_INTERVAL: trigger poll cadence (default: 1m)
//   - SCHEDULER_TRAIN_ON_STARTUP: train due models immediately on boot (default: false)
//   - SCHEDULER_TRAIN_TIMEOUT: per-attempt training timeout (default: 30m)
type SchedulerConfig struct {
	PollInterval   time.Duration `koanf:"poll_interval"`
	TrainOnStartup bool          `koanf:"train_on_startup"`
	TrainTimeout   time.Duration `koanf:"train_timeout"`
}

// ModelConfig holds per-model retraining policy. Each model is configured
// independently; Model A defaults to the longer interval and higher record
// threshold, Model B to the shorter and lower ones.
//
// Environment variables (prefix MODEL_A_ / MODEL_B_):
//   - MODEL_A_RETRAIN_INTERVAL: elapsed-time trigger (default: 24h / 6h)
//   - MODEL_A_RECORDS_THRESHOLD: new-record volume trigger (default: 20 / 10)
//   - MODEL_A_MIN_TRAINING_RECORDS: labeled-record floor below which training
//     is refused (default: 10)
type ModelConfig struct {
	RetrainInterval    time.Duration `koanf:"retrain_interval"`
	RecordsThreshold   int64         `koanf:"records_threshold"`
	MinTrainingRecords int           `koanf:"min_training_records"`
}

// ServerConfig holds HTTP server settings.
//
// Environment variables:
//   - HTTP_HOST (default: 0.0.0.0), HTTP_PORT (default: 8343)
//   - HTTP_TIMEOUT: read/write timeout (default: 30s)
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// APIConfig holds API behavior settings.
//
// Environment variables:
//   - API_RATE_LIMIT_REQS / API_RATE_LIMIT_WINDOW: request rate limiting
//   - API_CORS_ORIGINS: comma-separated allowed origins
//   - API_MAX_BATCH_ROWS: maximum rows accepted in one ingest request
type APIConfig struct {
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	MaxBatchRows    int           `koanf:"max_batch_rows"`
}

// LoggingConfig holds log output settings.
//
// Environment variables: LOG_LEVEL, LOG_FORMAT, LOG_CALLER.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:      "/data/churnwatch.duckdb",
			MaxMemory: "2GB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		State: StateConfig{
			Path: "/data/state",
		},
		Scheduler: SchedulerConfig{
			PollInterval:   time.Minute,
			TrainOnStartup: false,
			TrainTimeout:   30 * time.Minute,
		},
		ModelA: ModelConfig{
			RetrainInterval:    24 * time.Hour,
			RecordsThreshold:   20,
			MinTrainingRecords: 10,
		},
		ModelB: ModelConfig{
			RetrainInterval:    6 * time.Hour,
			RecordsThreshold:   10,
			MinTrainingRecords: 10,
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8343,
			Timeout: 30 * time.Second,
		},
		API: APIConfig{
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
			MaxBatchRows:    10000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
