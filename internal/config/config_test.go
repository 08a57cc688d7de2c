// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration should validate: %v", err)
	}
}

func TestDefaultModelPolicies(t *testing.T) {
	cfg := defaultConfig()

	if cfg.ModelA.RetrainInterval != 24*time.Hour || cfg.ModelA.RecordsThreshold != 20 {
		t.Errorf("ModelA policy = %+v, want 24h/20", cfg.ModelA)
	}
	if cfg.ModelB.RetrainInterval != 6*time.Hour || cfg.ModelB.RecordsThreshold != 10 {
		t.Errorf("ModelB policy = %+v, want 6h/10", cfg.ModelB)
	}
	if cfg.ModelA.MinTrainingRecords != 10 || cfg.ModelB.MinTrainingRecords != 10 {
		t.Errorf("training floors = %d/%d, want 10/10",
			cfg.ModelA.MinTrainingRecords, cfg.ModelB.MinTrainingRecords)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantVar string
	}{
		{
			name:    "empty_database_path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantVar: "DUCKDB_PATH",
		},
		{
			name:    "empty_state_path",
			mutate:  func(c *Config) { c.State.Path = "" },
			wantVar: "STATE_PATH",
		},
		{
			name:    "zero_poll_interval",
			mutate:  func(c *Config) { c.Scheduler.PollInterval = 0 },
			wantVar: "SCHEDULER_POLL_INTERVAL",
		},
		{
			name:    "negative_train_timeout",
			mutate:  func(c *Config) { c.Scheduler.TrainTimeout = -time.Second },
			wantVar: "SCHEDULER_TRAIN_TIMEOUT",
		},
		{
			name:    "zero_model_a_interval",
			mutate:  func(c *Config) { c.ModelA.RetrainInterval = 0 },
			wantVar: "MODEL_A_RETRAIN_INTERVAL",
		},
		{
			name:    "zero_model_b_threshold",
			mutate:  func(c *Config) { c.ModelB.RecordsThreshold = 0 },
			wantVar: "MODEL_B_RECORDS_THRESHOLD",
		},
		{
			name:    "zero_model_b_floor",
			mutate:  func(c *Config) { c.ModelB.MinTrainingRecords = 0 },
			wantVar: "MODEL_B_MIN_TRAINING_RECORDS",
		},
		{
			name:    "port_out_of_range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantVar: "HTTP_PORT",
		},
		{
			name:    "zero_rate_limit",
			mutate:  func(c *Config) { c.API.RateLimitReqs = 0 },
			wantVar: "API_RATE_LIMIT_REQS",
		},
		{
			name:    "zero_batch_cap",
			mutate:  func(c *Config) { c.API.MaxBatchRows = 0 },
			wantVar: "API_MAX_BATCH_ROWS",
		},
		{
			name:    "bad_log_level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantVar: "LOG_LEVEL",
		},
		{
			name:    "bad_log_format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantVar: "LOG_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantVar) {
				t.Errorf("error %q does not name %s", err, tt.wantVar)
			}
		})
	}
}

func TestLoadAppliesEnvironmentOverrides(t *testing.T) {
	t.Setenv("MODEL_A_RECORDS_THRESHOLD", "55")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("API_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ModelA.RecordsThreshold != 55 {
		t.Errorf("ModelA.RecordsThreshold = %d, want 55", cfg.ModelA.RecordsThreshold)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if len(cfg.API.CORSOrigins) != 2 || cfg.API.CORSOrigins[0] != "https://a.example" {
		t.Errorf("API.CORSOrigins = %v, want two trimmed origins", cfg.API.CORSOrigins)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}

	// Untouched fields keep their defaults.
	if cfg.ModelB.RetrainInterval != 6*time.Hour {
		t.Errorf("ModelB.RetrainInterval = %s, want default 6h", cfg.ModelB.RetrainInterval)
	}
}

func TestLoadRejectsInvalidEnvironment(t *testing.T) {
	t.Setenv("SCHEDULER_POLL_INTERVAL", "-5s")

	if _, err := Load(); err == nil {
		t.Fatal("expected Load to fail on negative poll interval")
	}
}
