// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

package config

import (
	"fmt"
	"strings"
)

// Validate checks that required configuration is present and valid.
// All intervals and thresholds must be positive and non-zero.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateState(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := validateModel("MODEL_A", &c.ModelA); err != nil {
		return err
	}
	if err := validateModel("MODEL_B", &c.ModelB); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH must not be empty")
	}
	return nil
}

func (c *Config) validateState() error {
	if c.State.Path == "" {
		return fmt.Errorf("STATE_PATH must not be empty")
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if c.Scheduler.PollInterval <= 0 {
		return fmt.Errorf("SCHEDULER_POLL_INTERVAL must be positive, got %s", c.Scheduler.PollInterval)
	}
	if c.Scheduler.TrainTimeout <= 0 {
		return fmt.Errorf("SCHEDULER_TRAIN_TIMEOUT must be positive, got %s", c.Scheduler.TrainTimeout)
	}
	return nil
}

func validateModel(prefix string, mc *ModelConfig) error {
	if mc.RetrainInterval <= 0 {
		return fmt.Errorf("%s_RETRAIN_INTERVAL must be positive, got %s", prefix, mc.RetrainInterval)
	}
	if mc.RecordsThreshold <= 0 {
		return fmt.Errorf("%s_RECORDS_THRESHOLD must be positive, got %d", prefix, mc.RecordsThreshold)
	}
	if mc.MinTrainingRecords <= 0 {
		return fmt.Errorf("%s_MIN_TRAINING_RECORDS must be positive, got %d", prefix, mc.MinTrainingRecords)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be in 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.RateLimitReqs <= 0 {
		return fmt.Errorf("API_RATE_LIMIT_REQS must be positive, got %d", c.API.RateLimitReqs)
	}
	if c.API.RateLimitWindow <= 0 {
		return fmt.Errorf("API_RATE_LIMIT_WINDOW must be positive, got %s", c.API.RateLimitWindow)
	}
	if c.API.MaxBatchRows <= 0 {
		return fmt.Errorf("API_MAX_BATCH_ROWS must be positive, got %d", c.API.MaxBatchRows)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT %q must be json or console", c.Logging.Format)
	}
	return nil
}
