// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

// Package main is the entry point for the ChurnWatch server.
//
// ChurnWatch ingests user-behavior records, keeps per-model retrain
// counters, retrains two churn models when time or volume triggers fire,
// and serves combined, explained churn predictions over HTTP.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables and config file (Koanf v2)
//  2. Dataset store: append-only DuckDB record table + sentiment cache
//  3. Counter store: BadgerDB retrain counters and model artifacts
//  4. Services: ingest, explainer, retrain scheduler
//  5. Supervisor tree: scheduler and HTTP server under suture
//
// # Configuration
//
// Loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (MODEL_A_RETRAIN_INTERVAL, DUCKDB_PATH, ...)
//   - Config file (config.yaml or CONFIG_PATH)
//   - Built-in defaults
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests, in-progress training runs are canceled, and both
// stores are closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/churnwatch/churnwatch/internal/api"
	"github.com/churnwatch/churnwatch/internal/config"
	"github.com/churnwatch/churnwatch/internal/database"
	"github.com/churnwatch/churnwatch/internal/explain"
	"github.com/churnwatch/churnwatch/internal/ingest"
	"github.com/churnwatch/churnwatch/internal/logging"
	"github.com/churnwatch/churnwatch/internal/model"
	"github.com/churnwatch/churnwatch/internal/scheduler"
	"github.com/churnwatch/churnwatch/internal/sentiment"
	"github.com/churnwatch/churnwatch/internal/state"
	"github.com/churnwatch/churnwatch/internal/supervisor"
	"github.com/churnwatch/churnwatch/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("state_path", cfg.State.Path).
		Dur("poll_interval", cfg.Scheduler.PollInterval).
		Msg("Starting ChurnWatch")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize dataset store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing dataset store")
		}
	}()

	store, err := state.Open(&cfg.State)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open counter store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing counter store")
		}
	}()

	scorer := sentiment.NewScorer()
	ingestSvc := ingest.New(db, store)
	explainer := explain.New(db, store, scorer,
		model.NewNumericEstimator(), model.NewSentimentEstimator())
	sched := scheduler.New(db, store, scorer, cfg)

	handler := api.NewHandler(db, ingestSvc, explainer, sched, cfg.API.MaxBatchRows)
	router := api.NewRouter(handler, &cfg.API)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddTrainingService(sched)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Timeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("ChurnWatch serving")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
		os.Exit(1)
	}

	logging.Info().Msg("ChurnWatch stopped")
}
