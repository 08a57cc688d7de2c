// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

// Package metrics provides Prometheus instrumentation for ingestion,
// training, prediction, and dataset access.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Dataset store metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DatasetRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dataset_records_appended_total",
			Help: "Total number of records appended to the dataset store",
		},
	)

	// Ingestion metrics
	IngestRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_rows_total",
			Help: "Total ingested rows by outcome",
		},
		[]string{"outcome"}, // "accepted", "rejected"
	)

	IngestBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_batch_duration_seconds",
			Help:    "Duration of ingest batches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Training metrics
	TrainingAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "training_attempts_total",
			Help: "Total training attempts by model and outcome",
		},
		[]string{"model", "outcome"}, // outcome: "success", "failure", "insufficient_data"
	)

	TrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "training_duration_seconds",
			Help:    "Duration of training runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 1800},
		},
		[]string{"model"},
	)

	ModelVersion = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "model_artifact_version",
			Help: "Version of the current model artifact",
		},
		[]string{"model"},
	)

	RecordsSinceRetrain = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "records_since_last_retrain",
			Help: "Records seen since the last successful retrain",
		},
		[]string{"model"},
	)

	DataFloorWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "training_data_floor_warnings_total",
			Help: "Times a due model was held back by the minimum-record floor",
		},
		[]string{"model"},
	)

	// Prediction metrics
	PredictionsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictions_served_total",
			Help: "Total explanations served by combination mode",
		},
		[]string{"mode"}, // "combined", "model_a_only"
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total API requests by endpoint, method and status code",
		},
		[]string{"endpoint", "method", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)
)

// RecordAPIRequest records one API request observation.
func RecordAPIRequest(endpoint, method string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}
