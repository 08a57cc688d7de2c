// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

// Package model implements the two churn estimators. Model A learns from
// numeric behavior features only; Model B adds the review sentiment compound
// score. Both are regularized logistic regressions trained by deterministic
// gradient descent, so identical snapshots produce identical artifacts.
package model

import (
	"context"
	"errors"

	"github.com/goccy/go-json"

	"github.com/churnwatch/churnwatch/internal/models"
	"github.com/churnwatch/churnwatch/internal/sentiment"
	"github.com/churnwatch/churnwatch/internal/state"
)

// Model identifiers, used as artifact and counter keys.
const (
	ModelA = "model_a"
	ModelB = "model_b"
)

// ErrInsufficientData is returned when a snapshot cannot support training:
// too few labeled records, or all labels in one class.
var ErrInsufficientData = errors.New("insufficient labeled data for training")

// ErrModelUnavailable is returned when prediction is requested before any
// successful training run.
var ErrModelUnavailable = errors.New("model has not been trained yet")

// TrainingData is a point-in-time snapshot handed to an estimator.
// Sentiments is keyed by user id; Model A ignores it. MinRecords is the
// labeled-record floor: Train refuses snapshots with fewer labeled rows,
// regardless of how the run was triggered.
type TrainingData struct {
	Records    []models.UserRecord
	Sentiments map[int64]sentiment.Score
	MinRecords int64
}

// Prediction is a single-model churn estimate with exact per-feature
// contributions to the decision.
type Prediction struct {
	Probability  float64
	Attributions []models.FeatureAttribution
}

// Estimator trains on a snapshot and predicts from an installed artifact.
type Estimator interface {
	// ID returns the model identifier.
	ID() string

	// Train fits the estimator on a snapshot and returns an artifact ready
	// for installation. Returns ErrInsufficientData on unusable snapshots.
	Train(ctx context.Context, data *TrainingData) (*state.Artifact, error)

	// Predict scores one record against an installed artifact.
	Predict(artifact *state.Artifact, rec *models.UserRecord, score sentiment.Score) (*Prediction, error)
}

// decodeParameters unpacks an artifact payload into logistic parameters.
func decodeParameters(artifact *state.Artifact) (*parameters, error) {
	if artifact == nil || len(artifact.Payload) == 0 {
		return nil, ErrModelUnavailable
	}
	var params parameters
	if err := json.Unmarshal(artifact.Payload, &params); err != nil {
		return nil, err
	}
	return &params, nil
}
