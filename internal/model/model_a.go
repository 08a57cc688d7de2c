// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

package model

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/churnwatch/churnwatch/internal/models"
	"github.com/churnwatch/churnwatch/internal/sentiment"
	"github.com/churnwatch/churnwatch/internal/state"
)

// NumericEstimator is Model A: churn from numeric behavior features only.
// It trains on every labeled record regardless of review presence.
type NumericEstimator struct{}

// NewNumericEstimator returns Model A.
func NewNumericEstimator() *NumericEstimator {
	return &NumericEstimator{}
}

func (e *NumericEstimator) ID() string {
	return ModelA
}

func (e *NumericEstimator) Train(ctx context.Context, data *TrainingData) (*state.Artifact, error) {
	rows, labels := labeledRows(data, numericRow)
	if int64(len(rows)) < data.MinRecords {
		return nil, ErrInsufficientData
	}

	params, err := fitLogistic(ctx, numericFeatureNames(), rows, labels)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	return &state.Artifact{
		ModelID:     ModelA,
		TrainedAt:   time.Now().UTC(),
		RecordCount: int64(len(rows)),
		Payload:     payload,
	}, nil
}

func (e *NumericEstimator) Predict(artifact *state.Artifact, rec *models.UserRecord, _ sentiment.Score) (*Prediction, error) {
	params, err := decodeParameters(artifact)
	if err != nil {
		return nil, err
	}

	probability, attrs := params.predict(numericRow(rec), ModelA)
	return &Prediction{Probability: probability, Attributions: attrs}, nil
}
