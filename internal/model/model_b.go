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

// SentimentEstimator is Model B: numeric behavior features plus the review
// sentiment compound score. Records without a review train and score with
// the neutral imputed compound, so the estimator covers the whole dataset
// rather than only reviewed users.
type SentimentEstimator struct{}

// NewSentimentEstimator returns Model B.
func NewSentimentEstimator() *SentimentEstimator {
	return &SentimentEstimator{}
}

func (e *SentimentEstimator) ID() string {
	return ModelB
}

func (e *SentimentEstimator) Train(ctx context.Context, data *TrainingData) (*state.Artifact, error) {
	rows, labels := labeledRows(data, func(rec *models.UserRecord) []float64 {
		score, ok := data.Sentiments[rec.UserID]
		if !ok {
			score = sentiment.Imputed()
		}
		return sentimentRow(rec, score)
	})
	if int64(len(rows)) < data.MinRecords {
		return nil, ErrInsufficientData
	}

	params, err := fitLogistic(ctx, sentimentFeatureNames(), rows, labels)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	return &state.Artifact{
		ModelID:     ModelB,
		TrainedAt:   time.Now().UTC(),
		RecordCount: int64(len(rows)),
		Payload:     payload,
	}, nil
}

func (e *SentimentEstimator) Predict(artifact *state.Artifact, rec *models.UserRecord, score sentiment.Score) (*Prediction, error) {
	params, err := decodeParameters(artifact)
	if err != nil {
		return nil, err
	}

	probability, attrs := params.predict(sentimentRow(rec, score), ModelB)
	return &Prediction{Probability: probability, Attributions: attrs}, nil
}
