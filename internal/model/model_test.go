// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

package model

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/goccy/go-json"

	"github.com/churnwatch/churnwatch/internal/models"
	"github.com/churnwatch/churnwatch/internal/sentiment"
	"github.com/churnwatch/churnwatch/internal/state"
)

// separableTrainingData builds a labeled snapshot where churners have long
// absences and low screen time, and retained users the opposite.
func separableTrainingData(n int) *TrainingData {
	data := &TrainingData{Sentiments: make(map[int64]sentiment.Score)}

	for i := 0; i < n; i++ {
		churned := i%2 == 0
		rec := models.UserRecord{
			UserID:  int64(2000 + i),
			Rating:  4,
			Churned: &churned,
		}
		if churned {
			rec.AvgScreenTime = 10
			rec.LastVisitedMinutes = 20000
			rec.Rating = 1
			data.Sentiments[rec.UserID] = sentiment.Score{Compound: -0.7, Polarity: sentiment.Negative}
		} else {
			rec.AvgScreenTime = 180
			rec.LastVisitedMinutes = 60
			data.Sentiments[rec.UserID] = sentiment.Score{Compound: 0.6, Polarity: sentiment.Positive}
		}
		for d := 0; d < models.DayWindow; d++ {
			if churned {
				rec.DayUsage[d] = 0
			} else {
				rec.DayUsage[d] = 5
			}
		}
		data.Records = append(data.Records, rec)
	}
	return data
}

func TestNumericEstimatorTrainAndPredict(t *testing.T) {
	est := NewNumericEstimator()
	data := separableTrainingData(40)

	artifact, err := est.Train(context.Background(), data)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if artifact.ModelID != ModelA {
		t.Errorf("ModelID = %q, want %q", artifact.ModelID, ModelA)
	}
	if artifact.RecordCount != 40 {
		t.Errorf("RecordCount = %d, want 40", artifact.RecordCount)
	}

	churnedTrue := true
	churner := &models.UserRecord{AvgScreenTime: 5, LastVisitedMinutes: 25000, Rating: 1, Churned: &churnedTrue}
	retained := &models.UserRecord{AvgScreenTime: 200, LastVisitedMinutes: 30, Rating: 4}
	for d := 0; d < models.DayWindow; d++ {
		retained.DayUsage[d] = 5
	}

	churnPred, err := est.Predict(artifact, churner, sentiment.Imputed())
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	keepPred, err := est.Predict(artifact, retained, sentiment.Imputed())
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	if churnPred.Probability <= keepPred.Probability {
		t.Errorf("churner probability %v should exceed retained probability %v",
			churnPred.Probability, keepPred.Probability)
	}
	if churnPred.Probability < 0 || churnPred.Probability > 1 {
		t.Errorf("probability %v out of [0,1]", churnPred.Probability)
	}
	if len(churnPred.Attributions) != len(numericFeatureNames()) {
		t.Errorf("got %d attributions, want %d", len(churnPred.Attributions), len(numericFeatureNames()))
	}
}

func TestTrainingDeterministic(t *testing.T) {
	est := NewNumericEstimator()
	data := separableTrainingData(30)

	first, err := est.Train(context.Background(), data)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	second, err := est.Train(context.Background(), data)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	var p1, p2 parameters
	if err := json.Unmarshal(first.Payload, &p1); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if err := json.Unmarshal(second.Payload, &p2); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}

	if p1.Bias != p2.Bias {
		t.Errorf("bias differs between runs: %v vs %v", p1.Bias, p2.Bias)
	}
	for i := range p1.Weights {
		if p1.Weights[i] != p2.Weights[i] {
			t.Fatalf("weight %d differs between runs: %v vs %v", i, p1.Weights[i], p2.Weights[i])
		}
	}
}

func TestAttributionsSumToLogit(t *testing.T) {
	est := NewNumericEstimator()
	artifact, err := est.Train(context.Background(), separableTrainingData(30))
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	rec := &models.UserRecord{AvgScreenTime: 45, LastVisitedMinutes: 3000, Rating: 3}
	pred, err := est.Predict(artifact, rec, sentiment.Imputed())
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	var params parameters
	if err := json.Unmarshal(artifact.Payload, &params); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}

	logit := params.Bias
	for _, attr := range pred.Attributions {
		logit += attr.Attribution
	}
	if got := sigmoid(logit); math.Abs(got-pred.Probability) > 1e-9 {
		t.Errorf("sigmoid(bias + sum(attributions)) = %v, want probability %v", got, pred.Probability)
	}
}

func TestSentimentEstimatorUsesCompoundFeature(t *testing.T) {
	est := NewSentimentEstimator()
	artifact, err := est.Train(context.Background(), separableTrainingData(40))
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	rec := &models.UserRecord{AvgScreenTime: 60, LastVisitedMinutes: 500, Rating: 3}
	pred, err := est.Predict(artifact, rec, sentiment.Score{Compound: -0.6, Polarity: sentiment.Negative})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	found := false
	for _, attr := range pred.Attributions {
		if attr.Feature == models.FeatureCompoundScore {
			found = true
			if attr.Value != -0.6 {
				t.Errorf("compound_score value = %v, want -0.6", attr.Value)
			}
		}
	}
	if !found {
		t.Error("compound_score attribution missing from sentiment model prediction")
	}
}

func TestSentimentImputationKeepsFixedShape(t *testing.T) {
	est := NewSentimentEstimator()
	artifact, err := est.Train(context.Background(), separableTrainingData(40))
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	rec := &models.UserRecord{AvgScreenTime: 60, LastVisitedMinutes: 500, Rating: 3}
	pred, err := est.Predict(artifact, rec, sentiment.Imputed())
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if len(pred.Attributions) != len(sentimentFeatureNames()) {
		t.Errorf("got %d attributions, want %d", len(pred.Attributions), len(sentimentFeatureNames()))
	}
}

func TestTrainInsufficientData(t *testing.T) {
	est := NewNumericEstimator()

	t.Run("empty_snapshot", func(t *testing.T) {
		_, err := est.Train(context.Background(), &TrainingData{})
		if !errors.Is(err, ErrInsufficientData) {
			t.Errorf("expected ErrInsufficientData, got %v", err)
		}
	})

	t.Run("single_class", func(t *testing.T) {
		churned := true
		data := &TrainingData{}
		for i := 0; i < 10; i++ {
			data.Records = append(data.Records, models.UserRecord{
				UserID:  int64(i),
				Churned: &churned,
			})
		}
		_, err := est.Train(context.Background(), data)
		if !errors.Is(err, ErrInsufficientData) {
			t.Errorf("expected ErrInsufficientData, got %v", err)
		}
	})

	t.Run("unlabeled_records_excluded", func(t *testing.T) {
		data := &TrainingData{}
		for i := 0; i < 10; i++ {
			data.Records = append(data.Records, models.UserRecord{UserID: int64(i)})
		}
		_, err := est.Train(context.Background(), data)
		if !errors.Is(err, ErrInsufficientData) {
			t.Errorf("expected ErrInsufficientData, got %v", err)
		}
	})
}

func TestTrainEnforcesLabeledRecordFloor(t *testing.T) {
	est := NewNumericEstimator()

	data := separableTrainingData(8)
	data.MinRecords = 10
	if _, err := est.Train(context.Background(), data); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData below the floor, got %v", err)
	}

	// The floor is inclusive.
	data.MinRecords = 8
	if _, err := est.Train(context.Background(), data); err != nil {
		t.Errorf("Train at the floor should succeed, got %v", err)
	}

	estB := NewSentimentEstimator()
	dataB := separableTrainingData(8)
	dataB.MinRecords = 10
	if _, err := estB.Train(context.Background(), dataB); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData below the floor for the sentiment model, got %v", err)
	}
}

func TestPredictWithoutArtifact(t *testing.T) {
	est := NewNumericEstimator()

	_, err := est.Predict(nil, &models.UserRecord{}, sentiment.Imputed())
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got %v", err)
	}

	_, err = est.Predict(&state.Artifact{}, &models.UserRecord{}, sentiment.Imputed())
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable for empty payload, got %v", err)
	}
}
