// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

package model

import (
	"github.com/churnwatch/churnwatch/internal/models"
	"github.com/churnwatch/churnwatch/internal/sentiment"
)

// numericFeatureNames is Model A's feature schema: the five scalar behavior
// features followed by the fixed day-usage window.
func numericFeatureNames() []string {
	names := []string{
		models.FeatureAvgScreenTime,
		models.FeatureAvgSpend,
		models.FeatureRating,
		models.FeatureNewPasswordRequests,
		models.FeatureLastVisitedMinutes,
	}
	for i := 0; i < models.DayWindow; i++ {
		names = append(names, models.DayFeature(i))
	}
	return names
}

// sentimentFeatureNames is Model B's schema: Model A's features plus the
// review sentiment compound score.
func sentimentFeatureNames() []string {
	return append(numericFeatureNames(), models.FeatureCompoundScore)
}

// numericRow extracts Model A's raw feature vector from a record.
func numericRow(rec *models.UserRecord) []float64 {
	row := []float64{
		rec.AvgScreenTime,
		rec.AvgSpend,
		rec.Rating,
		rec.NewPasswordRequests,
		rec.LastVisitedMinutes,
	}
	for i := 0; i < models.DayWindow; i++ {
		row = append(row, rec.DayUsage[i])
	}
	return row
}

// sentimentRow extracts Model B's raw feature vector. Records without a
// review carry the imputed neutral compound score.
func sentimentRow(rec *models.UserRecord, score sentiment.Score) []float64 {
	return append(numericRow(rec), score.Compound)
}

// labeledRows filters a snapshot down to labeled records and converts them
// to aligned feature rows and 0/1 labels.
func labeledRows(data *TrainingData, extract func(*models.UserRecord) []float64) (rows [][]float64, labels []float64) {
	for i := range data.Records {
		rec := &data.Records[i]
		if rec.Churned == nil {
			continue
		}
		rows = append(rows, extract(rec))
		if *rec.Churned {
			labels = append(labels, 1)
		} else {
			labels = append(labels, 0)
		}
	}
	return rows, labels
}
