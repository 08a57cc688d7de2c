// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

package explain

import (
	"context"

	"github.com/churnwatch/churnwatch/internal/models"
)

// PredictAll scores every user's latest record against the installed
// artifacts, ordered by user id. Returns ErrModelUnavailable when no model
// has ever trained; users whose individual scoring fails are skipped and
// logged rather than failing the export.
func (e *Explainer) PredictAll(ctx context.Context) ([]models.UserPrediction, error) {
	records, err := e.db.LatestRecords(ctx)
	if err != nil {
		return nil, err
	}

	predictions := make([]models.UserPrediction, 0, len(records))
	for i := range records {
		rec := &records[i]

		score, err := e.db.SentimentFor(ctx, rec, e.scorer)
		if err != nil {
			e.log.Warn().Err(err).Int64("user_id", rec.UserID).Msg("Skipping user in bulk prediction")
			continue
		}

		combined, err := e.combine(rec, score)
		if err != nil {
			return nil, err
		}

		predictions = append(predictions, models.UserPrediction{
			UserID:           rec.UserID,
			ChurnProbability: combined.probability,
			RiskLevel:        models.RiskLevel(combined.probability),
			ModelBUsed:       combined.modelBUsed,
		})
	}
	return predictions, nil
}
