// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

// Package explain implements the Prediction Combiner / Explainer: it scores
// a user through the available models, merges their per-feature
// attributions, and derives a risk bucket and ranked recommendations.
// Explanations are built fresh per request and never persisted.
package explain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/churnwatch/churnwatch/internal/database"
	"github.com/churnwatch/churnwatch/internal/logging"
	"github.com/churnwatch/churnwatch/internal/metrics"
	"github.com/churnwatch/churnwatch/internal/model"
	"github.com/churnwatch/churnwatch/internal/models"
	"github.com/churnwatch/churnwatch/internal/sentiment"
	"github.com/churnwatch/churnwatch/internal/state"
)

// ErrUserNotFound is returned when no record exists for the requested user.
var ErrUserNotFound = errors.New("user not found")

// ErrModelUnavailable is returned when no model has ever trained
// successfully.
var ErrModelUnavailable = errors.New("no trained model available")

// Combination weights. With a real review sentiment Model B carries more
// signal; with an imputed neutral score its extra feature says nothing, so
// Model A dominates.
const (
	weightARealSentiment    = 0.4
	weightBRealSentiment    = 0.6
	weightAImputedSentiment = 0.7
	weightBImputedSentiment = 0.3
)

// topFeatureCount bounds the merged attribution list.
const topFeatureCount = 5

// Explainer combines model predictions into explanations.
type Explainer struct {
	db     *database.DB
	store  *state.Store
	scorer *sentiment.Scorer
	modelA model.Estimator
	modelB model.Estimator
	log    zerolog.Logger
}

// New creates an explainer over the given stores and estimators.
func New(db *database.DB, store *state.Store, scorer *sentiment.Scorer, modelA, modelB model.Estimator) *Explainer {
	return &Explainer{
		db:     db,
		store:  store,
		scorer: scorer,
		modelA: modelA,
		modelB: modelB,
		log:    logging.With().Str("component", "explain").Logger(),
	}
}

// Explain builds an explanation for one user from their latest record and
// the currently installed artifacts. Deterministic for a fixed artifact
// pair and record: repeated calls yield identical probabilities and
// attribution ordering.
func (e *Explainer) Explain(ctx context.Context, userID int64) (*models.Explanation, error) {
	rec, err := e.db.LatestRecord(ctx, userID)
	if errors.Is(err, database.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	score, err := e.db.SentimentFor(ctx, rec, e.scorer)
	if err != nil {
		return nil, err
	}

	combined, err := e.combine(rec, score)
	if err != nil {
		return nil, err
	}

	mode := "model_a_only"
	if combined.modelBUsed {
		mode = "combined"
	}
	metrics.PredictionsServed.WithLabelValues(mode).Inc()

	return &models.Explanation{
		UserID:           userID,
		ChurnProbability: combined.probability,
		RiskLevel:        models.RiskLevel(combined.probability),
		TopFeatures:      combined.topFeatures,
		Recommendations:  buildRecommendations(rec, score, combined.probability),
		ModelBUsed:       combined.modelBUsed,
		GeneratedAt:      time.Now().UTC(),
	}, nil
}

type combinedPrediction struct {
	probability float64
	modelBUsed  bool
	topFeatures []models.FeatureAttribution
}

// combine runs whichever models have installed artifacts and merges their
// outputs under the fixed weighting rule. Probabilities are on the 0-100
// scale used by risk bucketing.
func (e *Explainer) combine(rec *models.UserRecord, score sentiment.Score) (*combinedPrediction, error) {
	predA, errA := e.predictWith(e.modelA, rec, score)
	predB, errB := e.predictWith(e.modelB, rec, score)
	if errA != nil {
		return nil, errA
	}
	if errB != nil {
		return nil, errB
	}

	var (
		weightA, weightB float64
		modelBUsed       bool
	)
	switch {
	case predA == nil && predB == nil:
		return nil, ErrModelUnavailable
	case predB == nil:
		weightA = 1
	case predA == nil:
		weightB = 1
		modelBUsed = true
	case score.Imputed:
		weightA, weightB = weightAImputedSentiment, weightBImputedSentiment
		modelBUsed = true
	default:
		weightA, weightB = weightARealSentiment, weightBRealSentiment
		modelBUsed = true
	}

	var probability float64
	merged := make(map[string]models.FeatureAttribution)
	if predA != nil {
		probability += weightA * predA.Probability
		mergeAttributions(merged, predA.Attributions, weightA)
	}
	if predB != nil {
		probability += weightB * predB.Probability
		mergeAttributions(merged, predB.Attributions, weightB)
	}

	return &combinedPrediction{
		probability: probability * 100,
		modelBUsed:  modelBUsed,
		topFeatures: rankAttributions(merged),
	}, nil
}

// predictWith scores a record against an estimator's current artifact.
// A missing artifact yields a nil prediction, not an error.
func (e *Explainer) predictWith(est model.Estimator, rec *models.UserRecord, score sentiment.Score) (*model.Prediction, error) {
	artifact, err := e.store.GetArtifact(est.ID())
	if errors.Is(err, state.ErrArtifactNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	pred, err := est.Predict(artifact, rec, score)
	if err != nil {
		return nil, fmt.Errorf("prediction with %s failed: %w", est.ID(), err)
	}
	return pred, nil
}

// mergeAttributions folds one model's weighted attributions into the union.
// Features attributed by both models accumulate and carry a combined label.
func mergeAttributions(merged map[string]models.FeatureAttribution, attrs []models.FeatureAttribution, weight float64) {
	for _, attr := range attrs {
		entry, ok := merged[attr.Feature]
		if !ok {
			entry = models.FeatureAttribution{
				Feature: attr.Feature,
				Value:   attr.Value,
				Model:   attr.Model,
			}
		} else {
			entry.Model = model.ModelA + "+" + model.ModelB
		}
		entry.Attribution += weight * attr.Attribution
		merged[attr.Feature] = entry
	}
}

// rankAttributions orders the union by absolute attribution descending,
// breaking ties by feature name, and keeps the top entries with their
// rationale text attached.
func rankAttributions(merged map[string]models.FeatureAttribution) []models.FeatureAttribution {
	ranked := make([]models.FeatureAttribution, 0, len(merged))
	for _, attr := range merged {
		ranked = append(ranked, attr)
	}

	sort.Slice(ranked, func(i, j int) bool {
		ai, aj := abs(ranked[i].Attribution), abs(ranked[j].Attribution)
		if ai != aj {
			return ai > aj
		}
		return ranked[i].Feature < ranked[j].Feature
	})

	if len(ranked) > topFeatureCount {
		ranked = ranked[:topFeatureCount]
	}
	for i := range ranked {
		ranked[i].Rationale = rationale(ranked[i].Feature, ranked[i].Value, ranked[i].Attribution)
	}
	return ranked
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
