// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

package model

import (
	"context"
	"math"

	"github.com/churnwatch/churnwatch/internal/models"
)

// Training hyperparameters. Fixed iteration count and zero-initialized
// weights keep training deterministic across runs.
const (
	gdIterations   = 500
	gdLearningRate = 0.1
	gdL2Lambda     = 0.001
)

// parameters is the serialized form of a fitted logistic model. Features are
// standardized at training time; means and deviations travel with the
// weights so prediction applies the same transform.
type parameters struct {
	Features []string  `json:"features"`
	Weights  []float64 `json:"weights"`
	Bias     float64   `json:"bias"`
	Means    []float64 `json:"means"`
	Stds     []float64 `json:"stds"`
}

// fitLogistic trains a logistic regression by full-batch gradient descent.
// rows holds raw feature vectors aligned with featureNames; labels are 0/1.
// The context is checked between iterations so a scheduler timeout can abort
// a long fit.
func fitLogistic(ctx context.Context, featureNames []string, rows [][]float64, labels []float64) (*parameters, error) {
	n := len(rows)
	if n < 2 || !hasBothClasses(labels) {
		return nil, ErrInsufficientData
	}
	d := len(featureNames)

	means, stds := standardize(rows, d)

	scaled := make([][]float64, n)
	for i, row := range rows {
		s := make([]float64, d)
		for j := 0; j < d; j++ {
			s[j] = (row[j] - means[j]) / stds[j]
		}
		scaled[i] = s
	}

	weights := make([]float64, d)
	grad := make([]float64, d)
	var bias float64

	for iter := 0; iter < gdIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for j := range grad {
			grad[j] = 0
		}
		var biasGrad float64

		for i, row := range scaled {
			z := bias
			for j := 0; j < d; j++ {
				z += weights[j] * row[j]
			}
			residual := sigmoid(z) - labels[i]
			for j := 0; j < d; j++ {
				grad[j] += residual * row[j]
			}
			biasGrad += residual
		}

		inv := 1.0 / float64(n)
		for j := 0; j < d; j++ {
			weights[j] -= gdLearningRate * (grad[j]*inv + gdL2Lambda*weights[j])
		}
		bias -= gdLearningRate * biasGrad * inv
	}

	return &parameters{
		Features: featureNames,
		Weights:  weights,
		Bias:     bias,
		Means:    means,
		Stds:     stds,
	}, nil
}

// predict scores one raw feature vector. Attributions are the exact
// per-feature contributions to the logit, so they sum (with the bias) to the
// model's decision value.
func (p *parameters) predict(row []float64, modelID string) (float64, []models.FeatureAttribution) {
	z := p.Bias
	attrs := make([]models.FeatureAttribution, len(p.Features))

	for j, name := range p.Features {
		contribution := p.Weights[j] * (row[j] - p.Means[j]) / p.Stds[j]
		z += contribution
		attrs[j] = models.FeatureAttribution{
			Feature:     name,
			Value:       row[j],
			Attribution: contribution,
			Model:       modelID,
		}
	}

	return sigmoid(z), attrs
}

// standardize computes per-column means and standard deviations. Constant
// columns get a deviation of 1 so they scale to zero instead of dividing by
// zero.
func standardize(rows [][]float64, d int) (means, stds []float64) {
	n := float64(len(rows))
	means = make([]float64, d)
	stds = make([]float64, d)

	for _, row := range rows {
		for j := 0; j < d; j++ {
			means[j] += row[j]
		}
	}
	for j := 0; j < d; j++ {
		means[j] /= n
	}

	for _, row := range rows {
		for j := 0; j < d; j++ {
			diff := row[j] - means[j]
			stds[j] += diff * diff
		}
	}
	for j := 0; j < d; j++ {
		stds[j] = math.Sqrt(stds[j] / n)
		if stds[j] == 0 {
			stds[j] = 1
		}
	}
	return means, stds
}

func hasBothClasses(labels []float64) bool {
	var pos, neg bool
	for _, l := range labels {
		if l > 0.5 {
			pos = true
		} else {
			neg = true
		}
	}
	return pos && neg
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
