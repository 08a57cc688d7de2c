// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

package models

import "time"

// Risk bucket names.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// Risk bucket boundaries, inclusive on the lower bound:
// Low < 30, 30 <= Medium < 70, High >= 70.
const (
	riskMediumFloor = 30.0
	riskHighFloor   = 70.0
)

// RiskLevel maps a churn probability (0-100) to its risk bucket.
func RiskLevel(probability float64) string {
	switch {
	case probability >= riskHighFloor:
		return RiskHigh
	case probability >= riskMediumFloor:
		return RiskMedium
	default:
		return RiskLow
	}
}

// FeatureAttribution is one feature's contribution to a prediction.
type FeatureAttribution struct {
	Feature     string  `json:"feature"`
	Value       float64 `json:"value"`
	Attribution float64 `json:"attribution"`
	Model       string  `json:"model"`
	Rationale   string  `json:"rationale"`
}

// Explanation is the combined, attributed churn prediction for one user.
// It is derived fresh on every request from the current model artifacts and
// the user's latest record; it is never persisted.
type Explanation struct {
	UserID           int64                `json:"user_id"`
	ChurnProbability float64              `json:"churn_probability"`
	RiskLevel        string               `json:"risk_level"`
	TopFeatures      []FeatureAttribution `json:"top_features"`
	Recommendations  []string             `json:"recommendations"`
	ModelBUsed       bool                 `json:"model_b_used"`
	GeneratedAt      time.Time            `json:"generated_at"`
}

// UserPrediction is the compact per-user prediction row returned by the
// bulk listing endpoints.
type UserPrediction struct {
	UserID           int64   `json:"user_id"`
	ChurnProbability float64 `json:"churn_probability"`
	RiskLevel        string  `json:"risk_level"`
	ModelBUsed       bool    `json:"model_b_used"`
}
