// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

// Package models defines the core data types shared across ChurnWatch:
// user records, explanations, and API response envelopes.
package models

import (
	"strconv"
	"time"
)

// DayWindow is the fixed length of the per-day usage window on every record.
// Shorter input sequences are zero-filled to this length at ingestion.
const DayWindow = 30

// MaxDayUsage caps per-day usage values at ingestion time. Values above this
// are clamped, matching the upstream dataset cleaning rules.
const MaxDayUsage = 300

// MaxRating is the upper bound of the user rating scale.
const MaxRating = 5

// UserRecord is one immutable user-event snapshot. Corrections arrive as new
// records, never as in-place edits.
type UserRecord struct {
	UserID int64 `json:"user_id"`

	// Numeric behavioral features. All non-negative.
	AvgScreenTime       float64 `json:"avg_screen_time" validate:"gte=0"`
	AvgSpend            float64 `json:"avg_spend" validate:"gte=0"`
	Rating              float64 `json:"rating" validate:"gte=0,lte=5"`
	NewPasswordRequests float64 `json:"new_password_requests" validate:"gte=0"`
	LastVisitedMinutes  float64 `json:"last_visited_minutes" validate:"gte=0"`

	// DayUsage is the bounded per-day usage window, zero-filled when absent.
	DayUsage [DayWindow]float64 `json:"day_usage"`

	// Review is optional free-text review content.
	Review *string `json:"review,omitempty"`

	// Churned is the training label. Records without a label are scored but
	// excluded from training.
	Churned *bool `json:"is_churned,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// HasReview reports whether the record carries non-blank review text.
func (r *UserRecord) HasReview() bool {
	if r.Review == nil {
		return false
	}
	for _, c := range *r.Review {
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			return true
		}
	}
	return false
}

// Feature names used by the model feature schemas and attribution merge.
// Day-window features are day_1 .. day_30 (see DayFeature).
const (
	FeatureAvgScreenTime       = "avg_screen_time"
	FeatureAvgSpend            = "avg_spend"
	FeatureRating              = "rating"
	FeatureNewPasswordRequests = "new_password_requests"
	FeatureLastVisitedMinutes  = "last_visited_minutes"
	FeatureCompoundScore       = "compound_score"
)

// DayFeature returns the feature name for day-window index i (0-based),
// i.e. day_1 .. day_30.
func DayFeature(i int) string {
	return "day_" + strconv.Itoa(i+1)
}
