// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

package models

import "testing"

func TestRiskLevel(t *testing.T) {
	tests := []struct {
		name        string
		probability float64
		want        string
	}{
		{"zero", 0, RiskLow},
		{"just_below_medium", 29.999, RiskLow},
		{"medium_lower_bound_inclusive", 30, RiskMedium},
		{"mid_medium", 50, RiskMedium},
		{"just_below_high", 69.999, RiskMedium},
		{"high_lower_bound_inclusive", 70, RiskHigh},
		{"high", 72, RiskHigh},
		{"max", 100, RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RiskLevel(tt.probability); got != tt.want {
				t.Errorf("RiskLevel(%v) = %q, want %q", tt.probability, got, tt.want)
			}
		})
	}
}

func TestDayFeature(t *testing.T) {
	if got := DayFeature(0); got != "day_1" {
		t.Errorf("DayFeature(0) = %q, want day_1", got)
	}
	if got := DayFeature(DayWindow - 1); got != "day_30" {
		t.Errorf("DayFeature(29) = %q, want day_30", got)
	}
}

func TestHasReview(t *testing.T) {
	blank := "   \t\n"
	text := "decent app"

	tests := []struct {
		name   string
		review *string
		want   bool
	}{
		{"nil", nil, false},
		{"blank", &blank, false},
		{"text", &text, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := UserRecord{Review: tt.review}
			if got := rec.HasReview(); got != tt.want {
				t.Errorf("HasReview() = %v, want %v", got, tt.want)
			}
		})
	}
}
