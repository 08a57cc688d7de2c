// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

package explain

import (
	"strings"
	"testing"

	"github.com/churnwatch/churnwatch/internal/models"
	"github.com/churnwatch/churnwatch/internal/sentiment"
)

func TestBuildRecommendations(t *testing.T) {
	churned := true
	notChurned := false

	tests := []struct {
		name        string
		rec         models.UserRecord
		score       sentiment.Score
		probability float64
		wantContain string
	}{
		{
			name:        "churned_user_gets_win_back",
			rec:         models.UserRecord{Churned: &churned, Rating: 4},
			score:       sentiment.Imputed(),
			probability: 20,
			wantContain: "Win-back",
		},
		{
			name:        "high_risk_gets_re_engage",
			rec:         models.UserRecord{Churned: &notChurned, Rating: 4},
			score:       sentiment.Imputed(),
			probability: 85,
			wantContain: "Re-engage",
		},
		{
			name:        "heavy_screen_time_gets_wellness",
			rec:         models.UserRecord{AvgScreenTime: 300, Rating: 4},
			score:       sentiment.Imputed(),
			probability: 10,
			wantContain: "screen-break",
		},
		{
			name:        "very_low_rating_gets_apology",
			rec:         models.UserRecord{Rating: 1},
			score:       sentiment.Imputed(),
			probability: 10,
			wantContain: "priority support",
		},
		{
			name:        "middling_rating_gets_feedback_ask",
			rec:         models.UserRecord{Rating: 3},
			score:       sentiment.Imputed(),
			probability: 10,
			wantContain: "small perk",
		},
		{
			name:        "long_absence_gets_nudge",
			rec:         models.UserRecord{Rating: 4, LastVisitedMinutes: 8 * 24 * 60},
			score:       sentiment.Imputed(),
			probability: 10,
			wantContain: "we miss you",
		},
		{
			name:        "negative_sentiment_gets_empathy",
			rec:         models.UserRecord{Rating: 4},
			score:       sentiment.Score{Compound: -0.6, Polarity: sentiment.Negative},
			probability: 10,
			wantContain: "empathetic support",
		},
		{
			name:        "glowing_sentiment_gets_referral_ask",
			rec:         models.UserRecord{Rating: 5},
			score:       sentiment.Score{Compound: 0.8, Polarity: sentiment.Positive},
			probability: 10,
			wantContain: "referral",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := buildRecommendations(&tt.rec, tt.score, tt.probability)
			if len(recs) == 0 {
				t.Fatal("expected at least one recommendation")
			}
			found := false
			for _, r := range recs {
				if strings.Contains(r, tt.wantContain) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("recommendations %v missing one containing %q", recs, tt.wantContain)
			}
		})
	}
}

func TestRecommendationsAlwaysIncludeDiscovery(t *testing.T) {
	recs := buildRecommendations(&models.UserRecord{Rating: 5}, sentiment.Imputed(), 5)

	found := false
	for _, r := range recs {
		if strings.Contains(r, "smart tips") {
			found = true
		}
	}
	if !found {
		t.Errorf("discovery prompt missing from %v", recs)
	}
}

func TestRecommendationsCappedAndUnique(t *testing.T) {
	// A user matching every rule at once.
	churned := true
	rec := models.UserRecord{
		Churned:            &churned,
		AvgScreenTime:      500,
		Rating:             1,
		LastVisitedMinutes: 30 * 24 * 60,
	}
	score := sentiment.Score{Compound: -0.9, Polarity: sentiment.Negative}

	recs := buildRecommendations(&rec, score, 95)
	if len(recs) > maxRecommendations {
		t.Errorf("got %d recommendations, want at most %d", len(recs), maxRecommendations)
	}

	seen := make(map[string]struct{})
	for _, r := range recs {
		if _, dup := seen[r]; dup {
			t.Errorf("duplicate recommendation %q", r)
		}
		seen[r] = struct{}{}
	}
}

func TestRecommendationsDeterministic(t *testing.T) {
	rec := models.UserRecord{Rating: 2, LastVisitedMinutes: 9 * 24 * 60}
	score := sentiment.Score{Compound: 0.1, Polarity: sentiment.Positive}

	first := buildRecommendations(&rec, score, 50)
	second := buildRecommendations(&rec, score, 50)

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("recommendation %d differs: %q vs %q", i, first[i], second[i])
		}
	}
}
