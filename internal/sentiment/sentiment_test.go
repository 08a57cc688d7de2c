// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

package sentiment

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		compound float64
		want     Polarity
	}{
		{"strongly_positive", 0.8, Positive},
		{"at_positive_threshold", 0.05, Positive},
		{"just_below_positive_threshold", 0.049, Neutral},
		{"zero", 0.0, Neutral},
		{"just_above_negative_threshold", -0.049, Neutral},
		{"at_negative_threshold", -0.05, Negative},
		{"strongly_negative", -0.8, Negative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.compound); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.compound, got, tt.want)
			}
		})
	}
}

func TestScorerBlankTextImputed(t *testing.T) {
	scorer := NewScorer()

	for _, text := range []string{"", "   ", "\t\n", " \r\n "} {
		score := scorer.Score(text)
		if !score.Imputed {
			t.Errorf("Score(%q).Imputed = false, want true", text)
		}
		if score.Compound != NeutralCompound {
			t.Errorf("Score(%q).Compound = %v, want %v", text, score.Compound, NeutralCompound)
		}
		if score.Polarity != Neutral {
			t.Errorf("Score(%q).Polarity = %v, want %v", text, score.Polarity, Neutral)
		}
	}
}

func TestScorerPolarity(t *testing.T) {
	scorer := NewScorer()

	positive := scorer.Score("I love this app, it is wonderful and helpful!")
	if positive.Imputed {
		t.Error("real review text should not be imputed")
	}
	if positive.Polarity != Positive {
		t.Errorf("positive review classified %v (compound %v)", positive.Polarity, positive.Compound)
	}

	negative := scorer.Score("This app is terrible, awful and useless. I hate it.")
	if negative.Polarity != Negative {
		t.Errorf("negative review classified %v (compound %v)", negative.Polarity, negative.Compound)
	}
}

func TestScorerDeterministic(t *testing.T) {
	scorer := NewScorer()

	const text = "Pretty good app overall, some rough edges."
	first := scorer.Score(text)
	for i := 0; i < 3; i++ {
		if got := scorer.Score(text); got != first {
			t.Fatalf("Score(%q) not deterministic: %+v vs %+v", text, got, first)
		}
	}
}
