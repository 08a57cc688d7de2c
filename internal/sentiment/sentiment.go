// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

// Package sentiment scores free-text review content with the VADER lexicon.
//
// The compound score is a single value in [-1, 1]. Polarity is derived from
// fixed thresholds: >= +0.05 positive, <= -0.05 negative, neutral otherwise.
// Records without review text are imputed as neutral (compound 0), so
// downstream feature vectors keep a fixed shape.
package sentiment

import (
	"sync"

	"github.com/jonreiter/govader"
)

// Polarity classifies a compound score.
type Polarity string

// Polarity values.
const (
	Positive Polarity = "positive"
	Neutral  Polarity = "neutral"
	Negative Polarity = "negative"
)

// Compound score bounds and classification thresholds.
const (
	MinCompound = -1.0
	MaxCompound = 1.0

	positiveThreshold = 0.05
	negativeThreshold = -0.05
)

// NeutralCompound is the imputed compound score for records without review
// text: the midpoint of the scorer's range.
const NeutralCompound = 0.0

// Score is a derived sentiment summary for one review.
type Score struct {
	Compound float64  `json:"compound"`
	Polarity Polarity `json:"polarity"`
	Imputed  bool     `json:"imputed"`
}

// Scorer computes sentiment scores. Safe for concurrent use.
type Scorer struct {
	mu       sync.Mutex
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewScorer creates a Scorer backed by the default VADER lexicon.
func NewScorer() *Scorer {
	return &Scorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score computes the sentiment of the given review text. Blank text yields
// the imputed neutral score.
func (s *Scorer) Score(text string) Score {
	if isBlank(text) {
		return Imputed()
	}

	s.mu.Lock()
	compound := s.analyzer.PolarityScores(text).Compound
	s.mu.Unlock()

	return Score{
		Compound: compound,
		Polarity: Classify(compound),
		Imputed:  false,
	}
}

// Imputed returns the neutral score used when no review text exists.
func Imputed() Score {
	return Score{Compound: NeutralCompound, Polarity: Neutral, Imputed: true}
}

// Classify maps a compound score to its polarity.
func Classify(compound float64) Polarity {
	switch {
	case compound >= positiveThreshold:
		return Positive
	case compound <= negativeThreshold:
		return Negative
	default:
		return Neutral
	}
}

func isBlank(s string) bool {
	for _, c := range s {
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			return false
		}
	}
	return true
}
