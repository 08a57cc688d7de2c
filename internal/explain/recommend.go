// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

package explain

import (
	"github.com/churnwatch/churnwatch/internal/models"
	"github.com/churnwatch/churnwatch/internal/sentiment"
)

// maxRecommendations caps the deduplicated recommendation list.
const maxRecommendations = 5

// sevenDaysMinutes is the long-absence threshold for the win-back nudge.
const sevenDaysMinutes = 7 * 24 * 60

// buildRecommendations applies the fixed rule table over observed values,
// sentiment, and the combined probability. Rules fire in a fixed order and
// the result is deduplicated and capped, so the output is deterministic.
func buildRecommendations(rec *models.UserRecord, score sentiment.Score, probability float64) []string {
	var recs []string

	if rec.Churned != nil && *rec.Churned {
		recs = append(recs, "Win-back campaign: offer a limited-time incentive and a quick reactivation path.")
	} else if probability >= 70 {
		recs = append(recs, "Re-engage with a personalized check-in and highlight features they have missed.")
	}

	if rec.AvgScreenTime > 240 {
		recs = append(recs, "Encourage healthier usage with screen-break reminders and wellness tips.")
	}

	switch {
	case rec.Rating > 0 && rec.Rating <= 2:
		recs = append(recs, "Apologize and offer priority support to address low satisfaction.")
	case rec.Rating > 0 && rec.Rating <= 3:
		recs = append(recs, "Ask for quick feedback and provide a small perk to improve the experience.")
	}

	if rec.LastVisitedMinutes > sevenDaysMinutes {
		recs = append(recs, "Send a 'we miss you' nudge with a simple return path.")
	}

	if !score.Imputed {
		switch s := score.Compound; {
		case s < -0.2:
			recs = append(recs, "Reach out with empathetic support to address dissatisfaction.")
		case s <= 0.2:
			recs = append(recs, "Invite feedback via a one-question survey to understand needs.")
		case s <= 0.5:
			recs = append(recs, "Thank them and suggest premium or value features they might like.")
		default:
			recs = append(recs, "Ask for a public review or referrals; offer referral credits.")
		}
	}

	// Always include a discovery prompt.
	recs = append(recs, "Offer smart tips to help the user explore underused features.")

	deduped := make([]string, 0, maxRecommendations)
	seen := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		deduped = append(deduped, r)
		if len(deduped) == maxRecommendations {
			break
		}
	}
	return deduped
}
