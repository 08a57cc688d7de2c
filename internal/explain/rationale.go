// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

package explain

import (
	"fmt"
	"strings"

	"github.com/churnwatch/churnwatch/internal/models"
)

// rationale renders one attribution as a plain-language sentence keyed on
// the feature and its observed value.
func rationale(feature string, value, attribution float64) string {
	direction := "reduces"
	if attribution > 0 {
		direction = "increases"
	}
	strength := impactStrength(attribution)

	switch feature {
	case models.FeatureAvgScreenTime:
		return screenTimeRationale(value, strength, direction)
	case models.FeatureAvgSpend:
		return fmt.Sprintf("Average in-app spend of %.2f %s %s churn risk.", value, strength, direction)
	case models.FeatureRating:
		return ratingRationale(value, strength, direction)
	case models.FeatureNewPasswordRequests:
		return passwordRationale(value, strength, direction)
	case models.FeatureLastVisitedMinutes:
		return lastVisitRationale(value, strength, direction)
	case models.FeatureCompoundScore:
		return sentimentRationale(value, strength, direction)
	}

	if day, ok := dayIndex(feature); ok {
		return dayRationale(day, value, strength, direction)
	}
	return fmt.Sprintf("%s of %.2f %s %s churn risk.", feature, value, strength, direction)
}

// impactStrength maps attribution magnitude to a qualifier.
func impactStrength(attribution float64) string {
	switch a := abs(attribution); {
	case a > 0.3:
		return "significantly"
	case a > 0.1:
		return "moderately"
	default:
		return "slightly"
	}
}

func screenTimeRationale(value float64, strength, direction string) string {
	switch {
	case value < 30:
		return fmt.Sprintf("Low engagement (%.0f min/day) %s %s churn risk; the user barely opens the app.", value, strength, direction)
	case value < 120:
		return fmt.Sprintf("Moderate usage (%.0f min/day) %s %s churn risk.", value, strength, direction)
	default:
		return fmt.Sprintf("Heavy usage (%.0f min/day) %s %s churn risk; this is a highly engaged user.", value, strength, direction)
	}
}

func ratingRationale(value float64, strength, direction string) string {
	switch {
	case value >= 4:
		return fmt.Sprintf("High rating (%.0f/5) %s %s churn risk; the user appreciates the app.", value, strength, direction)
	case value >= 3:
		return fmt.Sprintf("Average rating (%.0f/5) %s %s churn risk; room for improvement.", value, strength, direction)
	default:
		return fmt.Sprintf("Low rating (%.0f/5) %s %s churn risk; the user is dissatisfied.", value, strength, direction)
	}
}

func passwordRationale(value float64, strength, direction string) string {
	switch {
	case value == 0:
		return fmt.Sprintf("No password resets %s %s churn risk; login has been frictionless.", strength, direction)
	case value == 1:
		return fmt.Sprintf("One password reset %s %s churn risk; minor login friction.", strength, direction)
	default:
		return fmt.Sprintf("Multiple password resets (%.0f) %s %s churn risk; significant login friction.", value, strength, direction)
	}
}

func lastVisitRationale(value float64, strength, direction string) string {
	hours := value / 60
	switch {
	case hours < 24:
		return fmt.Sprintf("Seen %.1f hours ago %s %s churn risk; active recently.", hours, strength, direction)
	case hours < 168:
		return fmt.Sprintf("Inactive for %.1f days %s %s churn risk; starting to drift away.", hours/24, strength, direction)
	default:
		return fmt.Sprintf("Absent for %.0f days %s %s churn risk; the user may already be gone.", hours/24, strength, direction)
	}
}

func sentimentRationale(value float64, strength, direction string) string {
	switch {
	case value < -0.3:
		return fmt.Sprintf("Very negative review sentiment (%.2f) %s %s churn risk.", value, strength, direction)
	case value < -0.1:
		return fmt.Sprintf("Somewhat negative review sentiment (%.2f) %s %s churn risk.", value, strength, direction)
	case value > 0.3:
		return fmt.Sprintf("Very positive review sentiment (%.2f) %s %s churn risk.", value, strength, direction)
	case value > 0.1:
		return fmt.Sprintf("Positive review sentiment (%.2f) %s %s churn risk.", value, strength, direction)
	default:
		return fmt.Sprintf("Neutral review sentiment (%.2f) %s %s churn risk.", value, strength, direction)
	}
}

// dayRationale groups day-window features into engagement weeks.
func dayRationale(day int, value float64, strength, direction string) string {
	week := (day-1)/7 + 1
	switch {
	case value == 0:
		return fmt.Sprintf("No activity on day %d (week %d) %s %s churn risk.", day, week, strength, direction)
	case value < 3:
		return fmt.Sprintf("Low activity on day %d (week %d, %.0f sessions) %s %s churn risk.", day, week, value, strength, direction)
	default:
		return fmt.Sprintf("Good activity on day %d (week %d, %.0f sessions) %s %s churn risk.", day, week, value, strength, direction)
	}
}

// dayIndex parses "day_N" feature names, returning the 1-based day.
func dayIndex(feature string) (int, bool) {
	rest, ok := strings.CutPrefix(feature, "day_")
	if !ok {
		return 0, false
	}
	day := 0
	for _, c := range rest {
		if c < '0' || c > '9' {
			return 0, false
		}
		day = day*10 + int(c-'0')
	}
	if day < 1 || day > models.DayWindow {
		return 0, false
	}
	return day, true
}
