// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

package validation

import (
	"strings"
	"testing"

	"github.com/churnwatch/churnwatch/internal/models"
)

func TestValidateStructPasses(t *testing.T) {
	rec := models.UserRecord{
		AvgScreenTime:      120,
		AvgSpend:           450,
		Rating:             4,
		LastVisitedMinutes: 300,
	}
	if err := ValidateStruct(&rec); err != nil {
		t.Errorf("valid record rejected: %v", err)
	}
}

func TestValidateStructFieldErrors(t *testing.T) {
	tests := []struct {
		name      string
		rec       models.UserRecord
		wantField string
		wantTag   string
	}{
		{
			name:      "negative_screen_time",
			rec:       models.UserRecord{AvgScreenTime: -1, Rating: 4},
			wantField: "AvgScreenTime",
			wantTag:   "gte",
		},
		{
			name:      "rating_over_scale",
			rec:       models.UserRecord{Rating: 6},
			wantField: "Rating",
			wantTag:   "lte",
		},
		{
			name:      "negative_spend",
			rec:       models.UserRecord{AvgSpend: -10, Rating: 4},
			wantField: "AvgSpend",
			wantTag:   "gte",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.rec)
			if verr == nil {
				t.Fatal("expected validation error")
			}

			errs := verr.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(errs), verr)
			}
			if errs[0].Field() != tt.wantField {
				t.Errorf("Field = %q, want %q", errs[0].Field(), tt.wantField)
			}
			if errs[0].Tag() != tt.wantTag {
				t.Errorf("Tag = %q, want %q", errs[0].Tag(), tt.wantTag)
			}
		})
	}
}

func TestToAPIErrorSingleField(t *testing.T) {
	rec := models.UserRecord{Rating: 9}
	verr := ValidateStruct(&rec)
	if verr == nil {
		t.Fatal("expected validation error")
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "less than or equal to") {
		t.Errorf("Message = %q, want lte translation", apiErr.Message)
	}
	if apiErr.Details["field"] != "Rating" {
		t.Errorf("Details.field = %v, want Rating", apiErr.Details["field"])
	}
}

func TestToAPIErrorMultipleFields(t *testing.T) {
	rec := models.UserRecord{AvgScreenTime: -5, AvgSpend: -3}
	verr := ValidateStruct(&rec)
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if len(verr.Errors()) < 2 {
		t.Fatalf("got %d errors, want at least 2", len(verr.Errors()))
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Error("multi-field error should carry a fields detail list")
	}
}

func TestGetValidatorSingleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator should return the same instance")
	}
}
