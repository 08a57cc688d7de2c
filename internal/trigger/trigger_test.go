// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

package trigger

import (
	"testing"
	"time"

	"github.com/churnwatch/churnwatch/internal/state"
)

func TestEvaluate(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	policy := Policy{
		RetrainInterval:    24 * time.Hour,
		RecordsThreshold:   20,
		MinTrainingRecords: 10,
	}

	tests := []struct {
		name          string
		counters      state.RetrainCounters
		datasetTotal  int64
		wantDue       bool
		wantReason    Reason
		wantHeldFloor bool
	}{
		{
			name:         "neither_condition_met",
			counters:     state.RetrainCounters{LastRetrain: now.Add(-1 * time.Hour), RecordsSeen: 5},
			datasetTotal: 100,
			wantDue:      false,
			wantReason:   ReasonNone,
		},
		{
			name:         "interval_elapsed",
			counters:     state.RetrainCounters{LastRetrain: now.Add(-25 * time.Hour), RecordsSeen: 5},
			datasetTotal: 100,
			wantDue:      true,
			wantReason:   ReasonInterval,
		},
		{
			name:         "interval_boundary_inclusive",
			counters:     state.RetrainCounters{LastRetrain: now.Add(-24 * time.Hour), RecordsSeen: 0},
			datasetTotal: 100,
			wantDue:      true,
			wantReason:   ReasonInterval,
		},
		{
			name:         "volume_reached",
			counters:     state.RetrainCounters{LastRetrain: now.Add(-1 * time.Hour), RecordsSeen: 25},
			datasetTotal: 100,
			wantDue:      true,
			wantReason:   ReasonVolume,
		},
		{
			name:         "volume_boundary_inclusive",
			counters:     state.RetrainCounters{LastRetrain: now.Add(-1 * time.Hour), RecordsSeen: 20},
			datasetTotal: 100,
			wantDue:      true,
			wantReason:   ReasonVolume,
		},
		{
			name:         "both_conditions",
			counters:     state.RetrainCounters{LastRetrain: now.Add(-48 * time.Hour), RecordsSeen: 30},
			datasetTotal: 100,
			wantDue:      true,
			wantReason:   ReasonBoth,
		},
		{
			name:          "due_but_below_data_floor",
			counters:      state.RetrainCounters{LastRetrain: now.Add(-48 * time.Hour), RecordsSeen: 0},
			datasetTotal:  9,
			wantDue:       false,
			wantReason:    ReasonInterval,
			wantHeldFloor: true,
		},
		{
			name:         "floor_exactly_met",
			counters:     state.RetrainCounters{LastRetrain: now.Add(-48 * time.Hour), RecordsSeen: 0},
			datasetTotal: 10,
			wantDue:      true,
			wantReason:   ReasonInterval,
		},
		{
			name:         "never_trained_is_due_immediately",
			counters:     state.RetrainCounters{},
			datasetTotal: 100,
			wantDue:      true,
			wantReason:   ReasonInterval,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.counters, policy, tt.datasetTotal, now)
			if got.Due != tt.wantDue {
				t.Errorf("Due = %v, want %v", got.Due, tt.wantDue)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %v, want %v", got.Reason, tt.wantReason)
			}
			if got.HeldBelowFloor != tt.wantHeldFloor {
				t.Errorf("HeldBelowFloor = %v, want %v", got.HeldBelowFloor, tt.wantHeldFloor)
			}
		})
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	policy := Policy{RetrainInterval: time.Hour, RecordsThreshold: 10, MinTrainingRecords: 5}
	counters := state.RetrainCounters{LastRetrain: now.Add(-30 * time.Minute), RecordsSeen: 7}

	first := Evaluate(counters, policy, 50, now)
	for i := 0; i < 3; i++ {
		if got := Evaluate(counters, policy, 50, now); got != first {
			t.Fatalf("Evaluate not idempotent: %+v vs %+v", got, first)
		}
	}
}

func TestEvaluateRecordsShort(t *testing.T) {
	now := time.Now().UTC()
	policy := Policy{RetrainInterval: 24 * time.Hour, RecordsThreshold: 20, MinTrainingRecords: 1}

	d := Evaluate(state.RetrainCounters{LastRetrain: now, RecordsSeen: 12}, policy, 100, now)
	if d.RecordsShort != 8 {
		t.Errorf("RecordsShort = %d, want 8", d.RecordsShort)
	}

	d = Evaluate(state.RetrainCounters{LastRetrain: now, RecordsSeen: 25}, policy, 100, now)
	if d.RecordsShort != 0 {
		t.Errorf("RecordsShort = %d, want 0 when over threshold", d.RecordsShort)
	}
}
