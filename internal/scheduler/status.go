// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/churnwatch/churnwatch/internal/state"
	"github.com/churnwatch/churnwatch/internal/trigger"
)

// ModelStatus is one model's operational snapshot for the status endpoint.
type ModelStatus struct {
	ModelID          string                `json:"model_id"`
	Training         bool                  `json:"training"`
	Counters         state.RetrainCounters `json:"counters"`
	Due              bool                  `json:"due"`
	TriggerReason    string                `json:"trigger_reason"`
	HeldBelowFloor   bool                  `json:"held_below_floor"`
	IntervalDeadline time.Time             `json:"interval_deadline"`
	RecordsShort     int64                 `json:"records_short"`
	ArtifactVersion  int64                 `json:"artifact_version"`
	TrainedAt        *time.Time            `json:"trained_at,omitempty"`
	LastResult       *TrainResult          `json:"last_result,omitempty"`
}

// Status reports counters, trigger state, artifact versions, and the last
// training outcome for every model.
func (s *Scheduler) Status(ctx context.Context) ([]ModelStatus, error) {
	total, err := s.db.CountRecords(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	statuses := make([]ModelStatus, 0, len(s.jobs))
	for _, job := range s.jobs {
		modelID := job.estimator.ID()

		counters, err := s.store.GetCounters(modelID)
		if err != nil {
			return nil, err
		}
		decision := trigger.Evaluate(counters, job.policy, total, now)

		status := ModelStatus{
			ModelID:          modelID,
			Training:         job.training.Load(),
			Counters:         counters,
			Due:              decision.Due,
			TriggerReason:    string(decision.Reason),
			HeldBelowFloor:   decision.HeldBelowFloor,
			IntervalDeadline: decision.IntervalDeadline,
			RecordsShort:     decision.RecordsShort,
			LastResult:       job.getLastResult(),
		}

		artifact, err := s.store.GetArtifact(modelID)
		switch {
		case errors.Is(err, state.ErrArtifactNotFound):
		case err != nil:
			return nil, err
		default:
			status.ArtifactVersion = artifact.Version
			trainedAt := artifact.TrainedAt
			status.TrainedAt = &trainedAt
		}

		statuses = append(statuses, status)
	}
	return statuses, nil
}

func (j *modelJob) getLastResult() *TrainResult {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastResult
}
