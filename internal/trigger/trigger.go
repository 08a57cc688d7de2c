// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

// Package trigger decides when a model is due for retraining. Evaluation is
// pure: it reads counters, a policy, and a clock value, and never touches
// storage, so the scheduler can poll it cheaply and tests can pin time.
package trigger

import (
	"time"

	"github.com/churnwatch/churnwatch/internal/config"
	"github.com/churnwatch/churnwatch/internal/state"
)

// Policy is the per-model retrain policy. A model is due when the retrain
// interval has elapsed OR enough records arrived, whichever happens first.
// MinTrainingRecords is a floor on total dataset size: a due model below the
// floor stays held until the dataset grows.
type Policy struct {
	RetrainInterval    time.Duration
	RecordsThreshold   int64
	MinTrainingRecords int64
}

// PolicyFromConfig builds a Policy from a model's configuration block.
func PolicyFromConfig(mc *config.ModelConfig) Policy {
	return Policy{
		RetrainInterval:    mc.RetrainInterval,
		RecordsThreshold:   mc.RecordsThreshold,
		MinTrainingRecords: int64(mc.MinTrainingRecords),
	}
}

// Reason identifies which trigger fired.
type Reason string

const (
	ReasonNone     Reason = "none"
	ReasonInterval Reason = "interval"
	ReasonVolume   Reason = "volume"
	ReasonBoth     Reason = "interval+volume"
)

// Decision is the outcome of one evaluation.
//
// Due means a trigger fired and the floor is met: the scheduler should start
// a training job. HeldBelowFloor means a trigger fired but the dataset is
// still below MinTrainingRecords; the model stays held, and the condition is
// re-evaluated on every poll rather than re-armed, so growth past the floor
// releases it without waiting for another interval.
type Decision struct {
	Due            bool
	Reason         Reason
	HeldBelowFloor bool

	// IntervalDeadline is when the interval trigger fires or fired.
	IntervalDeadline time.Time
	// RecordsShort is how many records the volume trigger still needs.
	RecordsShort int64
}

// Evaluate applies the dual-trigger policy to one model's counters.
// A model that has never been retrained has a zero LastRetrain, which puts
// its interval deadline far in the past: it is due as soon as the floor
// allows, covering first startup on a pre-seeded dataset.
func Evaluate(counters state.RetrainCounters, policy Policy, datasetTotal int64, now time.Time) Decision {
	deadline := counters.LastRetrain.Add(policy.RetrainInterval)

	intervalDue := !now.Before(deadline)
	volumeDue := counters.RecordsSeen >= policy.RecordsThreshold

	decision := Decision{
		IntervalDeadline: deadline,
		RecordsShort:     policy.RecordsThreshold - counters.RecordsSeen,
	}
	if decision.RecordsShort < 0 {
		decision.RecordsShort = 0
	}

	switch {
	case intervalDue && volumeDue:
		decision.Reason = ReasonBoth
	case intervalDue:
		decision.Reason = ReasonInterval
	case volumeDue:
		decision.Reason = ReasonVolume
	default:
		decision.Reason = ReasonNone
		return decision
	}

	if datasetTotal < policy.MinTrainingRecords {
		decision.HeldBelowFloor = true
		return decision
	}

	decision.Due = true
	return decision
}
