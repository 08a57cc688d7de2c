// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

// Package scheduler drives model retraining. A single poll loop evaluates
// each model's trigger; due models train in their own goroutine with
// at-most-one run in flight per model. The two models may train
// concurrently. Training failures are logged and retried on the next
// trigger, never escalated.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/churnwatch/churnwatch/internal/config"
	"github.com/churnwatch/churnwatch/internal/database"
	"github.com/churnwatch/churnwatch/internal/logging"
	"github.com/churnwatch/churnwatch/internal/metrics"
	"github.com/churnwatch/churnwatch/internal/model"
	"github.com/churnwatch/churnwatch/internal/models"
	"github.com/churnwatch/churnwatch/internal/sentiment"
	"github.com/churnwatch/churnwatch/internal/state"
	"github.com/churnwatch/churnwatch/internal/trigger"
)

// Scheduler owns the retrain loop for all models.
type Scheduler struct {
	db     *database.DB
	store  *state.Store
	scorer *sentiment.Scorer
	cfg    *config.SchedulerConfig
	jobs   []*modelJob
	log    zerolog.Logger
	name   string
}

// modelJob is the per-model training state machine: Idle or Training,
// tracked by the training flag.
type modelJob struct {
	estimator model.Estimator
	policy    trigger.Policy
	training  atomic.Bool

	mu               sync.Mutex
	lastResult       *TrainResult
	warnedBelowFloor bool
}

// TrainResult records the outcome of the most recent training run.
type TrainResult struct {
	ModelID     string        `json:"model_id"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	Reason      string        `json:"reason"`
	Version     int64         `json:"version,omitempty"`
	RecordCount int64         `json:"record_count,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// New creates a scheduler for the given estimators and their policies.
func New(db *database.DB, store *state.Store, scorer *sentiment.Scorer, cfg *config.Config) *Scheduler {
	return &Scheduler{
		db:     db,
		store:  store,
		scorer: scorer,
		cfg:    &cfg.Scheduler,
		jobs: []*modelJob{
			{estimator: model.NewNumericEstimator(), policy: trigger.PolicyFromConfig(&cfg.ModelA)},
			{estimator: model.NewSentimentEstimator(), policy: trigger.PolicyFromConfig(&cfg.ModelB)},
		},
		log:  logging.With().Str("component", "scheduler").Logger(),
		name: "retrain-scheduler",
	}
}

// Serve implements the suture.Service interface: reconcile counters, then
// poll triggers until the context is canceled.
func (s *Scheduler) Serve(ctx context.Context) error {
	s.log.Info().
		Dur("poll_interval", s.cfg.PollInterval).
		Bool("train_on_startup", s.cfg.TrainOnStartup).
		Msg("Retrain scheduler starting")

	if err := s.reconcile(ctx); err != nil {
		return err
	}

	if s.cfg.TrainOnStartup {
		for _, job := range s.jobs {
			s.startTraining(ctx, job, "startup")
		}
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Retrain scheduler shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

// String returns the service name for supervisor logging.
func (s *Scheduler) String() string {
	return s.name
}

// reconcile repairs each model's records-seen counter against the dataset
// total. A crash between a batch append and its counter increment leaves
// the counter behind; the dataset never undercounts.
func (s *Scheduler) reconcile(ctx context.Context) error {
	total, err := s.db.CountRecords(ctx)
	if err != nil {
		return err
	}

	for _, job := range s.jobs {
		counters, repaired, err := s.store.Reconcile(job.estimator.ID(), total)
		if err != nil {
			return err
		}
		metrics.RecordsSinceRetrain.WithLabelValues(job.estimator.ID()).Set(float64(counters.RecordsSeen))
		if repaired {
			s.log.Warn().
				Str("model", job.estimator.ID()).
				Int64("records_seen", counters.RecordsSeen).
				Msg("Repaired retrain counter from dataset total")
		}
	}
	return nil
}

// poll evaluates every model's trigger once.
func (s *Scheduler) poll(ctx context.Context) {
	total, err := s.db.CountRecords(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Trigger poll failed to read dataset total")
		return
	}

	now := time.Now().UTC()
	for _, job := range s.jobs {
		s.evaluateJob(ctx, job, total, now)
	}
}

func (s *Scheduler) evaluateJob(ctx context.Context, job *modelJob, total int64, now time.Time) {
	modelID := job.estimator.ID()

	if job.training.Load() {
		return
	}

	counters, err := s.store.GetCounters(modelID)
	if err != nil {
		s.log.Error().Err(err).Str("model", modelID).Msg("Failed to read retrain counters")
		return
	}

	decision := trigger.Evaluate(counters, job.policy, total, now)

	switch {
	case decision.Due:
		job.setBelowFloorWarned(false)
		s.startTraining(ctx, job, string(decision.Reason))
	case decision.HeldBelowFloor:
		// Standing condition, re-checked every poll. Warn once per episode
		// so logs do not repeat on every tick.
		if !job.setBelowFloorWarned(true) {
			metrics.DataFloorWarnings.WithLabelValues(modelID).Inc()
			s.log.Warn().
				Str("model", modelID).
				Str("reason", string(decision.Reason)).
				Int64("dataset_total", total).
				Int64("min_training_records", job.policy.MinTrainingRecords).
				Msg("Retrain due but dataset below minimum training size")
		}
	default:
		job.setBelowFloorWarned(false)
	}
}

// startTraining launches one training run unless the model is already
// training. The run gets its own timeout derived from the service context.
func (s *Scheduler) startTraining(ctx context.Context, job *modelJob, reason string) {
	if !job.training.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer job.training.Store(false)

		trainCtx, cancel := context.WithTimeout(ctx, s.cfg.TrainTimeout)
		defer cancel()

		s.runTraining(trainCtx, job, reason)
	}()
}

func (s *Scheduler) runTraining(ctx context.Context, job *modelJob, reason string) {
	modelID := job.estimator.ID()
	start := time.Now()
	result := &TrainResult{
		ModelID:   modelID,
		StartedAt: start.UTC(),
		Reason:    reason,
	}
	defer func() {
		result.Duration = time.Since(start)
		job.setLastResult(result)
	}()

	s.log.Info().Str("model", modelID).Str("reason", reason).Msg("Training started")

	snapshot, err := s.db.Snapshot(ctx)
	if err != nil {
		s.failTraining(job, result, "failure", err)
		return
	}

	// The trigger's floor check gates on the dataset total; the labeled
	// count can still be lower, so the floor travels with the snapshot and
	// is enforced again at fit time. This also covers startup training,
	// which bypasses trigger evaluation entirely.
	data := &model.TrainingData{
		Records:    snapshot,
		Sentiments: s.snapshotSentiments(snapshot),
		MinRecords: job.policy.MinTrainingRecords,
	}

	artifact, err := job.estimator.Train(ctx, data)
	if err != nil {
		outcome := "failure"
		if errors.Is(err, model.ErrInsufficientData) {
			outcome = "insufficient_data"
		}
		s.failTraining(job, result, outcome, err)
		return
	}

	installed, err := s.store.PutArtifact(artifact)
	if err != nil {
		s.failTraining(job, result, "failure", err)
		return
	}

	snapshotTotal := int64(len(snapshot))
	if err := s.store.ResetCounters(modelID, time.Now().UTC(), snapshotTotal); err != nil {
		s.failTraining(job, result, "failure", err)
		return
	}

	// Rows appended while training ran are not in the snapshot; recover
	// them into the fresh counter immediately rather than at next startup.
	if total, err := s.db.CountRecords(ctx); err == nil {
		if counters, _, rerr := s.store.Reconcile(modelID, total); rerr == nil {
			metrics.RecordsSinceRetrain.WithLabelValues(modelID).Set(float64(counters.RecordsSeen))
		}
	}

	result.Version = installed.Version
	result.RecordCount = installed.RecordCount

	metrics.TrainingAttempts.WithLabelValues(modelID, "success").Inc()
	metrics.TrainingDuration.WithLabelValues(modelID).Observe(time.Since(start).Seconds())
	metrics.ModelVersion.WithLabelValues(modelID).Set(float64(installed.Version))

	s.log.Info().
		Str("model", modelID).
		Int64("version", installed.Version).
		Int64("labeled_records", installed.RecordCount).
		Dur("duration", time.Since(start)).
		Msg("Training complete, artifact installed")
}

// failTraining records a failed run. Artifacts and counters stay untouched
// so the previous model keeps serving and the trigger re-fires next poll.
func (s *Scheduler) failTraining(job *modelJob, result *TrainResult, outcome string, err error) {
	result.Error = err.Error()
	metrics.TrainingAttempts.WithLabelValues(result.ModelID, outcome).Inc()

	evt := s.log.Error()
	if outcome == "insufficient_data" {
		evt = s.log.Warn()
	}
	evt.Err(err).Str("model", result.ModelID).Str("reason", result.Reason).Msg("Training failed")
}

// snapshotSentiments scores review text per user for Model B. Later records
// win, matching the corrections-as-new-records policy; users whose latest
// record has no review get the imputed neutral score.
func (s *Scheduler) snapshotSentiments(records []models.UserRecord) map[int64]sentiment.Score {
	scores := make(map[int64]sentiment.Score)
	for i := range records {
		rec := &records[i]
		if rec.HasReview() {
			scores[rec.UserID] = s.scorer.Score(*rec.Review)
		} else {
			scores[rec.UserID] = sentiment.Imputed()
		}
	}
	return scores
}

func (j *modelJob) setLastResult(r *TrainResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.lastResult = r
}

// setBelowFloorWarned updates the standing-warning latch and reports its
// previous value.
func (j *modelJob) setBelowFloorWarned(v bool) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	prev := j.warnedBelowFloor
	j.warnedBelowFloor = v
	return prev
}
