// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

// Package ingest implements the Ingestion Unit: per-row validation, central
// user-ID assignment, durable append, and retrain counter increments.
//
// Rows fail individually. A malformed row never aborts the batch; it is
// reported in the result and logged, and the remaining rows proceed.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/churnwatch/churnwatch/internal/database"
	"github.com/churnwatch/churnwatch/internal/logging"
	"github.com/churnwatch/churnwatch/internal/metrics"
	"github.com/churnwatch/churnwatch/internal/model"
	"github.com/churnwatch/churnwatch/internal/models"
	"github.com/churnwatch/churnwatch/internal/state"
	"github.com/churnwatch/churnwatch/internal/validation"
)

// Row is one parsed submission before validation and ID assignment.
// Submitted user IDs are ignored; identifiers are assigned centrally to
// avoid collisions between uploaders. DayUsage may be shorter than the
// fixed window and is zero-filled.
type Row struct {
	AvgScreenTime       float64
	AvgSpend            float64
	Rating              float64
	NewPasswordRequests float64
	LastVisitedMinutes  float64
	DayUsage            []float64
	Review              *string
	Churned             *bool

	// err carries a parse-stage failure so row numbering in results stays
	// aligned with the submitted batch.
	err error
}

// RowError describes one rejected row. Row is the 1-based position in the
// submitted batch.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Result summarizes one ingest batch.
type Result struct {
	BatchID     string     `json:"batch_id"`
	Accepted    int        `json:"accepted"`
	Rejected    []RowError `json:"rejected"`
	FirstUserID int64      `json:"first_user_id,omitempty"`
	LastUserID  int64      `json:"last_user_id,omitempty"`
}

// Service wires validation, the dataset store, and the counter store into
// the ingest path. assignMu serializes user-ID assignment across concurrent
// batches: the next free ID comes from MAX(user_id), so two batches reading
// it unguarded would hand out colliding identifiers.
type Service struct {
	db       *database.DB
	store    *state.Store
	assignMu sync.Mutex
	log      zerolog.Logger
}

// New creates an ingest service.
func New(db *database.DB, store *state.Store) *Service {
	return &Service{
		db:    db,
		store: store,
		log:   logging.With().Str("component", "ingest").Logger(),
	}
}

// Ingest validates and appends a batch of rows. Accepted rows are appended
// in arrival order with freshly assigned user IDs, then both models'
// retrain counters are incremented by the accepted count before the batch
// is acknowledged. Returns an error only when the batch cannot be appended;
// row-level failures are reported in the result, and a counter failure
// after the append committed is logged and left to reconciliation rather
// than reported as a failed batch.
func (s *Service) Ingest(ctx context.Context, rows []Row) (*Result, error) {
	start := time.Now()
	result := &Result{
		BatchID:  uuid.NewString(),
		Rejected: []RowError{},
	}

	accepted := make([]models.UserRecord, 0, len(rows))
	now := time.Now().UTC()

	for i := range rows {
		rec, err := buildRecord(&rows[i], now)
		if err != nil {
			result.Rejected = append(result.Rejected, RowError{Row: i + 1, Reason: err.Error()})
			s.log.Warn().
				Str("batch_id", result.BatchID).
				Int("row", i+1).
				Str("reason", err.Error()).
				Msg("Rejected ingest row")
			continue
		}
		accepted = append(accepted, *rec)
	}

	metrics.IngestRowsTotal.WithLabelValues("rejected").Add(float64(len(result.Rejected)))

	if len(accepted) == 0 {
		metrics.IngestBatchDuration.Observe(time.Since(start).Seconds())
		return result, nil
	}

	if err := s.assignAndAppend(ctx, accepted); err != nil {
		return nil, fmt.Errorf("failed to append batch %s: %w", result.BatchID, err)
	}

	// The dataset append above is the durability anchor: the rows are
	// committed, so a failed increment must not fail the batch. Counter
	// reconciliation recovers the count from the dataset total.
	n := int64(len(accepted))
	for _, modelID := range []string{model.ModelA, model.ModelB} {
		counters, err := s.store.AddRecords(modelID, n)
		if err != nil {
			s.log.Error().
				Err(err).
				Str("batch_id", result.BatchID).
				Str("model", modelID).
				Msg("Counter increment failed after durable append, deferring to reconciliation")
			continue
		}
		metrics.RecordsSinceRetrain.WithLabelValues(modelID).Set(float64(counters.RecordsSeen))
	}

	result.Accepted = len(accepted)
	result.FirstUserID = accepted[0].UserID
	result.LastUserID = accepted[len(accepted)-1].UserID

	metrics.IngestRowsTotal.WithLabelValues("accepted").Add(float64(result.Accepted))
	metrics.IngestBatchDuration.Observe(time.Since(start).Seconds())

	s.log.Info().
		Str("batch_id", result.BatchID).
		Int("accepted", result.Accepted).
		Int("rejected", len(result.Rejected)).
		Int64("first_user_id", result.FirstUserID).
		Int64("last_user_id", result.LastUserID).
		Msg("Ingested batch")

	return result, nil
}

// assignAndAppend assigns sequential user IDs to the batch and appends it,
// holding the assignment lock for the whole section so concurrent batches
// never observe the same MAX(user_id).
func (s *Service) assignAndAppend(ctx context.Context, accepted []models.UserRecord) error {
	s.assignMu.Lock()
	defer s.assignMu.Unlock()

	nextID, err := s.db.NextUserID(ctx)
	if err != nil {
		return fmt.Errorf("failed to assign user ids: %w", err)
	}
	for i := range accepted {
		accepted[i].UserID = nextID + int64(i)
	}

	return s.db.AppendRecords(ctx, accepted)
}

// buildRecord normalizes and validates one row. Day usage is capped at the
// per-day maximum and zero-filled to the fixed window length.
func buildRecord(row *Row, now time.Time) (*models.UserRecord, error) {
	if row.err != nil {
		return nil, row.err
	}
	if len(row.DayUsage) > models.DayWindow {
		return nil, fmt.Errorf("day_usage has %d entries, maximum is %d", len(row.DayUsage), models.DayWindow)
	}

	rec := models.UserRecord{
		AvgScreenTime:       row.AvgScreenTime,
		AvgSpend:            row.AvgSpend,
		Rating:              row.Rating,
		NewPasswordRequests: row.NewPasswordRequests,
		LastVisitedMinutes:  row.LastVisitedMinutes,
		Review:              row.Review,
		Churned:             row.Churned,
		CreatedAt:           now,
	}

	for i, v := range row.DayUsage {
		if v < 0 {
			return nil, fmt.Errorf("%s must be greater than or equal to 0", models.DayFeature(i))
		}
		if v > models.MaxDayUsage {
			v = models.MaxDayUsage
		}
		rec.DayUsage[i] = v
	}

	if verr := validation.ValidateStruct(&rec); verr != nil {
		return nil, verr
	}

	return &rec, nil
}
