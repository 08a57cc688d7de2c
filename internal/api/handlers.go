// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

package api

import (
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/churnwatch/churnwatch/internal/database"
	"github.com/churnwatch/churnwatch/internal/explain"
	"github.com/churnwatch/churnwatch/internal/ingest"
	"github.com/churnwatch/churnwatch/internal/logging"
	"github.com/churnwatch/churnwatch/internal/scheduler"
)

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	db        *database.DB
	ingest    *ingest.Service
	explainer *explain.Explainer
	scheduler *scheduler.Scheduler
	maxRows   int
}

// NewHandler creates the handler set.
func NewHandler(db *database.DB, ingestSvc *ingest.Service, explainer *explain.Explainer, sched *scheduler.Scheduler, maxBatchRows int) *Handler {
	return &Handler{
		db:        db,
		ingest:    ingestSvc,
		explainer: explainer,
		scheduler: sched,
		maxRows:   maxBatchRows,
	}
}

// Ingest handles POST /api/v1/ingest. The body is either CSV (batch upload)
// or JSON (single record or array), selected by Content-Type.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	rows, err := h.parseBody(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INGEST_ERROR", err.Error(), nil)
		return
	}
	if len(rows) > h.maxRows {
		respondError(w, http.StatusRequestEntityTooLarge, "INGEST_ERROR",
			"batch exceeds maximum of "+strconv.Itoa(h.maxRows)+" rows", nil)
		return
	}

	result, err := h.ingest.Ingest(r.Context(), rows)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to persist batch", err)
		return
	}

	status := http.StatusOK
	if result.Accepted > 0 {
		status = http.StatusCreated
	}
	respondData(w, status, result, start)
}

// maxBodyBytes bounds ingest request bodies.
const maxBodyBytes = 32 << 20

func (h *Handler) parseBody(w http.ResponseWriter, r *http.Request) ([]ingest.Row, error) {
	contentType := r.Header.Get("Content-Type")
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = body.Close() }()

	if strings.Contains(contentType, "csv") {
		return ingest.ParseCSV(body)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	return ingest.ParseJSON(data)
}

// Explanation handles GET /api/v1/explanations/{user_id}.
func (h *Handler) Explanation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "user_id must be an integer", nil)
		return
	}

	explanation, err := h.explainer.Explain(r.Context(), userID)
	switch {
	case errors.Is(err, explain.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
		return
	case errors.Is(err, explain.ErrModelUnavailable):
		respondError(w, http.StatusServiceUnavailable, "MODEL_UNAVAILABLE", "no trained model available yet", nil)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to build explanation", err)
		return
	}

	respondData(w, http.StatusOK, explanation, start)
}

// Users handles GET /api/v1/users: every known user with a current score.
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	predictions, err := h.explainer.PredictAll(r.Context())
	if errors.Is(err, explain.ErrModelUnavailable) {
		respondError(w, http.StatusServiceUnavailable, "MODEL_UNAVAILABLE", "no trained model available yet", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to score users", err)
		return
	}

	respondData(w, http.StatusOK, predictions, start)
}

// ChurnPredictions handles GET /api/v1/churn-predictions, the bulk export.
// format=csv switches to a CSV download; the default is the JSON envelope.
func (h *Handler) ChurnPredictions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	predictions, err := h.explainer.PredictAll(r.Context())
	if errors.Is(err, explain.ErrModelUnavailable) {
		respondError(w, http.StatusServiceUnavailable, "MODEL_UNAVAILABLE", "no trained model available yet", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to export predictions", err)
		return
	}

	if r.URL.Query().Get("format") != "csv" {
		respondData(w, http.StatusOK, predictions, start)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="churn_predictions.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"user_id", "churn_probability", "risk_level", "model_b_used"})
	for _, p := range predictions {
		_ = cw.Write([]string{
			strconv.FormatInt(p.UserID, 10),
			strconv.FormatFloat(p.ChurnProbability, 'f', 2, 64),
			p.RiskLevel,
			strconv.FormatBool(p.ModelBUsed),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		logging.Error().Err(err).Msg("Failed to write CSV export")
	}
}

// Status handles GET /api/v1/status: per-model counters, trigger state, and
// last training results.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	statuses, err := h.scheduler.Status(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to read scheduler status", err)
		return
	}

	respondData(w, http.StatusOK, map[string]interface{}{"models": statuses}, start)
}
