// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

package api

import (
	"net/http"
	"time"
)

// Health handles GET /api/v1/health: overall status plus component detail.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	components := map[string]string{
		"database": "healthy",
	}
	status := "healthy"
	httpStatus := http.StatusOK

	if err := h.db.Ping(r.Context()); err != nil {
		components["database"] = "unhealthy: " + err.Error()
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	respondData(w, httpStatus, map[string]interface{}{
		"status":     status,
		"components": components,
	}, start)
}

// HealthLive handles GET /api/v1/health/live. Liveness means the process is
// serving; it never checks dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]string{"status": "alive"}, time.Now())
}

// HealthReady handles GET /api/v1/health/ready. Ready means the dataset
// store is reachable; model availability is reported by /status instead,
// since the service legitimately runs before first training.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := h.db.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "DATABASE_ERROR", "dataset store unreachable", err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"status": "ready"}, start)
}
