// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/churnwatch/churnwatch/internal/logging"
	"github.com/churnwatch/churnwatch/internal/metrics"
)

// requestID ensures every request carries an X-Request-ID, honoring a
// caller-supplied one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// instrument records request metrics and an access log line per request.
// The route pattern, not the raw path, labels the metrics so user IDs do
// not explode cardinality.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		endpoint := chi.RouteContext(r.Context()).RoutePattern()
		duration := time.Since(start)
		metrics.RecordAPIRequest(endpoint, r.Method, ww.Status(), duration)

		logging.Debug().
			Str("request_id", w.Header().Get("X-Request-ID")).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", duration).
			Msg("Request handled")
	})
}
