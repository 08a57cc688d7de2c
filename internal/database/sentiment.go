// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/churnwatch/churnwatch/internal/models"
	"github.com/churnwatch/churnwatch/internal/sentiment"
)

// PutSentiment caches a computed sentiment score for a user. The latest row
// per user wins, mirroring the append-only record table.
func (db *DB) PutSentiment(ctx context.Context, userID int64, score sentiment.Score) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO sentiment_scores (user_id, compound, polarity, imputed, computed_at) VALUES (?, ?, ?, ?, ?)",
		userID, score.Compound, string(score.Polarity), score.Imputed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to cache sentiment for user %d: %w", userID, err)
	}
	return nil
}

// GetSentiment returns the most recent cached sentiment score for a user,
// or ErrRecordNotFound when nothing has been cached.
func (db *DB) GetSentiment(ctx context.Context, userID int64) (sentiment.Score, error) {
	return db.sentimentSince(ctx, userID, time.Time{})
}

// sentimentSince returns the newest cached score computed at or after
// notBefore. A score computed before a correction record was appended
// reflects the old review text and must not serve that record.
func (db *DB) sentimentSince(ctx context.Context, userID int64, notBefore time.Time) (sentiment.Score, error) {
	var (
		score    sentiment.Score
		polarity string
	)
	err := db.conn.QueryRowContext(ctx,
		"SELECT compound, polarity, imputed FROM sentiment_scores WHERE user_id = ? AND computed_at >= ? ORDER BY computed_at DESC LIMIT 1",
		userID, notBefore).Scan(&score.Compound, &polarity, &score.Imputed)
	if errors.Is(err, sql.ErrNoRows) {
		return sentiment.Score{}, ErrRecordNotFound
	}
	if err != nil {
		return sentiment.Score{}, fmt.Errorf("failed to read sentiment for user %d: %w", userID, err)
	}
	score.Polarity = sentiment.Polarity(polarity)
	return score, nil
}

// SentimentFor resolves the sentiment score for a record: a cached value at
// least as fresh as the record if present, otherwise computed through the
// scorer and cached. Records without review text yield the imputed neutral
// score.
func (db *DB) SentimentFor(ctx context.Context, rec *models.UserRecord, scorer *sentiment.Scorer) (sentiment.Score, error) {
	if cached, err := db.sentimentSince(ctx, rec.UserID, rec.CreatedAt); err == nil {
		return cached, nil
	} else if !errors.Is(err, ErrRecordNotFound) {
		return sentiment.Score{}, err
	}

	if !rec.HasReview() {
		return sentiment.Imputed(), nil
	}

	score := scorer.Score(*rec.Review)
	if err := db.PutSentiment(ctx, rec.UserID, score); err != nil {
		return sentiment.Score{}, err
	}
	return score, nil
}
