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
	"strings"
	"time"

	"github.com/churnwatch/churnwatch/internal/metrics"
	"github.com/churnwatch/churnwatch/internal/models"
)

// ErrRecordNotFound is returned when no record exists for a user.
var ErrRecordNotFound = errors.New("user record not found")

// FirstAssignedUserID is the floor for auto-assigned user identifiers.
// Incoming identifiers on bulk uploads are ignored; IDs are managed
// centrally to avoid collisions.
const FirstAssignedUserID = 2000

// recordColumns returns the insert/select column list in schema order,
// excluding seq.
func recordColumns() []string {
	cols := []string{
		"user_id",
		"avg_screen_time",
		"avg_spend",
		"rating",
		"new_password_requests",
		"last_visited_minutes",
	}
	for i := 0; i < models.DayWindow; i++ {
		cols = append(cols, models.DayFeature(i))
	}
	return append(cols, "review", "is_churned", "created_at")
}

// AppendRecords appends records to the dataset in arrival order inside a
// single transaction. Records are never updated or deleted afterwards.
// Concurrent batches are serialized so sequence numbers stay unique.
func (db *DB) AppendRecords(ctx context.Context, records []models.UserRecord) error {
	if len(records) == 0 {
		return nil
	}

	db.appendMu.Lock()
	defer db.appendMu.Unlock()

	start := time.Now()
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin append transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var baseSeq int64
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) FROM user_records").Scan(&baseSeq); err != nil {
		return fmt.Errorf("failed to read max seq: %w", err)
	}

	cols := recordColumns()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)+1), ", ")
	insertSQL := fmt.Sprintf("INSERT INTO user_records (seq, %s) VALUES (%s)",
		strings.Join(cols, ", "), placeholders)

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range records {
		rec := &records[i]
		args := make([]interface{}, 0, len(cols)+1)
		args = append(args, baseSeq+int64(i)+1,
			rec.UserID,
			rec.AvgScreenTime,
			rec.AvgSpend,
			rec.Rating,
			rec.NewPasswordRequests,
			rec.LastVisitedMinutes,
		)
		for d := 0; d < models.DayWindow; d++ {
			args = append(args, rec.DayUsage[d])
		}
		args = append(args, nullString(rec.Review), nullBool(rec.Churned), rec.CreatedAt)

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert record for user %d: %w", rec.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit append: %w", err)
	}

	metrics.DBQueryDuration.WithLabelValues("append", "user_records").Observe(time.Since(start).Seconds())
	metrics.DatasetRecords.Add(float64(len(records)))
	return nil
}

// CountRecords returns the total number of appended records.
func (db *DB) CountRecords(ctx context.Context) (int64, error) {
	var n int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_records").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// NextUserID returns the next free auto-assigned user identifier.
func (db *DB) NextUserID(ctx context.Context) (int64, error) {
	var maxID sql.NullInt64
	if err := db.conn.QueryRowContext(ctx, "SELECT MAX(user_id) FROM user_records").Scan(&maxID); err != nil {
		return 0, fmt.Errorf("failed to read max user id: %w", err)
	}
	if !maxID.Valid || maxID.Int64 < FirstAssignedUserID {
		return FirstAssignedUserID, nil
	}
	return maxID.Int64 + 1, nil
}

// Snapshot returns all records in arrival order. Training jobs call this
// once at job start; rows appended afterwards are not part of the snapshot.
func (db *DB) Snapshot(ctx context.Context) ([]models.UserRecord, error) {
	start := time.Now()
	query := fmt.Sprintf("SELECT %s FROM user_records ORDER BY seq", strings.Join(recordColumns(), ", "))

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}

	metrics.DBQueryDuration.WithLabelValues("snapshot", "user_records").Observe(time.Since(start).Seconds())
	return records, nil
}

// LatestRecord returns the most recently appended record for the user.
// Corrections arrive as new records, so the latest row wins.
func (db *DB) LatestRecord(ctx context.Context, userID int64) (*models.UserRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM user_records WHERE user_id = ? ORDER BY seq DESC LIMIT 1",
		strings.Join(recordColumns(), ", "))

	rows, err := db.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query record for user %d: %w", userID, err)
	}
	defer func() { _ = rows.Close() }()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrRecordNotFound
	}
	return &records[0], nil
}

// LatestRecords returns the most recent record per user, ordered by user id.
func (db *DB) LatestRecords(ctx context.Context) ([]models.UserRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM user_records
		QUALIFY ROW_NUMBER() OVER (PARTITION BY user_id ORDER BY seq DESC) = 1
		ORDER BY user_id`, strings.Join(recordColumns(), ", "))

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]models.UserRecord, error) {
	var records []models.UserRecord
	for rows.Next() {
		var (
			rec     models.UserRecord
			review  sql.NullString
			churned sql.NullBool
		)

		dests := make([]interface{}, 0, len(recordColumns()))
		dests = append(dests,
			&rec.UserID,
			&rec.AvgScreenTime,
			&rec.AvgSpend,
			&rec.Rating,
			&rec.NewPasswordRequests,
			&rec.LastVisitedMinutes,
		)
		for d := 0; d < models.DayWindow; d++ {
			dests = append(dests, &rec.DayUsage[d])
		}
		dests = append(dests, &review, &churned, &rec.CreatedAt)

		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		if review.Valid {
			rec.Review = &review.String
		}
		if churned.Valid {
			rec.Churned = &churned.Bool
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("record iteration failed: %w", err)
	}
	return records, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
