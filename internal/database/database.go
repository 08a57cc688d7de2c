// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

// Package database implements the Dataset Store: an append-only DuckDB table
// of user records plus a sentiment score cache.
//
// The store supports concurrent append-while-read. Training jobs take a
// point-in-time snapshot at job start; rows appended afterwards are not part
// of that snapshot but remain counted toward the next retrain.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/churnwatch/churnwatch/internal/config"
	"github.com/churnwatch/churnwatch/internal/models"
)

// DB wraps the DuckDB connection and provides data access methods.
// appendMu serializes appends: each batch reads MAX(seq) before inserting,
// so two in-flight appends would otherwise claim the same sequence numbers.
type DB struct {
	conn     *sql.DB
	cfg      *config.DatabaseConfig
	appendMu sync.Mutex
}

// New creates a new database connection and initializes the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure parent directory exists for the database file.
	if dbDir := filepath.Dir(cfg.Path); dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	// Disable extension auto-install/auto-load to prevent hangs in
	// restricted network environments.
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}

	if err := db.configureConnectionPool(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to configure connection pool: %w", err)
	}

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// NewInMemory creates an in-memory database for testing.
func NewInMemory() (*DB, error) {
	conn, err := sql.Open("duckdb", ":memory:?autoinstall_known_extensions=false&autoload_known_extensions=false")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	db := &DB{conn: conn, cfg: &config.DatabaseConfig{Path: ":memory:"}}
	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize in-memory database: %w", err)
	}
	return db, nil
}

func (db *DB) configureConnectionPool() error {
	// DuckDB is embedded; a small pool is enough for append-while-read.
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(0)
	return db.conn.Ping()
}

// initialize creates the schema if it does not exist.
func (db *DB) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, createUserRecordsSQL()); err != nil {
		return fmt.Errorf("failed to create user_records table: %w", err)
	}
	if _, err := db.conn.ExecContext(ctx, createSentimentScoresSQL); err != nil {
		return fmt.Errorf("failed to create sentiment_scores table: %w", err)
	}
	return nil
}

// createUserRecordsSQL builds the append-only record table DDL, including
// the fixed day-usage window columns day_1 .. day_30.
func createUserRecordsSQL() string {
	var b strings.Builder
	b.WriteString(`CREATE TABLE IF NOT EXISTS user_records (
		seq BIGINT,
		user_id BIGINT NOT NULL,
		avg_screen_time DOUBLE NOT NULL,
		avg_spend DOUBLE NOT NULL,
		rating DOUBLE NOT NULL,
		new_password_requests DOUBLE NOT NULL,
		last_visited_minutes DOUBLE NOT NULL,
`)
	for i := 0; i < models.DayWindow; i++ {
		fmt.Fprintf(&b, "\t\t%s DOUBLE NOT NULL DEFAULT 0,\n", models.DayFeature(i))
	}
	b.WriteString(`		review VARCHAR,
		is_churned BOOLEAN,
		created_at TIMESTAMP NOT NULL
	)`)
	return b.String()
}

const createSentimentScoresSQL = `CREATE TABLE IF NOT EXISTS sentiment_scores (
	user_id BIGINT NOT NULL,
	compound DOUBLE NOT NULL,
	polarity VARCHAR NOT NULL,
	imputed BOOLEAN NOT NULL,
	computed_at TIMESTAMP NOT NULL
)`

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func closeQuietly(conn *sql.DB) {
	_ = conn.Close()
}
