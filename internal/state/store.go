// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

// Package state implements the Counter Store and model artifact registry on
// BadgerDB. Retrain counters and trained model artifacts survive restarts;
// the dataset itself lives in the database package.
package state

import (
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/churnwatch/churnwatch/internal/config"
)

// maxTxnRetries bounds the conflict retry loop for read-write transactions.
// Each conflicted attempt means some other transaction committed, so the
// bound is only reached under sustained contention.
const maxTxnRetries = 50

// Key prefixes for BadgerDB storage
const (
	countersKeyPrefix     = "counters:"
	artifactKeyPrefix     = "artifact:"
	artifactPrevKeyPrefix = "artifact_prev:"
)

// Store wraps BadgerDB and provides durable counter and artifact access.
type Store struct {
	db *badger.DB
}

// Open creates or opens the state store at the configured path.
func Open(cfg *config.StateConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", cfg.Path, err)
	}

	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenInMemory creates an in-memory state store for testing.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory state store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying BadgerDB instance.
func (s *Store) Close() error {
	return s.db.Close()
}

// update runs a read-write transaction, re-running it on optimistic conflict.
// Badger aborts a transaction whose read set was written by a concurrent
// commit; counter increments from overlapping ingest batches hit this, and
// the transaction body is a pure read-modify-write that is safe to re-run.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnRetries; attempt++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}
