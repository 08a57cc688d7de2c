// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// RetrainCounters tracks, per model, when the last successful retrain
// finished and how many records arrived since. TotalAtLastRetrain records
// the dataset size at the last reset and anchors startup reconciliation.
type RetrainCounters struct {
	LastRetrain        time.Time `json:"last_retrain"`
	RecordsSeen        int64     `json:"records_seen"`
	TotalAtLastRetrain int64     `json:"total_at_last_retrain"`
}

// GetCounters returns the counters for a model. A model that has never been
// trained or counted yields zero counters, not an error.
func (s *Store) GetCounters(modelID string) (RetrainCounters, error) {
	var counters RetrainCounters

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(countersKeyPrefix + modelID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get counters: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &counters)
		})
	})
	if err != nil {
		return RetrainCounters{}, fmt.Errorf("failed to read counters for %s: %w", modelID, err)
	}
	return counters, nil
}

// AddRecords atomically increments the records-seen counter for a model.
// Called once per accepted ingest batch, after the dataset append commits.
func (s *Store) AddRecords(modelID string, n int64) (RetrainCounters, error) {
	if n <= 0 {
		return s.GetCounters(modelID)
	}

	var updated RetrainCounters
	err := s.update(func(txn *badger.Txn) error {
		counters, err := readCounters(txn, modelID)
		if err != nil {
			return err
		}
		counters.RecordsSeen += n
		updated = counters
		return writeCounters(txn, modelID, counters)
	})
	if err != nil {
		return RetrainCounters{}, fmt.Errorf("failed to increment counters for %s: %w", modelID, err)
	}
	return updated, nil
}

// ResetCounters marks a successful retrain: records-seen drops to zero,
// last-retrain moves to now, and the dataset total at reset is recorded.
func (s *Store) ResetCounters(modelID string, now time.Time, datasetTotal int64) error {
	err := s.update(func(txn *badger.Txn) error {
		return writeCounters(txn, modelID, RetrainCounters{
			LastRetrain:        now.UTC(),
			TotalAtLastRetrain: datasetTotal,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to reset counters for %s: %w", modelID, err)
	}
	return nil
}

// Reconcile repairs the records-seen counter against the dataset total at
// startup. A crash between the dataset append and the counter increment
// leaves the counter behind; the dataset total never undercounts, so the
// larger of the two wins. The result is written back only when it differs.
func (s *Store) Reconcile(modelID string, datasetTotal int64) (RetrainCounters, bool, error) {
	var (
		updated  RetrainCounters
		repaired bool
	)

	err := s.update(func(txn *badger.Txn) error {
		repaired = false
		counters, err := readCounters(txn, modelID)
		if err != nil {
			return err
		}

		sinceRetrain := datasetTotal - counters.TotalAtLastRetrain
		if sinceRetrain > counters.RecordsSeen {
			counters.RecordsSeen = sinceRetrain
			repaired = true
		}
		updated = counters

		if !repaired {
			return nil
		}
		return writeCounters(txn, modelID, counters)
	})
	if err != nil {
		return RetrainCounters{}, false, fmt.Errorf("failed to reconcile counters for %s: %w", modelID, err)
	}
	return updated, repaired, nil
}

func readCounters(txn *badger.Txn, modelID string) (RetrainCounters, error) {
	var counters RetrainCounters

	item, err := txn.Get([]byte(countersKeyPrefix + modelID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return counters, nil
	}
	if err != nil {
		return counters, fmt.Errorf("get counters: %w", err)
	}

	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &counters)
	})
	return counters, err
}

func writeCounters(txn *badger.Txn, modelID string, counters RetrainCounters) error {
	data, err := json.Marshal(counters)
	if err != nil {
		return fmt.Errorf("marshal counters: %w", err)
	}
	return txn.Set([]byte(countersKeyPrefix+modelID), data)
}
