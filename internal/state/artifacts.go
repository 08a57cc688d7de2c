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

// ErrArtifactNotFound is returned when a model has no trained artifact yet.
var ErrArtifactNotFound = errors.New("model artifact not found")

// Artifact is a trained model snapshot. Payload carries the estimator's
// serialized parameters; the state store treats it as opaque.
type Artifact struct {
	ModelID     string          `json:"model_id"`
	Version     int64           `json:"version"`
	TrainedAt   time.Time       `json:"trained_at"`
	RecordCount int64           `json:"record_count"`
	Payload     json.RawMessage `json:"payload"`
}

// PutArtifact installs a newly trained artifact as current, demoting the
// previous current artifact. Version numbers increase monotonically per
// model. Both writes happen in one transaction, so readers never observe a
// half-swapped registry.
func (s *Store) PutArtifact(artifact *Artifact) (*Artifact, error) {
	installed := *artifact

	err := s.update(func(txn *badger.Txn) error {
		currentKey := []byte(artifactKeyPrefix + artifact.ModelID)

		item, err := txn.Get(currentKey)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			installed.Version = 1
		case err != nil:
			return fmt.Errorf("get current artifact: %w", err)
		default:
			var current Artifact
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &current)
			}); err != nil {
				return fmt.Errorf("decode current artifact: %w", err)
			}
			installed.Version = current.Version + 1

			prevData, err := json.Marshal(&current)
			if err != nil {
				return fmt.Errorf("marshal previous artifact: %w", err)
			}
			if err := txn.Set([]byte(artifactPrevKeyPrefix+artifact.ModelID), prevData); err != nil {
				return fmt.Errorf("demote previous artifact: %w", err)
			}
		}

		data, err := json.Marshal(&installed)
		if err != nil {
			return fmt.Errorf("marshal artifact: %w", err)
		}
		return txn.Set(currentKey, data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to install artifact for %s: %w", artifact.ModelID, err)
	}
	return &installed, nil
}

// GetArtifact returns the current artifact for a model, or
// ErrArtifactNotFound when the model has never been trained.
func (s *Store) GetArtifact(modelID string) (*Artifact, error) {
	return s.getArtifact(artifactKeyPrefix + modelID)
}

// GetPreviousArtifact returns the artifact demoted by the last install.
func (s *Store) GetPreviousArtifact(modelID string) (*Artifact, error) {
	return s.getArtifact(artifactPrevKeyPrefix + modelID)
}

func (s *Store) getArtifact(key string) (*Artifact, error) {
	var artifact Artifact

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrArtifactNotFound
		}
		if err != nil {
			return fmt.Errorf("get artifact: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &artifact)
		})
	})
	if err != nil {
		if errors.Is(err, ErrArtifactNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read artifact %s: %w", key, err)
	}
	return &artifact, nil
}
