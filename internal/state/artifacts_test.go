// ChurnWatch - Churn Prediction Retraining Orchestration
// Copyright 2026 ChurnWatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/churnwatch/churnwatch

package state

import (
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestGetArtifactNotFound(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.GetArtifact("model_a"); !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("expected ErrArtifactNotFound, got %v", err)
	}
}

func TestPutArtifactVersioning(t *testing.T) {
	store := openTestStore(t)

	first, err := store.PutArtifact(&Artifact{
		ModelID:     "model_a",
		TrainedAt:   time.Now().UTC(),
		RecordCount: 50,
		Payload:     json.RawMessage(`{"weights":[1]}`),
	})
	if err != nil {
		t.Fatalf("PutArtifact failed: %v", err)
	}
	if first.Version != 1 {
		t.Errorf("first Version = %d, want 1", first.Version)
	}

	second, err := store.PutArtifact(&Artifact{
		ModelID:     "model_a",
		TrainedAt:   time.Now().UTC(),
		RecordCount: 75,
		Payload:     json.RawMessage(`{"weights":[2]}`),
	})
	if err != nil {
		t.Fatalf("PutArtifact failed: %v", err)
	}
	if second.Version != 2 {
		t.Errorf("second Version = %d, want 2", second.Version)
	}

	current, err := store.GetArtifact("model_a")
	if err != nil {
		t.Fatalf("GetArtifact failed: %v", err)
	}
	if current.Version != 2 || current.RecordCount != 75 {
		t.Errorf("current artifact = %+v, want version 2 with 75 records", current)
	}

	previous, err := store.GetPreviousArtifact("model_a")
	if err != nil {
		t.Fatalf("GetPreviousArtifact failed: %v", err)
	}
	if previous.Version != 1 || previous.RecordCount != 50 {
		t.Errorf("previous artifact = %+v, want version 1 with 50 records", previous)
	}
}

func TestArtifactsIsolatedPerModel(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.PutArtifact(&Artifact{ModelID: "model_a", Payload: json.RawMessage(`{}`)}); err != nil {
		t.Fatalf("PutArtifact failed: %v", err)
	}

	if _, err := store.GetArtifact("model_b"); !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("expected ErrArtifactNotFound for untrained model, got %v", err)
	}
}
