// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// =============================================================================
// USAGE STORAGE
// =============================================================================

// Snapshot is the persisted shape of a ledger.
type Snapshot struct {
	Chat  map[string]Usage `json:"chat"`
	Image map[string]Usage `json:"image"`
}

// Storage persists usage snapshots as JSON, one file per tab scope.
type Storage struct {
	path string
}

// NewStorage creates usage storage at dir/usage.<scope>.json.
// An empty scope uses the unscoped usage.json.
func NewStorage(dir, scope string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create usage directory: %w", err)
	}
	name := "usage.json"
	if scope != "" {
		name = "usage." + scope + ".json"
	}
	return &Storage{path: filepath.Join(dir, name)}, nil
}

// Save writes a snapshot to disk.
func (s *Storage) Save(snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

// Load reads the stored snapshot. A missing file returns (nil, nil); a
// corrupt file is discarded the same way so a bad snapshot cannot brick
// the session.
func (s *Storage) Load() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read usage: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, nil
	}
	return &snap, nil
}

// Delete removes the stored snapshot.
func (s *Storage) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
