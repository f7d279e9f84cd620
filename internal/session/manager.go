// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns per-tab conversation state: settings, transcript,
// token ledger, submission queue, and the single in-flight request.
package session

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/AllramEst83/llm-terminal-app-sub000/internal/config"
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/gemini"
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/storage"
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/telemetry"
)

// =============================================================================
// MANAGER
// =============================================================================

// Manager creates and caches sessions, one per tab scope, over shared
// stores.
type Manager struct {
	mu          sync.Mutex
	store       *config.Store
	keys        *config.KeyStore
	transcripts *storage.TranscriptStore
	dataDir     string
	envKey      string
	sessions    map[string]*Session
}

// NewManager opens the shared stores under dataDir. envKey is the
// GEMINI_API_KEY environment fallback, used when neither the keystore
// nor the settings carry a key.
func NewManager(dataDir, envKey string) (*Manager, error) {
	store, err := config.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open settings store: %w", err)
	}
	keys, err := config.NewKeyStore(store.Dir())
	if err != nil {
		return nil, fmt.Errorf("open key store: %w", err)
	}
	transcripts, err := storage.NewTranscriptStore(filepath.Join(store.Dir(), "transcripts.db"))
	if err != nil {
		return nil, fmt.Errorf("open transcript store: %w", err)
	}
	return &Manager{
		store:       store,
		keys:        keys,
		transcripts: transcripts,
		dataDir:     store.Dir(),
		envKey:      envKey,
		sessions:    make(map[string]*Session),
	}, nil
}

// Session returns the session for a tab scope, creating and loading it
// on first use.
func (m *Manager) Session(scope string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[scope]; ok {
		return s, nil
	}
	s, err := newSession(m, scope)
	if err != nil {
		return nil, err
	}
	m.sessions[scope] = s
	return s, nil
}

// Watch registers for settings file changes across all scopes. The
// returned function stops watching.
func (m *Manager) Watch(onChange func(scope string)) (func(), error) {
	return m.store.Watch(onChange)
}

// Close releases the shared stores.
func (m *Manager) Close() error {
	return m.transcripts.Close()
}

// apiKeyFor resolves the effective API key: sealed keystore first, then
// the settings value, then the environment.
func (m *Manager) apiKeyFor(settings config.Settings) string {
	if key, err := m.keys.Key(); err == nil && key != "" {
		return key
	}
	if settings.APIKey != "" {
		return settings.APIKey
	}
	return m.envKey
}

// usageStorage opens the ledger persistence for one scope. Failures
// degrade to an in-memory ledger.
func (m *Manager) usageStorage(scope string) *telemetry.Storage {
	st, err := telemetry.NewStorage(m.dataDir, scope)
	if err != nil {
		return nil
	}
	return st
}

func newClient(key string) *gemini.Client {
	return gemini.NewClient(key)
}
