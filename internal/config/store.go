// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides terminal settings and their persistence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// SETTINGS STORE
// =============================================================================

// legacyFile is the unscoped settings file kept for backward
// compatibility. Scoped loads fall back to it when no scoped file exists.
const legacyFile = "settings.toml"

// Store persists Settings as TOML files, one per tab scope.
//
// Layout under the base directory:
//
//	settings.toml          legacy unscoped settings
//	settings.<scope>.toml  per-tab settings
type Store struct {
	mu  sync.Mutex
	dir string
}

// NewStore creates a settings store rooted at dir, creating it if needed.
// An empty dir defaults to ~/.llmterm.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".llmterm")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create settings directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the base directory of the store.
func (st *Store) Dir() string {
	return st.dir
}

// fileFor returns the settings path for a scope.
func (st *Store) fileFor(scope string) string {
	if scope == "" {
		return filepath.Join(st.dir, legacyFile)
	}
	return filepath.Join(st.dir, "settings."+sanitizeScope(scope)+".toml")
}

// sanitizeScope keeps scope ids filesystem-safe.
func sanitizeScope(scope string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, scope)
}

// =============================================================================
// LOAD / SAVE / RESET
// =============================================================================

// Load reads the settings for a scope. A missing scoped file falls back to
// the legacy unscoped file; if neither exists, defaults are returned. The
// result is always normalized.
func (st *Store) Load(scope string) (Settings, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	paths := []string{st.fileFor(scope)}
	if scope != "" {
		paths = append(paths, filepath.Join(st.dir, legacyFile))
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return Defaults(), fmt.Errorf("read settings: %w", err)
		}

		var s Settings
		if err := toml.Unmarshal(data, &s); err != nil {
			// A corrupt file must not brick the terminal; start over.
			return Defaults(), fmt.Errorf("decode settings: %w", err)
		}
		return Normalize(s), nil
	}

	return Defaults(), nil
}

// Save writes the settings for a scope.
func (st *Store) Save(s Settings, scope string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(Normalize(s)); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	path := st.fileFor(scope)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Reset restores the scope to defaults, preserving the stored API key, and
// returns the resulting settings.
func (st *Store) Reset(scope string) (Settings, error) {
	current, err := st.Load(scope)
	if err != nil {
		current = Defaults()
	}
	next := current.ResetPreservingKey()
	if err := st.Save(next, scope); err != nil {
		return next, err
	}
	return next, nil
}

// =============================================================================
// FILE WATCHING
// =============================================================================

// Watch reports external edits to settings files. The callback receives
// the scope whose file changed ("" for the legacy file). The returned stop
// function releases the watcher.
func (st *Store) Watch(onChange func(scope string)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("settings watcher: %w", err)
	}
	if err := watcher.Add(st.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("settings watcher: %w", err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				name := filepath.Base(ev.Name)
				if scope, ok := scopeFromFile(name); ok {
					onChange(scope)
				}
			case <-watcher.Errors:
				// Watch errors are non-fatal; settings reload on demand.
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}

// scopeFromFile extracts the scope id from a settings file name.
func scopeFromFile(name string) (string, bool) {
	if name == legacyFile {
		return "", true
	}
	if strings.HasPrefix(name, "settings.") && strings.HasSuffix(name, ".toml") {
		return strings.TrimSuffix(strings.TrimPrefix(name, "settings."), ".toml"), true
	}
	return "", false
}
