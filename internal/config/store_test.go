// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return st
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := newTestStore(t)

	saved := Defaults().
		WithFontSize(20).
		WithTheme("ocean").
		WithAPIKey("sk-test").
		WithThinking("gemini-3-flash-preview", ThinkingConfig{Enabled: true, Budget: 5000})

	if err := st.Save(saved, "tab1"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := st.Load("tab1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(saved, loaded) {
		t.Errorf("round trip mismatch:\nsaved:  %+v\nloaded: %+v", saved, loaded)
	}
}

func TestLoadMissingReturnsDefaults(t *testing.T) {
	st := newTestStore(t)
	s, err := st.Load("fresh")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(s, Defaults()) {
		t.Errorf("missing file load = %+v, want defaults", s)
	}
}

func TestLoadFallsBackToLegacyFile(t *testing.T) {
	st := newTestStore(t)

	legacy := Defaults().WithFontSize(22)
	if err := st.Save(legacy, ""); err != nil {
		t.Fatalf("Save legacy: %v", err)
	}

	s, err := st.Load("tab1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.FontSize != 22 {
		t.Errorf("scoped load ignored legacy file: FontSize = %d", s.FontSize)
	}
}

func TestLoadCorruptFileReturnsDefaults(t *testing.T) {
	st := newTestStore(t)
	path := filepath.Join(st.Dir(), "settings.tab1.toml")
	if err := os.WriteFile(path, []byte("not [valid toml"), 0600); err != nil {
		t.Fatal(err)
	}

	s, err := st.Load("tab1")
	if err == nil {
		t.Error("corrupt file loaded without error")
	}
	if !reflect.DeepEqual(s, Defaults()) {
		t.Errorf("corrupt load = %+v, want defaults", s)
	}
}

func TestStoreResetPreservesKey(t *testing.T) {
	st := newTestStore(t)
	if err := st.Save(Defaults().WithAPIKey("sk-keep").WithFontSize(30), "tab1"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s, err := st.Reset("tab1")
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if s.APIKey != "sk-keep" || s.FontSize != DefaultFontSize {
		t.Errorf("Reset = %+v", s)
	}

	// And the reset state is what a subsequent load sees.
	loaded, err := st.Load("tab1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.APIKey != "sk-keep" || loaded.FontSize != DefaultFontSize {
		t.Errorf("post-reset load = %+v", loaded)
	}
}

func TestScopeFromFile(t *testing.T) {
	tests := []struct {
		file  string
		scope string
		ok    bool
	}{
		{"settings.toml", "", true},
		{"settings.tab1.toml", "tab1", true},
		{"usage.tab1.json", "", false},
		{"settings.tab1.toml.tmp", "", false},
	}
	for _, tt := range tests {
		scope, ok := scopeFromFile(tt.file)
		if ok != tt.ok || scope != tt.scope {
			t.Errorf("scopeFromFile(%q) = (%q, %v), want (%q, %v)", tt.file, scope, ok, tt.scope, tt.ok)
		}
	}
}
