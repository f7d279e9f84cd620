// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"testing"

	"github.com/AllramEst83/llm-terminal-app-sub000/internal/model"
)

func TestDefaultsAreNormalized(t *testing.T) {
	s := Defaults()
	if s.FontSize != DefaultFontSize || s.Theme != DefaultTheme || s.ChatModel != model.DefaultChatModel {
		t.Errorf("Defaults() = %+v", s)
	}
	for id, m := range model.ChatModels {
		tc, ok := s.Thinking[id]
		if !ok {
			t.Fatalf("no thinking entry for %s", id)
		}
		if tc.Enabled {
			t.Errorf("%s: thinking enabled by default", id)
		}
		if m.Class == model.ThinkingLevel && tc.Level != LevelHigh {
			t.Errorf("%s: default level = %q, want high", id, tc.Level)
		}
		if m.Class == model.ThinkingBudget && tc.Budget != m.DefaultBudget {
			t.Errorf("%s: default budget = %d, want %d", id, tc.Budget, m.DefaultBudget)
		}
	}
}

func TestNormalizeStripsInapplicableFields(t *testing.T) {
	// Stale stored data: a level on a budget model and a budget on a
	// level model.
	s := Settings{
		FontSize:  99,
		Theme:     "neon",
		ChatModel: "gemini-3-flash-preview",
		Thinking: map[string]ThinkingConfig{
			"gemini-3-flash-preview": {Enabled: true, Budget: 5000, Level: "high"},
			"gemini-3-pro-preview":   {Enabled: true, Budget: 1234, Level: "low"},
		},
	}
	s = Normalize(s)

	if s.FontSize != DefaultFontSize {
		t.Errorf("out-of-range font size kept: %d", s.FontSize)
	}
	if s.Theme != DefaultTheme {
		t.Errorf("unknown theme kept: %q", s.Theme)
	}

	flash := s.Thinking["gemini-3-flash-preview"]
	if flash.Level != "" || flash.Budget != 5000 {
		t.Errorf("budget model entry = %+v, want level stripped", flash)
	}
	pro := s.Thinking["gemini-3-pro-preview"]
	if pro.Budget != 0 || pro.Level != "low" {
		t.Errorf("level model entry = %+v, want budget stripped", pro)
	}
}

func TestWithFontSizeBounds(t *testing.T) {
	s := Defaults()
	tests := []struct {
		size int
		want int
	}{
		{12, 12},
		{FontSizeMin, FontSizeMin},
		{FontSizeMax, FontSizeMax},
		{FontSizeMin - 1, DefaultFontSize},
		{FontSizeMax + 1, DefaultFontSize},
		{0, DefaultFontSize},
	}
	for _, tt := range tests {
		if got := s.WithFontSize(tt.size).FontSize; got != tt.want {
			t.Errorf("WithFontSize(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}
}

func TestWithThemeRejectsUnknown(t *testing.T) {
	s := Defaults()
	if got := s.WithTheme("matrix").Theme; got != "matrix" {
		t.Errorf("WithTheme(matrix) = %q", got)
	}
	if got := s.WithTheme("neon").Theme; got != DefaultTheme {
		t.Errorf("unknown theme accepted: %q", got)
	}
}

func TestWithThinkingCopiesMap(t *testing.T) {
	s := Defaults()
	updated := s.WithThinking("gemini-3-flash-preview", ThinkingConfig{Enabled: true, Budget: 5000})

	if s.Thinking["gemini-3-flash-preview"].Enabled {
		t.Error("WithThinking mutated the receiver's map")
	}
	tc := updated.ThinkingFor("gemini-3-flash-preview")
	if !tc.Enabled || tc.Budget != 5000 {
		t.Errorf("updated entry = %+v", tc)
	}
}

func TestResetPreservingKeyIsIdempotent(t *testing.T) {
	s := Defaults().
		WithAPIKey("sk-keep").
		WithFontSize(20).
		WithTheme("amber").
		WithThinking("gemini-3-flash-preview", ThinkingConfig{Enabled: true, Budget: 5000})

	once := s.ResetPreservingKey()
	if once.APIKey != "sk-keep" {
		t.Error("reset dropped the API key")
	}
	if once.FontSize != DefaultFontSize || once.Theme != DefaultTheme {
		t.Errorf("reset kept non-defaults: %+v", once)
	}
	if once.Thinking["gemini-3-flash-preview"].Enabled {
		t.Error("reset kept thinking enabled")
	}

	twice := once.ResetPreservingKey()
	if twice.APIKey != once.APIKey || twice.FontSize != once.FontSize || twice.Theme != once.Theme {
		t.Error("reset is not idempotent")
	}
}

func TestApplyRunsUpdatesInOrder(t *testing.T) {
	s := Apply(Defaults(),
		SetFontSize(10),
		SetFontSize(16),
		SetTheme("ocean"),
		nil,
	)
	if s.FontSize != 16 || s.Theme != "ocean" {
		t.Errorf("Apply result = %+v", s)
	}
}

func TestThinkingForRawModel(t *testing.T) {
	tc := Defaults().ThinkingFor("gemini-9.9-experimental")
	if tc.Enabled {
		t.Error("raw model id reports enabled thinking")
	}
}
