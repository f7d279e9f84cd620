// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides terminal settings and their persistence.
package config

import (
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/model"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// Font size bounds enforced by WithFontSize.
const (
	FontSizeMin     = 8
	FontSizeMax     = 48
	DefaultFontSize = 14
)

// DefaultTheme is the theme applied on first start and after /reset.
const DefaultTheme = "dark"

// Themes is the closed set of theme names accepted by /theme.
var Themes = []string{"dark", "light", "matrix", "amber", "ocean"}

// ValidTheme reports whether the name is a known theme.
func ValidTheme(name string) bool {
	for _, t := range Themes {
		if t == name {
			return true
		}
	}
	return false
}

// =============================================================================
// THINKING CONFIG
// =============================================================================

// Thinking levels for level-class models.
const (
	LevelLow  = "low"
	LevelHigh = "high"
)

// ThinkingConfig holds the per-model reasoning configuration.
//
// The Class tag selects which payload field is meaningful: Budget for
// budget-class models, Level for level-class models. Normalization strips
// the inapplicable field so stale stored data cannot leak through.
type ThinkingConfig struct {
	Class   model.ThinkingClass `toml:"class" json:"class"`
	Enabled bool                `toml:"enabled" json:"enabled"`

	// Budget is the thinking token budget (budget-class models only)
	Budget int `toml:"budget" json:"budget"`

	// Level is "low" or "high" (level-class models only)
	Level string `toml:"level" json:"level"`
}

// defaultThinking returns the normalized default entry for a chat model.
func defaultThinking(m model.ChatModel) ThinkingConfig {
	if m.Class == model.ThinkingLevel {
		return ThinkingConfig{Class: model.ThinkingLevel, Level: LevelHigh}
	}
	return ThinkingConfig{Class: model.ThinkingBudget, Budget: m.DefaultBudget}
}

// normalizeThinking coerces a stored entry to its model's class, stripping
// the inapplicable field and filling missing values with defaults.
func normalizeThinking(m model.ChatModel, tc ThinkingConfig) ThinkingConfig {
	tc.Class = m.Class
	switch m.Class {
	case model.ThinkingLevel:
		tc.Budget = 0
		if tc.Level != LevelLow && tc.Level != LevelHigh {
			tc.Level = LevelHigh
		}
	default:
		tc.Level = ""
		if tc.Budget <= 0 {
			tc.Budget = m.DefaultBudget
		}
	}
	return tc
}

// =============================================================================
// SETTINGS TYPE
// =============================================================================

// Settings is the per-tab settings aggregate.
//
// Settings is treated as an immutable value: every With method returns a
// new Settings and the Thinking map is copied on write. Callers must not
// mutate the map directly.
type Settings struct {
	FontSize  int    `toml:"font_size" json:"font_size"`
	Theme     string `toml:"theme" json:"theme"`
	APIKey    string `toml:"api_key" json:"api_key"`
	ChatModel string `toml:"chat_model" json:"chat_model"`

	// Thinking maps chat model id to its reasoning configuration.
	// Invariant: every catalog model has a normalized entry.
	Thinking map[string]ThinkingConfig `toml:"thinking" json:"thinking"`
}

// Defaults returns the documented default settings, normalized.
func Defaults() Settings {
	return Normalize(Settings{
		FontSize:  DefaultFontSize,
		Theme:     DefaultTheme,
		ChatModel: model.DefaultChatModel,
	})
}

// Normalize repairs a settings value loaded from storage: out-of-range
// font sizes and unknown themes revert to defaults, the active model falls
// back to the default when unknown, and the thinking map is completed with
// a type-appropriate entry for every catalog model.
func Normalize(s Settings) Settings {
	if s.FontSize < FontSizeMin || s.FontSize > FontSizeMax {
		s.FontSize = DefaultFontSize
	}
	if !ValidTheme(s.Theme) {
		s.Theme = DefaultTheme
	}
	if s.ChatModel == "" {
		s.ChatModel = model.DefaultChatModel
	}

	thinking := make(map[string]ThinkingConfig, len(model.ChatModels))
	for id, m := range model.ChatModels {
		if tc, ok := s.Thinking[id]; ok {
			thinking[id] = normalizeThinking(m, tc)
		} else {
			thinking[id] = defaultThinking(m)
		}
	}
	s.Thinking = thinking
	return s
}

// clone returns a copy with its own thinking map.
func (s Settings) clone() Settings {
	thinking := make(map[string]ThinkingConfig, len(s.Thinking))
	for id, tc := range s.Thinking {
		thinking[id] = tc
	}
	s.Thinking = thinking
	return s
}

// ThinkingFor returns the thinking configuration for a chat model id.
// Raw escape-hatch ids outside the catalog report a disabled config.
func (s Settings) ThinkingFor(id string) ThinkingConfig {
	if tc, ok := s.Thinking[id]; ok {
		return tc
	}
	return ThinkingConfig{}
}

// =============================================================================
// WITH OPERATIONS
// =============================================================================

// WithFontSize returns settings with the font size set. Sizes outside
// [FontSizeMin, FontSizeMax] are ignored and the receiver is returned
// unchanged.
func (s Settings) WithFontSize(n int) Settings {
	if n < FontSizeMin || n > FontSizeMax {
		return s
	}
	out := s.clone()
	out.FontSize = n
	return out
}

// WithTheme returns settings with the theme set. Unknown themes are
// ignored and the receiver is returned unchanged.
func (s Settings) WithTheme(name string) Settings {
	if !ValidTheme(name) {
		return s
	}
	out := s.clone()
	out.Theme = name
	return out
}

// WithAPIKey returns settings with the API key replaced.
func (s Settings) WithAPIKey(key string) Settings {
	out := s.clone()
	out.APIKey = key
	return out
}

// WithChatModel returns settings with the active chat model replaced.
func (s Settings) WithChatModel(id string) Settings {
	out := s.clone()
	out.ChatModel = id
	return out
}

// WithThinking returns settings with one model's thinking configuration
// replaced. The entry is normalized against the model's class; entries for
// models outside the catalog are stored as given.
func (s Settings) WithThinking(id string, tc ThinkingConfig) Settings {
	out := s.clone()
	if m, ok := model.ChatModels[id]; ok {
		tc = normalizeThinking(m, tc)
	}
	out.Thinking[id] = tc
	return out
}

// ResetPreservingKey returns default settings with this settings' API key
// carried over. /reset is idempotent: applying it twice yields the same
// value.
func (s Settings) ResetPreservingKey() Settings {
	out := Defaults()
	out.APIKey = s.APIKey
	return out
}

// =============================================================================
// UPDATE TYPE
// =============================================================================

// Update is a single total settings transformation. Command handlers
// return Updates instead of partial structs so every field change is an
// independently testable function that always yields valid Settings.
type Update func(Settings) Settings

// Apply runs updates in order over the given settings.
func Apply(s Settings, updates ...Update) Settings {
	for _, u := range updates {
		if u != nil {
			s = u(s)
		}
	}
	return s
}

// SetFontSize returns an Update that applies WithFontSize.
func SetFontSize(n int) Update {
	return func(s Settings) Settings { return s.WithFontSize(n) }
}

// SetTheme returns an Update that applies WithTheme.
func SetTheme(name string) Update {
	return func(s Settings) Settings { return s.WithTheme(name) }
}

// SetAPIKey returns an Update that applies WithAPIKey.
func SetAPIKey(key string) Update {
	return func(s Settings) Settings { return s.WithAPIKey(key) }
}

// SetChatModel returns an Update that applies WithChatModel.
func SetChatModel(id string) Update {
	return func(s Settings) Settings { return s.WithChatModel(id) }
}

// SetThinking returns an Update that applies WithThinking.
func SetThinking(id string, tc ThinkingConfig) Update {
	return func(s Settings) Settings { return s.WithThinking(id, tc) }
}

// Reset returns an Update that restores defaults, preserving the API key.
func Reset() Update {
	return func(s Settings) Settings { return s.ResetPreservingKey() }
}
