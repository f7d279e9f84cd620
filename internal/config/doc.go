// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides terminal settings and their persistence.
//
// Settings are an immutable value object: every change goes through a
// With method or an Update function that returns a new Settings.
// Persistence is TOML on disk, scoped per terminal tab with a legacy
// unscoped fallback. The provider API key is stored separately, sealed
// at rest.
//
// # Key Types
//
//   - Settings: Font size, theme, API key, active model, thinking map
//   - ThinkingConfig: Per-model reasoning configuration (budget or level)
//   - Update: Composable, total settings transformation
//   - Store: Scoped TOML persistence with change watching
//   - KeyStore: Sealed API key storage
//
// # Usage
//
//	store, _ := config.NewStore("")
//	settings, _ := store.Load(tabID)
//	settings = settings.WithFontSize(12)
//	_ = store.Save(settings, tabID)
package config
