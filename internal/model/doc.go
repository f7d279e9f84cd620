// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the terminal conversation.
//
// This package defines the core domain types used throughout the
// application: transcript messages, the static model registry, and the
// id source that stamps messages.
//
// # Key Types
//
//   - Message: Single transcript entry with role, text, sources, and images
//   - ChatModel / ImageModel: Registry entries with aliases and limits
//   - ThinkingClass: Budget vs level reasoning configuration syntax
//   - IDSource: Injected monotonic id and clock source
//
// # Usage
//
// Create messages through an IDSource:
//
//	ids := model.NewIDSource()
//	msg := ids.NewUserMessage("Hello!")
//
// Resolve a model shortcut:
//
//	m, ok := model.ResolveChatModel("flash")
//	fmt.Printf("Model: %s (%s)\n", m.ID, m.ContextString())
package model
