// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the terminal conversation.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// THINKING CLASS
// =============================================================================

// ThinkingClass partitions chat models by how their reasoning depth is
// configured. Budget models take an integer token budget; level models
// take a qualitative low/high level. The two classes are disjoint.
type ThinkingClass int

const (
	ThinkingBudget ThinkingClass = iota
	ThinkingLevel
)

// String returns the class name for display.
func (c ThinkingClass) String() string {
	switch c {
	case ThinkingBudget:
		return "budget"
	case ThinkingLevel:
		return "level"
	default:
		return "unknown"
	}
}

// =============================================================================
// CHAT MODEL TYPE
// =============================================================================

// ChatModel describes one chat model known to the client.
type ChatModel struct {
	// ID is the model identifier used in API calls
	ID string

	// Name is the human-readable display name
	Name string

	// Aliases are the shortcuts accepted by /model and /think
	Aliases []string

	// ContextLimit is the context window size in tokens
	ContextLimit int

	// Class selects the thinking configuration syntax
	Class ThinkingClass

	// DefaultBudget is the default thinking budget for budget-class models
	DefaultBudget int
}

// ContextString returns a formatted context window string.
func (m ChatModel) ContextString() string {
	if m.ContextLimit >= 1000000 {
		return fmt.Sprintf("%.1fM tokens", float64(m.ContextLimit)/1000000)
	}
	if m.ContextLimit >= 1000 {
		return fmt.Sprintf("%dK tokens", m.ContextLimit/1000)
	}
	return fmt.Sprintf("%d tokens", m.ContextLimit)
}

// ImageModel describes one image-generation model.
type ImageModel struct {
	ID      string
	Name    string
	Aliases []string
}

// =============================================================================
// REGISTRY
// =============================================================================

// Default model ids.
const (
	DefaultChatModel  = "gemini-3-flash-preview"
	DefaultImageModel = "imagen-4.0-generate-001"
)

// ContextWarningBuffer is how close (in tokens) the prompt may get to a
// model's context limit before an advisory warning is issued.
const ContextWarningBuffer = 50000

// ChatModels is the static catalog of chat models, keyed by canonical id.
// The catalog is read-only shared state; nothing mutates it after init.
var ChatModels = map[string]ChatModel{
	"gemini-3-pro-preview": {
		ID:           "gemini-3-pro-preview",
		Name:         "Gemini 3 Pro",
		Aliases:      []string{"pro", "3-pro"},
		ContextLimit: 1048576,
		Class:        ThinkingLevel,
	},
	"gemini-3-flash-preview": {
		ID:            "gemini-3-flash-preview",
		Name:          "Gemini 3 Flash",
		Aliases:       []string{"flash", "3-flash"},
		ContextLimit:  1048576,
		Class:         ThinkingBudget,
		DefaultBudget: 8192,
	},
	"gemini-2.5-flash": {
		ID:            "gemini-2.5-flash",
		Name:          "Gemini 2.5 Flash",
		Aliases:       []string{"2.5-flash"},
		ContextLimit:  1048576,
		Class:         ThinkingBudget,
		DefaultBudget: 8192,
	},
	"gemini-2.5-flash-lite": {
		ID:            "gemini-2.5-flash-lite",
		Name:          "Gemini 2.5 Flash Lite",
		Aliases:       []string{"lite", "flash-lite"},
		ContextLimit:  1048576,
		Class:         ThinkingBudget,
		DefaultBudget: 4096,
	},
}

// ImageModels is the static catalog of image-generation models.
var ImageModels = map[string]ImageModel{
	"imagen-4.0-generate-001": {
		ID:      "imagen-4.0-generate-001",
		Name:    "Imagen 4",
		Aliases: []string{"imagen", "imagen-4"},
	},
	"imagen-3.0-generate-002": {
		ID:      "imagen-3.0-generate-002",
		Name:    "Imagen 3",
		Aliases: []string{"imagen-3"},
	},
}

// AspectRatios lists the aspect ratios accepted by /image --aspect.
var AspectRatios = []string{"1:1", "3:4", "4:3", "9:16", "16:9"}

// =============================================================================
// LOOKUP FUNCTIONS
// =============================================================================

// ResolveChatModel looks up a chat model by alias or canonical id,
// case-insensitively. Raw provider ids are not resolved here; see
// IsRawChatModelID for the escape hatch.
func ResolveChatModel(name string) (ChatModel, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if m, ok := ChatModels[lower]; ok {
		return m, true
	}
	for _, m := range ChatModels {
		for _, alias := range m.Aliases {
			if alias == lower {
				return m, true
			}
		}
	}
	return ChatModel{}, false
}

// ResolveImageModel looks up an image model by alias or canonical id.
func ResolveImageModel(name string) (ImageModel, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if m, ok := ImageModels[lower]; ok {
		return m, true
	}
	for _, m := range ImageModels {
		for _, alias := range m.Aliases {
			if alias == lower {
				return m, true
			}
		}
	}
	return ImageModel{}, false
}

// IsRawChatModelID reports whether the name syntactically resembles a raw
// provider chat model id. Such names are accepted verbatim by /model as an
// escape hatch for models not in the catalog.
func IsRawChatModelID(name string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(name)), "gemini-")
}

// IsRawImageModelID reports whether the name resembles a raw image model id.
func IsRawImageModelID(name string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(name)), "imagen-")
}

// ContextLimit returns the context window for a chat model id, or 0 when
// the model is not in the catalog (raw escape-hatch ids).
func ContextLimit(id string) int {
	if m, ok := ChatModels[id]; ok {
		return m.ContextLimit
	}
	return 0
}

// ValidAspectRatio reports whether the ratio is one the provider accepts.
func ValidAspectRatio(ratio string) bool {
	for _, r := range AspectRatios {
		if r == ratio {
			return true
		}
	}
	return false
}

// ChatModelIDs returns all catalog chat model ids, sorted.
func ChatModelIDs() []string {
	ids := make([]string, 0, len(ChatModels))
	for id := range ChatModels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ChatModelShortcuts returns a sorted list of all chat model aliases.
func ChatModelShortcuts() []string {
	var shortcuts []string
	for _, m := range ChatModels {
		shortcuts = append(shortcuts, m.Aliases...)
	}
	sort.Strings(shortcuts)
	return shortcuts
}

// ImageModelShortcuts returns a sorted list of all image model aliases.
func ImageModelShortcuts() []string {
	var shortcuts []string
	for _, m := range ImageModels {
		shortcuts = append(shortcuts, m.Aliases...)
	}
	sort.Strings(shortcuts)
	return shortcuts
}
