// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry tracks per-session token usage.
package telemetry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/AllramEst83/llm-terminal-app-sub000/internal/model"
)

// =============================================================================
// USAGE TYPES
// =============================================================================

// Category partitions usage records by request kind.
type Category string

const (
	CategoryChat  Category = "chat"
	CategoryImage Category = "image"
)

// Usage holds token counters for one model within one category.
// All counters are non-negative.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	ImageTokens  int `json:"image_tokens"`
}

// clampNonNegative zeroes any negative counter from legacy stored data.
func (u Usage) clampNonNegative() Usage {
	if u.InputTokens < 0 {
		u.InputTokens = 0
	}
	if u.OutputTokens < 0 {
		u.OutputTokens = 0
	}
	if u.ImageTokens < 0 {
		u.ImageTokens = 0
	}
	return u
}

// IsZero reports whether all counters are zero.
func (u Usage) IsZero() bool {
	return u.InputTokens == 0 && u.OutputTokens == 0 && u.ImageTokens == 0
}

// =============================================================================
// LEDGER
// =============================================================================

// Ledger maintains per-session token counters keyed by category and model.
//
// Update semantics differ by category: chat input tokens are replaced on
// every completion because each request re-sends the full history, so the
// latest prompt size is the meaningful number; output and image tokens
// accumulate.
type Ledger struct {
	mu      sync.RWMutex
	chat    map[string]Usage
	image   map[string]Usage
	storage *Storage // nil for in-memory ledgers
}

// NewLedger creates an in-memory ledger with every catalog chat model
// guaranteed present.
func NewLedger() *Ledger {
	l := &Ledger{
		chat:  make(map[string]Usage),
		image: make(map[string]Usage),
	}
	l.normalizeLocked()
	return l
}

// NewLedgerWithStorage creates a ledger backed by JSON storage and loads
// any persisted state, normalizing it into the current schema.
func NewLedgerWithStorage(storage *Storage) (*Ledger, error) {
	l := NewLedger()
	l.storage = storage
	if storage == nil {
		return l, nil
	}

	snap, err := storage.Load()
	if err != nil {
		return nil, err
	}
	if snap != nil {
		l.mu.Lock()
		for id, u := range snap.Chat {
			l.chat[id] = u.clampNonNegative()
		}
		for id, u := range snap.Image {
			l.image[id] = u.clampNonNegative()
		}
		l.normalizeLocked()
		l.mu.Unlock()
	}
	return l, nil
}

// normalizeLocked guarantees entries for known chat models.
// Must be called with the lock held (or before the ledger is shared).
func (l *Ledger) normalizeLocked() {
	for id := range model.ChatModels {
		if _, ok := l.chat[id]; !ok {
			l.chat[id] = Usage{}
		}
	}
}

// =============================================================================
// RECORDING
// =============================================================================

// RecordChat records one chat completion: promptTokens replaces the input
// count for the model, outputTokens accumulates.
func (l *Ledger) RecordChat(modelID string, promptTokens, outputTokens int) {
	if promptTokens < 0 {
		promptTokens = 0
	}
	if outputTokens < 0 {
		outputTokens = 0
	}

	l.mu.Lock()
	u := l.chat[modelID]
	u.InputTokens = promptTokens
	u.OutputTokens += outputTokens
	l.chat[modelID] = u
	l.mu.Unlock()

	l.persist()
}

// RecordImage accumulates image tokens for an image model.
func (l *Ledger) RecordImage(modelID string, imageTokens int) {
	if imageTokens < 0 {
		imageTokens = 0
	}

	l.mu.Lock()
	u := l.image[modelID]
	u.ImageTokens += imageTokens
	l.image[modelID] = u
	l.mu.Unlock()

	l.persist()
}

// Reset clears all counters (explicit clear or session teardown).
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.chat = make(map[string]Usage)
	l.image = make(map[string]Usage)
	l.normalizeLocked()
	l.mu.Unlock()

	l.persist()
}

// persist saves the current state when storage is attached. Persistence
// failures are swallowed: losing a usage snapshot must never fail a chat.
func (l *Ledger) persist() {
	if l.storage == nil {
		return
	}
	snap := l.Snapshot()
	_ = l.storage.Save(&snap)
}

// =============================================================================
// RETRIEVAL
// =============================================================================

// ChatUsage returns the counters for a chat model.
func (l *Ledger) ChatUsage(modelID string) Usage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.chat[modelID]
}

// ImageUsage returns the counters for an image model.
func (l *Ledger) ImageUsage(modelID string) Usage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.image[modelID]
}

// Snapshot returns a copy of all counters.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snap := Snapshot{
		Chat:  make(map[string]Usage, len(l.chat)),
		Image: make(map[string]Usage, len(l.image)),
	}
	for id, u := range l.chat {
		snap.Chat[id] = u
	}
	for id, u := range l.image {
		snap.Image[id] = u
	}
	return snap
}

// =============================================================================
// SUMMARY
// =============================================================================

// printer renders token counts with thousands separators.
var printer = message.NewPrinter(language.English)

// Summary returns a human-readable usage report grouped by category and
// model, with percentage-of-context for chat models with a known limit.
func (l *Ledger) Summary() string {
	snap := l.Snapshot()

	var b strings.Builder
	b.WriteString("TOKEN USAGE\n\n")

	b.WriteString("Chat models:\n")
	for _, id := range sortedKeys(snap.Chat) {
		u := snap.Chat[id]
		line := printer.Sprintf("  %s: %d in / %d out", id, u.InputTokens, u.OutputTokens)
		if limit := model.ContextLimit(id); limit > 0 && u.InputTokens > 0 {
			pct := float64(u.InputTokens) / float64(limit) * 100
			line += fmt.Sprintf(" (%.1f%% of context)", pct)
		}
		b.WriteString(line + "\n")
	}

	hasImage := false
	for _, id := range sortedKeys(snap.Image) {
		u := snap.Image[id]
		if u.IsZero() {
			continue
		}
		if !hasImage {
			b.WriteString("\nImage models:\n")
			hasImage = true
		}
		b.WriteString(printer.Sprintf("  %s: %d image tokens\n", id, u.ImageTokens))
	}

	return strings.TrimRight(b.String(), "\n")
}

// sortedKeys returns map keys in sorted order for stable output.
func sortedKeys(m map[string]Usage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
