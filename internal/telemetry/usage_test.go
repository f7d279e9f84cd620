// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"os"
	"strings"
	"testing"

	"github.com/AllramEst83/llm-terminal-app-sub000/internal/model"
)

func TestRecordChatReplacesInputAccumulatesOutput(t *testing.T) {
	l := NewLedger()

	l.RecordChat("gemini-3-flash-preview", 100, 20)
	l.RecordChat("gemini-3-flash-preview", 150, 30)

	u := l.ChatUsage("gemini-3-flash-preview")
	if u.InputTokens != 150 {
		t.Errorf("InputTokens = %d, want 150 (replaced, not summed)", u.InputTokens)
	}
	if u.OutputTokens != 50 {
		t.Errorf("OutputTokens = %d, want 50 (accumulated)", u.OutputTokens)
	}
}

func TestRecordImageAccumulates(t *testing.T) {
	l := NewLedger()
	l.RecordImage("imagen-4.0-generate-001", 1290)
	l.RecordImage("imagen-4.0-generate-001", 1290)
	if got := l.ImageUsage("imagen-4.0-generate-001").ImageTokens; got != 2580 {
		t.Errorf("ImageTokens = %d, want 2580", got)
	}
}

func TestNegativeCountsClamped(t *testing.T) {
	l := NewLedger()
	l.RecordChat("gemini-3-flash-preview", -10, -5)
	if u := l.ChatUsage("gemini-3-flash-preview"); !u.IsZero() {
		t.Errorf("negative counts stored: %+v", u)
	}
}

func TestNormalizationGuaranteesCatalogEntries(t *testing.T) {
	l := NewLedger()
	snap := l.Snapshot()
	for id := range model.ChatModels {
		if _, ok := snap.Chat[id]; !ok {
			t.Errorf("catalog model %s missing from fresh ledger", id)
		}
	}
}

func TestLedgerPersistence(t *testing.T) {
	dir := t.TempDir()
	st, err := NewStorage(dir, "tab1")
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}

	l, err := NewLedgerWithStorage(st)
	if err != nil {
		t.Fatalf("NewLedgerWithStorage: %v", err)
	}
	l.RecordChat("gemini-3-flash-preview", 42, 7)
	l.RecordImage("imagen-4.0-generate-001", 1290)

	// A fresh ledger over the same storage sees the persisted state.
	reloaded, err := NewLedgerWithStorage(st)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if u := reloaded.ChatUsage("gemini-3-flash-preview"); u.InputTokens != 42 || u.OutputTokens != 7 {
		t.Errorf("reloaded chat usage = %+v", u)
	}
	if u := reloaded.ImageUsage("imagen-4.0-generate-001"); u.ImageTokens != 1290 {
		t.Errorf("reloaded image usage = %+v", u)
	}
}

func TestLegacyPartialSnapshotNormalizes(t *testing.T) {
	dir := t.TempDir()
	st, err := NewStorage(dir, "tab1")
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	// A partial snapshot with a negative counter and a missing catalog
	// model.
	if err := st.Save(&Snapshot{
		Chat: map[string]Usage{"gemini-3-pro-preview": {InputTokens: -5, OutputTokens: 9}},
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	l, err := NewLedgerWithStorage(st)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if u := l.ChatUsage("gemini-3-pro-preview"); u.InputTokens != 0 || u.OutputTokens != 9 {
		t.Errorf("clamped usage = %+v", u)
	}
	if _, ok := l.Snapshot().Chat["gemini-3-flash-preview"]; !ok {
		t.Error("missing catalog model not synthesized on load")
	}
}

func TestResetClearsEverything(t *testing.T) {
	l := NewLedger()
	l.RecordChat("gemini-3-flash-preview", 100, 20)
	l.RecordImage("imagen-4.0-generate-001", 1290)

	l.Reset()
	if !l.ChatUsage("gemini-3-flash-preview").IsZero() {
		t.Error("chat usage survived reset")
	}
	if !l.ImageUsage("imagen-4.0-generate-001").IsZero() {
		t.Error("image usage survived reset")
	}
}

func TestSummary(t *testing.T) {
	l := NewLedger()
	l.RecordChat("gemini-3-flash-preview", 524288, 1000)
	l.RecordImage("imagen-4.0-generate-001", 1290)

	got := l.Summary()
	if !strings.Contains(got, "524,288") {
		t.Errorf("summary lacks separated count:\n%s", got)
	}
	if !strings.Contains(got, "50.0% of context") {
		t.Errorf("summary lacks context percentage:\n%s", got)
	}
	if !strings.Contains(got, "imagen-4.0-generate-001") {
		t.Errorf("summary lacks image model:\n%s", got)
	}
}

func TestStorageCorruptFileIgnored(t *testing.T) {
	dir := t.TempDir()
	st, err := NewStorage(dir, "")
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	if err := os.WriteFile(st.path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	snap, err := st.Load()
	if err != nil || snap != nil {
		t.Errorf("corrupt load = (%v, %v), want (nil, nil)", snap, err)
	}
}
