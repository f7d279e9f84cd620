// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sync"
	"testing"
	"time"
)

func TestMessageWithOperationsDoNotMutate(t *testing.T) {
	original := Message{ID: 1, Role: RoleModel, Text: "Hel"}

	appended := original.AppendText("lo")
	if original.Text != "Hel" {
		t.Errorf("AppendText mutated the original: %q", original.Text)
	}
	if appended.Text != "Hello" {
		t.Errorf("AppendText = %q, want Hello", appended.Text)
	}

	sourced := original.WithSources([]Source{{Title: "A", URI: "https://a.test"}})
	if len(original.Sources) != 0 {
		t.Error("WithSources mutated the original")
	}
	if len(sourced.Sources) != 1 {
		t.Errorf("WithSources = %d sources, want 1", len(sourced.Sources))
	}

	// The attached slice is a copy; mutating the input must not leak in.
	input := []Source{{URI: "https://b.test"}}
	sourced = original.WithSources(input)
	input[0].URI = "https://mutated.test"
	if sourced.Sources[0].URI != "https://b.test" {
		t.Error("WithSources shares the caller's slice")
	}
}

func TestIDSourceMonotonic(t *testing.T) {
	ids := NewIDSource()
	var (
		mu   sync.Mutex
		seen = make(map[int64]bool)
		wg   sync.WaitGroup
	)
	for range [8]struct{}{} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := ids.NextID()
				mu.Lock()
				if seen[id] {
					t.Errorf("duplicate id %d", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}

func TestIDSourceInjectedClock(t *testing.T) {
	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	ids := NewIDSourceWithClock(func() time.Time { return fixed })

	msg := ids.NewUserMessage("hello")
	if msg.ID != 1 {
		t.Errorf("first id = %d, want 1", msg.ID)
	}
	if !msg.Timestamp.Equal(fixed) {
		t.Errorf("timestamp = %v, want injected clock value", msg.Timestamp)
	}
	if msg.Role != RoleUser {
		t.Errorf("role = %v", msg.Role)
	}
}

func TestIDSourceAdvance(t *testing.T) {
	ids := NewIDSource()
	ids.Advance(41)
	if got := ids.NextID(); got != 42 {
		t.Errorf("NextID after Advance(41) = %d, want 42", got)
	}
	// Advancing backwards is a no-op.
	ids.Advance(5)
	if got := ids.NextID(); got != 43 {
		t.Errorf("NextID after backwards Advance = %d, want 43", got)
	}
}

func TestPreview(t *testing.T) {
	m := Message{Text: "héllo wörld this is long"}
	got := m.Preview(10)
	if runes := []rune(got); len(runes) != 10 {
		t.Errorf("Preview length = %d runes, want 10", len(runes))
	}
	short := Message{Text: "hi"}
	if short.Preview(10) != "hi" {
		t.Error("short text must pass through untruncated")
	}
}
