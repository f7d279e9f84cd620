// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"testing"
)

func TestQueuePreservesArrivalOrder(t *testing.T) {
	q := Queue{}.
		Add(NewItem("first", ItemMessage, nil)).
		Add(NewItem("/font 16", ItemCommand, nil)).
		Add(NewItem("third", ItemMessage, nil))

	items := q.Items()
	if len(items) != 3 {
		t.Fatalf("Len = %d, want 3", len(items))
	}
	want := []string{"first", "/font 16", "third"}
	for i, it := range items {
		if it.Text != want[i] {
			t.Errorf("items[%d].Text = %q, want %q", i, it.Text, want[i])
		}
		if it.Status != StatusPending {
			t.Errorf("items[%d].Status = %q, want pending", i, it.Status)
		}
	}
}

func TestNextPendingSkipsTerminalItems(t *testing.T) {
	a := NewItem("a", ItemMessage, nil)
	b := NewItem("b", ItemMessage, nil)
	q := Queue{}.Add(a).Add(b).
		UpdateStatus(a.ID, StatusCompleted)

	next, ok := q.NextPending()
	if !ok || next.ID != b.ID {
		t.Errorf("NextPending = (%q, %v), want item b", next.Text, ok)
	}

	q = q.UpdateStatus(b.ID, StatusCancelled)
	if _, ok := q.NextPending(); ok {
		t.Error("NextPending found an item in a fully terminal queue")
	}
}

func TestUpdateStatusIsNonDestructive(t *testing.T) {
	item := NewItem("hello", ItemMessage, nil)
	original := Queue{}.Add(item)

	updated := original.UpdateStatus(item.ID, StatusProcessing)

	if got := original.Items()[0].Status; got != StatusPending {
		t.Errorf("original mutated: status = %q", got)
	}
	if got := updated.Items()[0].Status; got != StatusProcessing {
		t.Errorf("updated status = %q, want processing", got)
	}
}

func TestUpdateStatusUnknownIDIsNoOp(t *testing.T) {
	item := NewItem("hello", ItemMessage, nil)
	q := Queue{}.Add(item).UpdateStatus("no-such-id", StatusCancelled)
	if got := q.Items()[0].Status; got != StatusPending {
		t.Errorf("unknown-id update changed status: %q", got)
	}
}

func TestRemoveAndClear(t *testing.T) {
	a := NewItem("a", ItemMessage, nil)
	b := NewItem("b", ItemCommand, nil)
	q := Queue{}.Add(a).Add(b)

	q = q.Remove(a.ID)
	if q.Len() != 1 || q.Items()[0].ID != b.ID {
		t.Errorf("Remove left %d items", q.Len())
	}

	if q.Clear().Len() != 0 {
		t.Error("Clear did not empty the queue")
	}
}

func TestProcessingLookup(t *testing.T) {
	a := NewItem("a", ItemMessage, nil)
	q := Queue{}.Add(a)

	if _, ok := q.Processing(); ok {
		t.Error("Processing reported an item before any started")
	}
	q = q.UpdateStatus(a.ID, StatusProcessing)
	got, ok := q.Processing()
	if !ok || got.ID != a.ID {
		t.Errorf("Processing = (%q, %v)", got.Text, ok)
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	q := Queue{}.Add(NewItem("a", ItemMessage, nil))
	items := q.Items()
	items[0].Status = StatusCancelled
	if got := q.Items()[0].Status; got != StatusPending {
		t.Errorf("mutating Items() leaked into the queue: %q", got)
	}
}

func TestStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusProcessing, false},
		{StatusCompleted, true},
		{StatusCancelled, true},
	}
	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.want {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestSummary(t *testing.T) {
	a := NewItem("a", ItemMessage, nil)
	b := NewItem("b", ItemMessage, nil)
	c := NewItem("c", ItemCommand, nil)
	q := Queue{}.Add(a).Add(b).Add(c).
		UpdateStatus(a.ID, StatusCompleted).
		UpdateStatus(b.ID, StatusProcessing)

	want := "Pending: 1 | Processing: 1 | Completed: 1 | Cancelled: 0"
	if got := q.Summary(); got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}
}
