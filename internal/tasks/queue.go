// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks provides the pending-submission queue for a terminal tab.
package tasks

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AllramEst83/llm-terminal-app-sub000/internal/model"
)

// =============================================================================
// QUEUE ITEM
// =============================================================================

// ItemType distinguishes slash commands from chat messages.
type ItemType string

const (
	ItemCommand ItemType = "command"
	ItemMessage ItemType = "message"
)

// Status is the lifecycle state of a queued submission.
// Transitions: pending -> processing -> completed | cancelled.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether the status ends the item's lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Item is one queued submission. Items are immutable except for the
// status field, and even that is only changed by UpdateStatus producing a
// new list.
type Item struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Type      ItemType          `json:"type"`
	Images    []model.ImageData `json:"images,omitempty"`
	Status    Status            `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewItem creates a pending item with a fresh id.
func NewItem(text string, typ ItemType, images []model.ImageData) Item {
	return Item{
		ID:        uuid.NewString(),
		Text:      text,
		Type:      typ,
		Images:    images,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
}

// =============================================================================
// QUEUE
// =============================================================================

// Queue is a FIFO of pending submissions. All operations are pure list
// transforms returning a new Queue; the zero value is an empty queue.
//
// The single-flight invariant (at most one item processing at a time) is
// the caller's responsibility: a caller moves an item to processing only
// after the previous processing item reached a terminal status.
type Queue struct {
	items []Item
}

// Items returns a copy of the queued items in arrival order.
func (q Queue) Items() []Item {
	return append([]Item(nil), q.items...)
}

// Len returns the number of items in the queue.
func (q Queue) Len() int {
	return len(q.items)
}

// Add appends an item, preserving arrival order.
func (q Queue) Add(item Item) Queue {
	items := make([]Item, 0, len(q.items)+1)
	items = append(items, q.items...)
	items = append(items, item)
	return Queue{items: items}
}

// Remove drops the item with the given id, if present.
func (q Queue) Remove(id string) Queue {
	items := make([]Item, 0, len(q.items))
	for _, it := range q.items {
		if it.ID != id {
			items = append(items, it)
		}
	}
	return Queue{items: items}
}

// Clear returns an empty queue.
func (q Queue) Clear() Queue {
	return Queue{}
}

// NextPending returns the first item whose status is pending,
// establishing strict arrival-order processing.
func (q Queue) NextPending() (Item, bool) {
	for _, it := range q.items {
		if it.Status == StatusPending {
			return it, true
		}
	}
	return Item{}, false
}

// UpdateStatus returns a queue with one item's status replaced. It is the
// only mutation path and is still non-destructive: the original queue is
// untouched.
func (q Queue) UpdateStatus(id string, status Status) Queue {
	items := make([]Item, len(q.items))
	for i, it := range q.items {
		if it.ID == id {
			it.Status = status
		}
		items[i] = it
	}
	return Queue{items: items}
}

// Processing returns the currently processing item, if any.
func (q Queue) Processing() (Item, bool) {
	for _, it := range q.items {
		if it.Status == StatusProcessing {
			return it, true
		}
	}
	return Item{}, false
}

// CountByStatus returns how many items carry the given status.
func (q Queue) CountByStatus(status Status) int {
	n := 0
	for _, it := range q.items {
		if it.Status == status {
			n++
		}
	}
	return n
}

// Summary returns a formatted one-line summary of the queue.
func (q Queue) Summary() string {
	return fmt.Sprintf("Pending: %d | Processing: %d | Completed: %d | Cancelled: %d",
		q.CountByStatus(StatusPending),
		q.CountByStatus(StatusProcessing),
		q.CountByStatus(StatusCompleted),
		q.CountByStatus(StatusCancelled))
}
