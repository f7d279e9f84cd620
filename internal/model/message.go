// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the terminal conversation.
package model

import (
	"strings"
	"sync"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleSystem Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleModel:
		return "Model"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// SOURCE TYPE
// =============================================================================

// Source is a citation attached to a model response by grounding metadata.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// =============================================================================
// IMAGE DATA TYPE
// =============================================================================

// ImageData holds an inline image attached to a message.
type ImageData struct {
	// Data is the base64-encoded payload
	Data string `json:"data"`

	// MimeType identifies the image format (e.g., "image/png")
	MimeType string `json:"mime_type"`

	// FileName is the original or generated file name
	FileName string `json:"file_name,omitempty"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry in the conversation transcript.
//
// Messages are value types: every update goes through a With method that
// returns a new Message, never through in-place mutation. The transcript
// owner swaps whole messages when streaming text arrives.
type Message struct {
	// Identity
	ID        int64     `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Text string `json:"text"`

	// Sources cited by grounding metadata, deduplicated by URI
	Sources []Source `json:"sources,omitempty"`

	// Images generated or attached inline
	Images []ImageData `json:"images,omitempty"`

	// Model is the id of the model that produced the message
	Model string `json:"model,omitempty"`

	// Command echo for command result messages
	Command   string `json:"command,omitempty"`
	UserInput string `json:"user_input,omitempty"`
}

// WithText returns a copy with the text replaced.
func (m Message) WithText(text string) Message {
	m.Text = text
	return m
}

// AppendText returns a copy with the delta appended to the text.
func (m Message) AppendText(delta string) Message {
	m.Text += delta
	return m
}

// WithSources returns a copy with the source list attached.
func (m Message) WithSources(sources []Source) Message {
	m.Sources = append([]Source(nil), sources...)
	return m
}

// WithImages returns a copy with the images attached.
func (m Message) WithImages(images []ImageData) Message {
	m.Images = append([]ImageData(nil), images...)
	return m
}

// WithModel returns a copy tagged with the producing model id.
func (m Message) WithModel(id string) Message {
	m.Model = id
	return m
}

// WithCommandEcho returns a copy carrying the command name and raw input.
func (m Message) WithCommandEcho(command, input string) Message {
	m.Command = command
	m.UserInput = input
	return m
}

// IsEmpty returns true if the message has no text and no images.
func (m Message) IsEmpty() bool {
	return len(m.Text) == 0 && len(m.Images) == 0
}

// Preview returns a truncated preview of the message text.
// Uses rune-based truncation to handle Unicode correctly.
func (m Message) Preview(maxLen int) string {
	runes := []rune(m.Text)
	if len(runes) <= maxLen {
		return m.Text
	}
	return string(runes[:maxLen-3]) + "..."
}

// EstimateTokens gives a rough estimate of token count.
// Uses the approximation of ~4 characters per token.
func (m Message) EstimateTokens() int {
	return (len(m.Text) + 3) / 4
}

// FirstLine returns the first line of the message text.
func (m Message) FirstLine() string {
	if idx := strings.IndexByte(m.Text, '\n'); idx >= 0 {
		return m.Text[:idx]
	}
	return m.Text
}

// =============================================================================
// ID SOURCE
// =============================================================================

// IDSource issues monotonic message ids and timestamps.
//
// An explicit source instead of package-level counters keeps tests
// deterministic: inject a fixed clock and ids start from zero.
type IDSource struct {
	mu   sync.Mutex
	next int64
	now  func() time.Time
}

// NewIDSource creates an IDSource backed by the wall clock.
func NewIDSource() *IDSource {
	return &IDSource{now: time.Now}
}

// NewIDSourceWithClock creates an IDSource with an injected clock.
func NewIDSourceWithClock(now func() time.Time) *IDSource {
	if now == nil {
		now = time.Now
	}
	return &IDSource{now: now}
}

// NextID returns the next monotonic id.
func (s *IDSource) NextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

// Now returns the current time from the injected clock.
func (s *IDSource) Now() time.Time {
	return s.now()
}

// Advance raises the counter so future ids stay above n. Used when
// resuming a persisted transcript.
func (s *IDSource) Advance(n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > s.next {
		s.next = n
	}
}

// NewMessage creates a message with an id and timestamp from this source.
func (s *IDSource) NewMessage(role Role, text string) Message {
	return Message{
		ID:        s.NextID(),
		Role:      role,
		Text:      text,
		Timestamp: s.Now(),
	}
}

// NewUserMessage creates a user message.
func (s *IDSource) NewUserMessage(text string) Message {
	return s.NewMessage(RoleUser, text)
}

// NewModelMessage creates an empty model message ready for streaming.
func (s *IDSource) NewModelMessage(modelID string) Message {
	m := s.NewMessage(RoleModel, "")
	m.Model = modelID
	return m
}

// NewSystemMessage creates a system message.
func (s *IDSource) NewSystemMessage(text string) Message {
	return s.NewMessage(RoleSystem, text)
}
