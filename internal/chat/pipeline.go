// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat drives the streaming completion pipeline for a terminal
// tab: it builds provider payloads from the transcript, applies the
// per-model thinking configuration, and adapts the raw provider stream
// into events the interface consumes.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/AllramEst83/llm-terminal-app-sub000/internal/config"
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/gemini"
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/model"
)

// =============================================================================
// PIPELINE EVENTS
// =============================================================================

// EventKind discriminates pipeline events.
type EventKind int

const (
	// EventDelta carries one text fragment of the reply.
	EventDelta EventKind = iota
	// EventSources carries newly seen grounding citations.
	EventSources
	// EventUsage carries the latest usage snapshot, superseding earlier ones.
	EventUsage
	// EventFailed terminates the stream with a user-facing error message.
	EventFailed
	// EventFinished terminates the stream normally or via cancellation.
	EventFinished
)

// Event is one item from a streamed completion. First is set on the
// initial EventDelta so the interface can swap its placeholder for live
// text. Exactly one EventFailed or EventFinished ends every stream.
type Event struct {
	Kind      EventKind
	Delta     string
	First     bool
	Sources   []model.Source
	Usage     *gemini.UsageMetadata
	Cancelled bool

	// Err is the underlying failure; Message is the remediation text
	// shown to the user as a system message.
	Err     error
	Message string
}

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline streams completions for one tab. It holds no per-request
// state; concurrency control (one in-flight request per tab) belongs to
// the session that owns it. The client field is guarded because
// SetClient can fire from the settings watcher while a stream is live;
// an in-flight stream keeps the client it started with.
type Pipeline struct {
	mu     sync.RWMutex
	client *gemini.Client
}

// NewPipeline creates a pipeline over the given client.
func NewPipeline(client *gemini.Client) *Pipeline {
	return &Pipeline{client: client}
}

// SetClient swaps the provider client, used after an API key change.
func (p *Pipeline) SetClient(client *gemini.Client) {
	p.mu.Lock()
	p.client = client
	p.mu.Unlock()
}

// Client returns the current provider client.
func (p *Pipeline) Client() *gemini.Client {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client
}

// =============================================================================
// PAYLOAD CONSTRUCTION
// =============================================================================

// BuildRequest converts the transcript into a provider payload. System
// messages never reach the provider; only user and model turns do, in
// transcript order, with image parts preceding text within a turn.
func BuildRequest(history []model.Message, settings config.Settings) *gemini.GenerateRequest {
	contents := make([]gemini.Content, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case model.RoleUser:
			contents = append(contents, gemini.NewUserContent(msg.Text, msg.Images))
		case model.RoleModel:
			contents = append(contents, gemini.NewModelContent(msg.Text))
		}
	}

	req := &gemini.GenerateRequest{Contents: contents}
	if directive := thinkingDirective(settings); directive != nil {
		req.GenerationConfig = &gemini.GenerationConfig{ThinkingConfig: directive}
	}
	return req
}

// thinkingDirective produces the provider thinking config for the
// active model, or nil when thinking is disabled. Budget-class models
// send an integer budget; level-class models send a level string.
func thinkingDirective(settings config.Settings) *gemini.ThinkingDirective {
	tc := settings.ThinkingFor(settings.ChatModel)
	if !tc.Enabled {
		return nil
	}
	switch tc.Class {
	case model.ThinkingBudget:
		budget := tc.Budget
		return &gemini.ThinkingDirective{ThinkingBudget: &budget}
	case model.ThinkingLevel:
		return &gemini.ThinkingDirective{ThinkingLevel: tc.Level}
	default:
		return nil
	}
}

// =============================================================================
// STREAMING
// =============================================================================

// Stream runs one streamed completion over the transcript. The returned
// channel closes after a single terminal event. Cancelling the context
// ends the stream with EventFinished{Cancelled: true}, not a failure;
// partial text already delivered stays valid.
func (p *Pipeline) Stream(ctx context.Context, history []model.Message, settings config.Settings) <-chan Event {
	client := p.Client()
	out := make(chan Event)
	go func() {
		defer close(out)

		req := BuildRequest(history, settings)
		events := client.StreamGenerateContent(ctx, settings.ChatModel, req)

		first := true
		for ev := range events {
			switch ev.Kind {
			case gemini.EventText:
				out <- Event{Kind: EventDelta, Delta: ev.Text, First: first}
				first = false
			case gemini.EventSources:
				out <- Event{Kind: EventSources, Sources: ev.Sources}
			case gemini.EventUsage:
				out <- Event{Kind: EventUsage, Usage: ev.Usage}
			case gemini.EventError:
				if isCancellation(ev.Err) {
					out <- Event{Kind: EventFinished, Cancelled: true}
					return
				}
				kind := gemini.Classify(ev.Err)
				out <- Event{
					Kind:    EventFailed,
					Err:     ev.Err,
					Message: gemini.Remediation(kind),
				}
				return
			case gemini.EventDone:
				out <- Event{Kind: EventFinished}
				return
			}
		}
		// The provider channel closed without a terminal event.
		out <- Event{Kind: EventFailed, Err: errors.New("stream ended unexpectedly"), Message: gemini.Remediation(gemini.ErrKindUnknown)}
	}()
	return out
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// =============================================================================
// CONTEXT WARNING
// =============================================================================

// ContextWarning returns a warning when the prompt token count comes
// within the warning buffer of the model's context limit. The empty
// string means no warning; unknown models never warn.
func ContextWarning(modelID string, promptTokens int) string {
	limit := model.ContextLimit(modelID)
	if limit <= 0 {
		return ""
	}
	if promptTokens < limit-model.ContextWarningBuffer {
		return ""
	}
	return fmt.Sprintf("Warning: conversation is using %d of %d context tokens. Consider /clear to start fresh.", promptTokens, limit)
}
