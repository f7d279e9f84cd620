// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/AllramEst83/llm-terminal-app-sub000/internal/model"
)

// =============================================================================
// STREAM EVENTS
// =============================================================================

// EventKind discriminates streamed events.
type EventKind int

const (
	EventText EventKind = iota
	EventSources
	EventUsage
	EventError
	EventDone
)

// Event is one pull-based item from a streamed completion. Exactly one
// payload field is meaningful per kind. The channel always ends with a
// single EventError or EventDone.
type Event struct {
	Kind    EventKind
	Text    string
	Sources []model.Source
	Usage   *UsageMetadata
	Err     error
}

// =============================================================================
// SSE READER
// =============================================================================

// sseReader decodes server-sent events from streamGenerateContent.
// Each event is a "data: <json>" line; blank lines separate events.
type sseReader struct {
	scanner *bufio.Scanner
}

func newSSEReader(r io.Reader) *sseReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &sseReader{scanner: sc}
}

// Next returns the next decoded chunk, or io.EOF when the stream ends.
func (r *sseReader) Next() (*GenerateResponse, error) {
	for r.scanner.Scan() {
		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		data, ok := bytes.CutPrefix(line, []byte("data:"))
		if !ok {
			continue
		}
		data = bytes.TrimSpace(data)
		if string(data) == "[DONE]" {
			return nil, io.EOF
		}

		var chunk GenerateResponse
		if err := json.Unmarshal(data, &chunk); err != nil {
			return nil, fmt.Errorf("decode stream chunk: %w", err)
		}
		return &chunk, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// =============================================================================
// STREAMING
// =============================================================================

// StreamGenerateContent starts a streamed completion and returns a
// channel of events. The channel is closed after a terminal EventError
// or EventDone. Cancel the context to abort; cancellation surfaces as
// EventError carrying ctx.Err().
func (c *Client) StreamGenerateContent(ctx context.Context, modelID string, req *GenerateRequest) <-chan Event {
	events := make(chan Event)
	go func() {
		defer close(events)
		c.stream(ctx, modelID, req, events)
	}()
	return events
}

func (c *Client) stream(ctx context.Context, modelID string, req *GenerateRequest, events chan<- Event) {
	emit := func(ev Event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	fail := func(err error) {
		// The terminal event must land even when the context is already
		// cancelled; consumers drain until the channel closes, so a
		// blocking send cannot wedge.
		events <- Event{Kind: EventError, Err: err}
	}

	if !c.IsConfigured() {
		fail(ErrNotConfigured)
		return
	}
	if err := c.limiter.Wait(ctx); err != nil {
		fail(err)
		return
	}

	body, err := json.Marshal(req)
	if err != nil {
		fail(fmt.Errorf("encode request: %w", err))
		return
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.baseURL, modelID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		fail(fmt.Errorf("build request: %w", err))
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			fail(ctx.Err())
			return
		}
		fail(&APIError{Kind: ErrKindNetwork, Message: err.Error()})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		fail(decodeAPIError(resp.StatusCode, respBody))
		return
	}

	reader := newSSEReader(resp.Body)
	seenURIs := make(map[string]bool)
	for {
		chunk, err := reader.Next()
		if err == io.EOF {
			if !emit(Event{Kind: EventDone}) {
				fail(ctx.Err())
			}
			return
		}
		if err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			fail(err)
			return
		}

		if text := chunk.Text(); text != "" {
			if !emit(Event{Kind: EventText, Text: text}) {
				fail(ctx.Err())
				return
			}
		}
		if sources := dedupSources(chunk.Sources(), seenURIs); len(sources) > 0 {
			if !emit(Event{Kind: EventSources, Sources: sources}) {
				fail(ctx.Err())
				return
			}
		}
		if chunk.UsageMetadata != nil {
			// Each usage snapshot supersedes the previous one.
			if !emit(Event{Kind: EventUsage, Usage: chunk.UsageMetadata}) {
				fail(ctx.Err())
				return
			}
		}
	}
}

// dedupSources filters sources whose URI was already seen, preserving
// first-arrival order across the whole stream.
func dedupSources(sources []model.Source, seen map[string]bool) []model.Source {
	var out []model.Source
	for _, s := range sources {
		key := strings.TrimSpace(s.URI)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
