// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AllramEst83/llm-terminal-app-sub000/internal/chat"
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/commands"
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/gemini"
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/model"
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/tasks"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func newStreamServer(t *testing.T, chunks ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", c)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCommandFlowUpdatesAndPersists(t *testing.T) {
	m := newTestManager(t)
	s, err := m.Session("tab1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}

	parsed, _ := commands.Parse("/font 12")
	result := s.RunCommand(context.Background(), parsed)
	if !result.Success {
		t.Fatalf("command failed: %q", result.Message)
	}
	if s.Settings().FontSize != 12 {
		t.Errorf("FontSize = %d, want 12", s.Settings().FontSize)
	}

	// The confirmation lands in the transcript as a system message.
	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].Role != model.RoleSystem {
		t.Fatalf("transcript = %+v, want one system message", msgs)
	}
	if !strings.Contains(msgs[0].Text, "Font size set to 12px") {
		t.Errorf("message = %q", msgs[0].Text)
	}

	// A fresh session for the same scope sees the saved settings.
	m2, err := NewManager(m.dataDir, "")
	if err != nil {
		t.Fatalf("reopen manager: %v", err)
	}
	defer m2.Close()
	s2, err := m2.Session("tab1")
	if err != nil {
		t.Fatalf("reopen session: %v", err)
	}
	if s2.Settings().FontSize != 12 {
		t.Errorf("reloaded FontSize = %d, want 12", s2.Settings().FontSize)
	}
	if len(s2.Messages()) != 1 {
		t.Errorf("reloaded transcript = %d messages, want 1", len(s2.Messages()))
	}
}

func TestStartChatAppliesStream(t *testing.T) {
	srv := newStreamServer(t,
		`{"candidates":[{"content":{"parts":[{"text":"Hel"}]}}]}`,
		`{"candidates":[{"content":{"parts":[{"text":"lo"}]}}]}`,
		`{"candidates":[{"content":{"parts":[{"text":" world"}]}}],"usageMetadata":{"promptTokenCount":42,"candidatesTokenCount":3,"totalTokenCount":45}}`)

	m := newTestManager(t)
	s, err := m.Session("tab1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	s.pipeline.SetClient(gemini.NewClient("test-key", gemini.WithBaseURL(srv.URL)))

	events, err := s.StartChat(context.Background(), "", "hello", nil)
	if err != nil {
		t.Fatalf("StartChat: %v", err)
	}
	for range events {
	}

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("transcript = %d messages, want user+model", len(msgs))
	}
	if msgs[1].Role != model.RoleModel || msgs[1].Text != "Hello world" {
		t.Errorf("reply = %+v, want Hello world", msgs[1])
	}

	usage := s.Ledger().ChatUsage(s.Settings().ChatModel)
	if usage.InputTokens != 42 || usage.OutputTokens != 3 {
		t.Errorf("ledger usage = %+v, want input 42 output 3", usage)
	}
	if s.Busy() {
		t.Error("session still busy after stream end")
	}
}

func TestStartChatSingleFlight(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"hi\"}]}}]}\n\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
	}))
	defer srv.Close()

	m := newTestManager(t)
	s, err := m.Session("tab1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	s.pipeline.SetClient(gemini.NewClient("test-key", gemini.WithBaseURL(srv.URL)))

	events, err := s.StartChat(context.Background(), "", "first", nil)
	if err != nil {
		t.Fatalf("StartChat: %v", err)
	}
	// Wait for the stream to be live before probing the flight slot.
	<-events

	if _, err := s.StartChat(context.Background(), "", "second", nil); err != ErrBusy {
		t.Errorf("second StartChat err = %v, want ErrBusy", err)
	}

	close(release)
	for range events {
	}
	if s.Busy() {
		t.Error("still busy after completion")
	}
}

func TestChatFailureBecomesSystemError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"code":401,"message":"API key not valid","status":"UNAUTHENTICATED"}}`)
	}))
	defer srv.Close()

	m := newTestManager(t)
	s, err := m.Session("tab1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	s.pipeline.SetClient(gemini.NewClient("bad", gemini.WithBaseURL(srv.URL)))

	events, err := s.StartChat(context.Background(), "", "hello", nil)
	if err != nil {
		t.Fatalf("StartChat: %v", err)
	}
	var failed bool
	for ev := range events {
		if ev.Kind == chat.EventFailed {
			failed = true
		}
	}
	if !failed {
		t.Fatal("no failure event")
	}

	msgs := s.Messages()
	last := msgs[len(msgs)-1]
	if last.Role != model.RoleSystem || !strings.HasPrefix(last.Text, "SYSTEM ERROR:") {
		t.Errorf("last message = %+v, want SYSTEM ERROR system message", last)
	}
	// The reply never produced text, so its placeholder is gone.
	for _, msg := range msgs {
		if msg.Role == model.RoleModel {
			t.Errorf("empty reply placeholder survived: %+v", msg)
		}
	}

	// And it is gone from the stored transcript too.
	m2, err := NewManager(m.dataDir, "")
	if err != nil {
		t.Fatalf("reopen manager: %v", err)
	}
	defer m2.Close()
	s2, err := m2.Session("tab1")
	if err != nil {
		t.Fatalf("reopen session: %v", err)
	}
	for _, msg := range s2.Messages() {
		if msg.Role == model.RoleModel {
			t.Errorf("placeholder persisted: %+v", msg)
		}
	}
}

func TestChatFailureKeepsPartialReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"Hel\"}]}}]}\n\n")
		fmt.Fprint(w, "data: {broken\n\n")
	}))
	defer srv.Close()

	m := newTestManager(t)
	s, err := m.Session("tab1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	s.pipeline.SetClient(gemini.NewClient("test-key", gemini.WithBaseURL(srv.URL)))

	events, err := s.StartChat(context.Background(), "", "hello", nil)
	if err != nil {
		t.Fatalf("StartChat: %v", err)
	}
	for range events {
	}

	var partial *model.Message
	for _, msg := range s.Messages() {
		if msg.Role == model.RoleModel {
			m := msg
			partial = &m
		}
	}
	if partial == nil || partial.Text != "Hel" {
		t.Fatalf("partial reply = %+v, want text %q kept", partial, "Hel")
	}

	// The partial text survives a reload.
	m2, err := NewManager(m.dataDir, "")
	if err != nil {
		t.Fatalf("reopen manager: %v", err)
	}
	defer m2.Close()
	s2, err := m2.Session("tab1")
	if err != nil {
		t.Fatalf("reopen session: %v", err)
	}
	var stored string
	for _, msg := range s2.Messages() {
		if msg.Role == model.RoleModel {
			stored = msg.Text
		}
	}
	if stored != "Hel" {
		t.Errorf("stored partial = %q, want %q", stored, "Hel")
	}
}

func TestFailedCommandBecomesSystemError(t *testing.T) {
	m := newTestManager(t)
	s, err := m.Session("tab1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}

	parsed, _ := commands.Parse("/font abc")
	result := s.RunCommand(context.Background(), parsed)
	if result.Success {
		t.Fatal("invalid font size accepted")
	}

	msgs := s.Messages()
	if len(msgs) != 1 {
		t.Fatalf("transcript = %d messages, want 1", len(msgs))
	}
	if !strings.HasPrefix(msgs[0].Text, "SYSTEM ERROR:") {
		t.Errorf("message = %q, want SYSTEM ERROR prefix", msgs[0].Text)
	}
	if !strings.Contains(msgs[0].Text, "Invalid font size") {
		t.Errorf("message = %q, want the validation text preserved", msgs[0].Text)
	}
}

func TestQueueProcessing(t *testing.T) {
	m := newTestManager(t)
	s, err := m.Session("tab1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}

	s.Submit("/font 20", nil)
	s.Submit("/theme ocean", nil)

	_, result, ok := s.ProcessNext(context.Background())
	if !ok || result == nil || !result.Success {
		t.Fatalf("first ProcessNext: ok=%v result=%+v", ok, result)
	}
	if s.Settings().FontSize != 20 {
		t.Errorf("FontSize = %d, want 20", s.Settings().FontSize)
	}

	_, result, ok = s.ProcessNext(context.Background())
	if !ok || result == nil || !result.Success {
		t.Fatalf("second ProcessNext: ok=%v result=%+v", ok, result)
	}
	if s.Settings().Theme != "ocean" {
		t.Errorf("Theme = %q, want ocean", s.Settings().Theme)
	}

	if _, _, ok := s.ProcessNext(context.Background()); ok {
		t.Error("ProcessNext on empty queue reported work")
	}
	if n := s.Queue().CountByStatus(tasks.StatusCompleted); n != 2 {
		t.Errorf("completed items = %d, want 2", n)
	}
}

func TestClearCommandResetsTranscriptAndLedger(t *testing.T) {
	m := newTestManager(t)
	s, err := m.Session("tab1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}

	s.AppendSystem("old message")
	s.Ledger().RecordChat(s.Settings().ChatModel, 100, 20)

	parsed, _ := commands.Parse("/clear")
	result := s.RunCommand(context.Background(), parsed)
	if !result.Success {
		t.Fatalf("clear failed: %q", result.Message)
	}

	msgs := s.Messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0].Text, "cleared") {
		t.Errorf("transcript after clear = %+v, want only the confirmation", msgs)
	}
	if usage := s.Ledger().ChatUsage(s.Settings().ChatModel); !usage.IsZero() {
		t.Errorf("ledger not reset: %+v", usage)
	}
}

func TestAPIKeyCommandSealsKey(t *testing.T) {
	m := newTestManager(t)
	s, err := m.Session("tab1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}

	parsed, _ := commands.Parse("/apikey sk-test-abc")
	if result := s.RunCommand(context.Background(), parsed); !result.Success {
		t.Fatalf("apikey failed: %q", result.Message)
	}

	if !m.keys.HasKey() {
		t.Fatal("keystore has no sealed key")
	}
	key, err := m.keys.Key()
	if err != nil {
		t.Fatalf("unseal: %v", err)
	}
	if key != "sk-test-abc" {
		t.Errorf("unsealed key = %q", key)
	}
	if !s.pipeline.Client().IsConfigured() {
		t.Error("client not reconfigured with the new key")
	}
}
