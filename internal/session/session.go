// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/AllramEst83/llm-terminal-app-sub000/internal/chat"
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/commands"
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/config"
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/gemini"
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/model"
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/tasks"
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/telemetry"
)

// ErrBusy is returned when a submission arrives while a request is
// already in flight. Callers queue instead of running concurrently.
var ErrBusy = errors.New("a request is already in flight")

// =============================================================================
// SESSION
// =============================================================================

// Session is one tab's conversation state. All methods are safe for
// concurrent use; at most one chat request is in flight at a time.
type Session struct {
	mu      sync.Mutex
	scope   string
	manager *Manager

	settings     config.Settings
	audioEnabled bool
	ledger       *telemetry.Ledger
	queue        tasks.Queue
	ids          *model.IDSource
	messages     []model.Message
	pipeline     *chat.Pipeline

	busy   bool
	cancel context.CancelFunc
}

func newSession(m *Manager, scope string) (*Session, error) {
	settings, err := m.store.Load(scope)
	if err != nil {
		log.Printf("session %s: settings load: %v (using defaults)", scope, err)
	}

	ids := model.NewIDSource()
	messages, err := m.transcripts.Load(context.Background(), scope)
	if err != nil {
		log.Printf("session %s: transcript load: %v (starting empty)", scope, err)
		messages = nil
	}
	if maxID, err := m.transcripts.MaxID(context.Background(), scope); err == nil {
		ids.Advance(maxID)
	}

	ledger := telemetry.NewLedger()
	if st := m.usageStorage(scope); st != nil {
		if l, err := telemetry.NewLedgerWithStorage(st); err == nil {
			ledger = l
		} else {
			log.Printf("session %s: usage load: %v (in-memory ledger)", scope, err)
		}
	}

	return &Session{
		scope:    scope,
		manager:  m,
		settings: settings,
		ledger:   ledger,
		ids:      ids,
		messages: messages,
		pipeline: chat.NewPipeline(newClient(m.apiKeyFor(settings))),
	}, nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Scope returns the tab scope id.
func (s *Session) Scope() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

// Settings returns the current settings value.
func (s *Session) Settings() config.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Message(nil), s.messages...)
}

// Queue returns the current submission queue value.
func (s *Session) Queue() tasks.Queue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue
}

// Ledger returns the session's usage ledger.
func (s *Session) Ledger() *telemetry.Ledger {
	return s.ledger
}

// Busy reports whether a request is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// AudioEnabled reports the response-audio flag.
func (s *Session) AudioEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audioEnabled
}

// ReloadSettings re-reads settings from disk after an external edit.
func (s *Session) ReloadSettings() {
	settings, err := s.manager.store.Load(s.scope)
	if err != nil {
		log.Printf("session %s: settings reload: %v", s.scope, err)
		return
	}
	s.mu.Lock()
	s.settings = settings
	s.pipeline.SetClient(newClient(s.manager.apiKeyFor(settings)))
	s.mu.Unlock()
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// AppendSystem appends and persists a system message.
func (s *Session) AppendSystem(text string) model.Message {
	s.mu.Lock()
	msg := s.ids.NewSystemMessage(text)
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	s.persist(msg)
	return msg
}

func (s *Session) persist(msg model.Message) {
	if err := s.manager.transcripts.Save(context.Background(), s.scope, msg); err != nil {
		log.Printf("session %s: persist message %d: %v", s.scope, msg.ID, err)
	}
}

// replaceMessage swaps the stored copy of a message by id.
func (s *Session) replaceMessage(msg model.Message) {
	s.mu.Lock()
	for i := range s.messages {
		if s.messages[i].ID == msg.ID {
			s.messages[i] = msg
			break
		}
	}
	s.mu.Unlock()
}

// removeMessage drops a message from the transcript and its stored row.
func (s *Session) removeMessage(id int64) {
	s.mu.Lock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if err := s.manager.transcripts.Delete(context.Background(), s.scope, id); err != nil {
		log.Printf("session %s: delete message %d: %v", s.scope, id, err)
	}
}

// clearTranscript wipes messages, queue, and session usage.
func (s *Session) clearTranscript() {
	s.mu.Lock()
	s.messages = nil
	s.queue = s.queue.Clear()
	s.mu.Unlock()

	if err := s.manager.transcripts.Clear(context.Background(), s.scope); err != nil {
		log.Printf("session %s: clear transcript: %v", s.scope, err)
	}
	s.ledger.Reset()
}

// =============================================================================
// QUEUE
// =============================================================================

// Submit enqueues raw input as a pending queue item.
func (s *Session) Submit(text string, images []model.ImageData) tasks.Item {
	typ := tasks.ItemMessage
	if commands.IsCommand(text) {
		typ = tasks.ItemCommand
	}
	item := tasks.NewItem(text, typ, images)

	s.mu.Lock()
	s.queue = s.queue.Add(item)
	s.mu.Unlock()
	return item
}

// NextPending returns the first pending queue item, if any, without
// starting it.
func (s *Session) NextPending() (tasks.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.NextPending()
}

// beginItem moves an item to processing under the single-flight rule.
func (s *Session) beginItem(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	s.queue = s.queue.UpdateStatus(id, tasks.StatusProcessing)
	return true
}

// finishItem marks an item terminal and releases the single-flight slot.
func (s *Session) finishItem(id string, status tasks.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.cancel = nil
	if id != "" {
		s.queue = s.queue.UpdateStatus(id, status)
	}
}

// Cancel aborts the in-flight request, if any.
func (s *Session) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// =============================================================================
// COMMAND EXECUTION
// =============================================================================

// RunCommand dispatches a parsed command and applies its result:
// settings updates are applied and saved, side-effect flags executed,
// and the result message appended as a system message.
func (s *Session) RunCommand(ctx context.Context, parsed commands.Parsed) commands.Result {
	s.mu.Lock()
	env := commands.Env{
		Settings:     s.settings,
		Ledger:       s.ledger,
		Client:       s.pipeline.Client(),
		AudioEnabled: s.audioEnabled,
	}
	s.mu.Unlock()

	result := commands.Dispatch(ctx, parsed, env)
	s.applyResult(result, parsed)
	return result
}

func (s *Session) applyResult(result commands.Result, parsed commands.Parsed) {
	if len(result.Updates) > 0 {
		s.mu.Lock()
		before := s.settings
		s.settings = config.Apply(s.settings, result.Updates...)
		after := s.settings
		s.mu.Unlock()

		if err := s.manager.store.Save(after, s.scope); err != nil {
			log.Printf("session %s: save settings: %v", s.scope, err)
		}
		if after.APIKey != before.APIKey && after.APIKey != "" {
			if err := s.manager.keys.SetKey(after.APIKey); err != nil {
				log.Printf("session %s: seal API key: %v", s.scope, err)
			}
			s.mu.Lock()
			s.pipeline.SetClient(newClient(after.APIKey))
			s.mu.Unlock()
		}
	}

	if result.Audio != nil {
		s.mu.Lock()
		s.audioEnabled = *result.Audio
		s.mu.Unlock()
	}

	if result.ClearMessages {
		s.clearTranscript()
	}

	if result.Message != "" {
		text := result.Message
		if !result.Success {
			text = "SYSTEM ERROR: " + text
		}
		s.mu.Lock()
		msg := s.ids.NewSystemMessage(text)
		if parsed.Name != "" {
			msg = msg.WithCommandEcho(parsed.Name, strings.TrimSpace("/"+parsed.Name+" "+strings.Join(parsed.Args, " ")))
		}
		if len(result.Images) > 0 {
			msg = msg.WithImages(result.Images)
		}
		if len(result.Sources) > 0 {
			msg = msg.WithSources(result.Sources)
		}
		s.messages = append(s.messages, msg)
		s.mu.Unlock()
		s.persist(msg)
	}
}

// =============================================================================
// CHAT EXECUTION
// =============================================================================

// StartChat sends one user message and streams the reply. It enforces
// single-flight: a second call while streaming returns ErrBusy. Events
// are re-emitted on the returned channel after being applied to the
// transcript, so the interface can render from Messages() as they land.
func (s *Session) StartChat(ctx context.Context, itemID, text string, images []model.ImageData) (<-chan chat.Event, error) {
	s.mu.Lock()
	if s.busy && itemID == "" {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	if itemID == "" {
		s.busy = true
	}

	user := s.ids.NewUserMessage(text)
	if len(images) > 0 {
		user = user.WithImages(images)
	}
	reply := s.ids.NewModelMessage(s.settings.ChatModel)
	s.messages = append(s.messages, user, reply)
	history := append([]model.Message(nil), s.messages[:len(s.messages)-1]...)
	settings := s.settings
	s.mu.Unlock()

	s.persist(user)
	s.persist(reply)

	out := make(chan chat.Event)
	go func() {
		defer close(out)
		defer cancel()

		var lastUsage *gemini.UsageMetadata
		for ev := range s.pipeline.Stream(ctx, history, settings) {
			switch ev.Kind {
			case chat.EventDelta:
				reply = reply.AppendText(ev.Delta)
				s.replaceMessage(reply)
			case chat.EventSources:
				reply = reply.WithSources(append(reply.Sources, ev.Sources...))
				s.replaceMessage(reply)
			case chat.EventUsage:
				lastUsage = ev.Usage
			case chat.EventFailed:
				// Keep whatever streamed before the failure; an empty
				// placeholder has nothing to show and is dropped.
				if reply.Text != "" {
					s.persist(reply)
				} else {
					s.removeMessage(reply.ID)
				}
				s.AppendSystem("SYSTEM ERROR: " + ev.Message)
				s.finishItem(itemID, tasks.StatusCompleted)
			case chat.EventFinished:
				s.persist(reply)
				if lastUsage != nil {
					s.ledger.RecordChat(settings.ChatModel, lastUsage.PromptTokenCount, lastUsage.CandidatesTokenCount)
					if warning := chat.ContextWarning(settings.ChatModel, lastUsage.PromptTokenCount); warning != "" {
						s.AppendSystem(warning)
					}
				}
				status := tasks.StatusCompleted
				if ev.Cancelled {
					status = tasks.StatusCancelled
				}
				s.finishItem(itemID, status)
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				// Receiver stopped listening; keep draining so state
				// still settles.
			}
		}
	}()
	return out, nil
}

// ProcessNext runs the first pending queue item. The boolean is false
// when the queue is empty or a request is already in flight. Command
// items execute synchronously; message items return a live event
// channel.
func (s *Session) ProcessNext(ctx context.Context) (<-chan chat.Event, *commands.Result, bool) {
	item, ok := s.NextPending()
	if !ok || !s.beginItem(item.ID) {
		return nil, nil, false
	}

	if item.Type == tasks.ItemCommand {
		parsed, _ := commands.Parse(item.Text)
		result := s.RunCommand(ctx, parsed)
		s.finishItem(item.ID, tasks.StatusCompleted)
		return nil, &result, true
	}

	events, err := s.StartChat(ctx, item.ID, item.Text, item.Images)
	if err != nil {
		s.finishItem(item.ID, tasks.StatusCancelled)
		return nil, nil, false
	}
	return events, nil, true
}
