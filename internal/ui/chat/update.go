// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	pipeline "github.com/AllramEst83/llm-terminal-app-sub000/internal/chat"
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/commands"
)

// =============================================================================
// MESSAGES
// =============================================================================

// streamEventMsg carries one applied pipeline event; ok is false when
// the stream channel closed.
type streamEventMsg struct {
	event pipeline.Event
	ok    bool
}

// commandDoneMsg reports a finished slash command.
type commandDoneMsg struct {
	result commands.Result
}

// waitForEvent reads the next event off the live stream.
func waitForEvent(events <-chan pipeline.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		return streamEventMsg{event: ev, ok: ok}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update is the Bubble Tea update loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - inputHeight - headerHeight
		m.input.Width = msg.Width - 4
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.session.Cancel()
			return m, tea.Quit
		case "esc":
			if m.state == StateStreaming {
				m.session.Cancel()
				m.statusMsg = "Cancelling..."
			}
			return m, nil
		case "enter":
			if m.state == StateReady {
				return m.submit()
			}
			return m, nil
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case streamEventMsg:
		return m.applyStreamEvent(msg)

	case commandDoneMsg:
		m.state = StateReady
		m.input.Focus()
		m.refreshTheme()
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submit handles Enter: slash commands dispatch, anything else streams.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.Reset()
	m.statusMsg = ""

	if parsed, ok := commands.Parse(text); ok {
		m.state = StateStreaming
		m.input.Blur()
		s := m.session
		return m, func() tea.Msg {
			result := s.RunCommand(context.Background(), parsed)
			return commandDoneMsg{result: result}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	events, err := m.session.StartChat(ctx, "", text, nil)
	if err != nil {
		cancel()
		m.statusMsg = err.Error()
		return m, nil
	}
	m.cancelStream = cancel
	m.events = events
	m.state = StateStreaming
	m.input.Blur()
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, tea.Batch(m.spinner.Tick, waitForEvent(events))
}

// applyStreamEvent refreshes the view after the session applied one
// pipeline event, and re-arms the event wait until the stream ends.
func (m Model) applyStreamEvent(msg streamEventMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		return m.endStream(), nil
	}

	switch msg.event.Kind {
	case pipeline.EventDelta, pipeline.EventSources:
		m.refreshViewport()
		m.viewport.GotoBottom()
	case pipeline.EventFailed:
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m.endStream(), nil
	case pipeline.EventFinished:
		if msg.event.Cancelled {
			m.statusMsg = "Request cancelled."
		}
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m.endStream(), nil
	}
	return m, waitForEvent(m.events)
}

func (m Model) endStream() Model {
	if m.cancelStream != nil {
		m.cancelStream()
		m.cancelStream = nil
	}
	m.events = nil
	m.state = StateReady
	m.input.Focus()
	return m
}
