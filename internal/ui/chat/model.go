// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the terminal.
package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	pipeline "github.com/AllramEst83/llm-terminal-app-sub000/internal/chat"
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/session"
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State is the view's input state.
type State int

const (
	StateReady     State = iota // accepting input
	StateStreaming              // response in flight, input disabled
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for one conversation tab.
type Model struct {
	session *session.Session
	theme   *styles.Theme

	width  int
	height int
	state  State

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	// events is the live stream for the in-flight request.
	events <-chan pipeline.Event

	// cancelStream aborts the in-flight request on Esc.
	cancelStream context.CancelFunc

	statusMsg string
}

// New creates the chat view over a session.
func New(s *session.Session) Model {
	theme := styles.NewTheme(s.Settings().Theme)

	input := textinput.New()
	input.Placeholder = "Type a message or /help"
	input.Prompt = "> "
	input.CharLimit = 0
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	vp := viewport.New(80, 20)

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(78),
	)

	return Model{
		session:  s,
		theme:    theme,
		state:    StateReady,
		viewport: vp,
		input:    input,
		spinner:  sp,
		renderer: renderer,
	}
}

// Init starts the spinner ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// refreshTheme rebuilds styles after a theme or font change.
func (m *Model) refreshTheme() {
	m.theme = styles.NewTheme(m.session.Settings().Theme)
	m.spinner.Style = m.theme.Spinner
}
