// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/AllramEst83/llm-terminal-app-sub000/internal/model"
)

const (
	headerHeight = 2
	inputHeight  = 4
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the full chat screen.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) renderHeader() string {
	title := fmt.Sprintf("llmterm · %s", m.session.Settings().ChatModel)
	return m.theme.Header.Width(max(m.width, 1)).Render(title)
}

func (m Model) renderInput() string {
	if m.state == StateStreaming {
		return m.theme.Input.Width(max(m.width-2, 1)).Render(
			m.spinner.View() + " " + m.theme.Muted.Render("waiting for response... (esc to cancel)"))
	}
	return m.theme.Input.Width(max(m.width-2, 1)).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	s := m.session.Settings()
	parts := []string{
		fmt.Sprintf("theme %s", s.Theme),
		fmt.Sprintf("%dpx", s.FontSize),
	}
	if q := m.session.Queue(); q.Len() > 0 {
		parts = append(parts, q.Summary())
	}
	if m.statusMsg != "" {
		parts = append(parts, m.statusMsg)
	}
	return m.theme.StatusBar.Render(strings.Join(parts, " · "))
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// refreshViewport re-renders the transcript into the viewport.
func (m *Model) refreshViewport() {
	msgs := m.session.Messages()
	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg))
	}
	m.viewport.SetContent(b.String())
}

func (m *Model) renderMessage(msg model.Message) string {
	var b strings.Builder
	switch msg.Role {
	case model.RoleUser:
		b.WriteString(m.theme.UserLabel.Render("YOU"))
		b.WriteString("\n")
		b.WriteString(m.theme.UserText.Render(msg.Text))
	case model.RoleModel:
		label := "MODEL"
		if msg.Model != "" {
			label = strings.ToUpper(msg.Model)
		}
		b.WriteString(m.theme.ModelLabel.Render(label))
		b.WriteString("\n")
		b.WriteString(m.renderMarkdown(msg.Text))
	case model.RoleSystem:
		b.WriteString(m.theme.SystemLabel.Render("SYSTEM"))
		b.WriteString("\n")
		if strings.HasPrefix(msg.Text, "SYSTEM ERROR:") {
			b.WriteString(m.theme.ErrorText.Render(msg.Text))
		} else {
			b.WriteString(m.theme.SystemText.Render(msg.Text))
		}
	}

	if len(msg.Images) > 0 {
		b.WriteString("\n")
		for _, img := range msg.Images {
			b.WriteString(m.theme.Muted.Render(fmt.Sprintf("[image: %s (%s)]", img.FileName, img.MimeType)))
			b.WriteString("\n")
		}
	}
	if len(msg.Sources) > 0 {
		b.WriteString("\n")
		b.WriteString(m.theme.SourceLine.Render("Sources:"))
		b.WriteString("\n")
		for _, src := range msg.Sources {
			b.WriteString(m.theme.SourceLine.Render("  " + formatSource(src, max(m.width-4, 20))))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

// renderMarkdown renders model output as markdown, falling back to the
// raw text when rendering fails mid-stream.
func (m *Model) renderMarkdown(text string) string {
	if text == "" {
		return ""
	}
	if m.renderer == nil {
		return highlightCodeBlocks(text)
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return m.theme.ModelText.Render(text)
	}
	return strings.TrimRight(out, "\n")
}

// formatSource renders one citation, truncating to the display width.
func formatSource(src model.Source, width int) string {
	line := src.Title
	if line == "" {
		line = src.URI
	} else if src.URI != "" {
		line += " — " + src.URI
	}
	return runewidth.Truncate(line, width, "…")
}
