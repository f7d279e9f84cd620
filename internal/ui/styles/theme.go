// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the terminal.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// PALETTES
// =============================================================================

// Palette is the color set behind one theme name.
type Palette struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	UserText   lipgloss.Color
	ModelText  lipgloss.Color
	SystemText lipgloss.Color
	ErrorText  lipgloss.Color
	Border     lipgloss.Color
}

// palettes maps theme names to their colors. Names here must match the
// themes accepted by /theme.
var palettes = map[string]Palette{
	"dark": {
		Background: lipgloss.Color("#0f111a"),
		Foreground: lipgloss.Color("#d8dee9"),
		Accent:     lipgloss.Color("#88c0d0"),
		Muted:      lipgloss.Color("#4c566a"),
		UserText:   lipgloss.Color("#a3be8c"),
		ModelText:  lipgloss.Color("#d8dee9"),
		SystemText: lipgloss.Color("#ebcb8b"),
		ErrorText:  lipgloss.Color("#bf616a"),
		Border:     lipgloss.Color("#3b4252"),
	},
	"light": {
		Background: lipgloss.Color("#fafafa"),
		Foreground: lipgloss.Color("#383a42"),
		Accent:     lipgloss.Color("#4078f2"),
		Muted:      lipgloss.Color("#a0a1a7"),
		UserText:   lipgloss.Color("#50a14f"),
		ModelText:  lipgloss.Color("#383a42"),
		SystemText: lipgloss.Color("#c18401"),
		ErrorText:  lipgloss.Color("#e45649"),
		Border:     lipgloss.Color("#d0d0d0"),
	},
	"matrix": {
		Background: lipgloss.Color("#000000"),
		Foreground: lipgloss.Color("#00ff41"),
		Accent:     lipgloss.Color("#00ff41"),
		Muted:      lipgloss.Color("#008f11"),
		UserText:   lipgloss.Color("#00ff41"),
		ModelText:  lipgloss.Color("#00c431"),
		SystemText: lipgloss.Color("#008f11"),
		ErrorText:  lipgloss.Color("#ff3333"),
		Border:     lipgloss.Color("#008f11"),
	},
	"amber": {
		Background: lipgloss.Color("#1a1000"),
		Foreground: lipgloss.Color("#ffb000"),
		Accent:     lipgloss.Color("#ffcc33"),
		Muted:      lipgloss.Color("#a67000"),
		UserText:   lipgloss.Color("#ffd75f"),
		ModelText:  lipgloss.Color("#ffb000"),
		SystemText: lipgloss.Color("#a67000"),
		ErrorText:  lipgloss.Color("#ff5f00"),
		Border:     lipgloss.Color("#a67000"),
	},
	"ocean": {
		Background: lipgloss.Color("#0b1e2d"),
		Foreground: lipgloss.Color("#c0e0f0"),
		Accent:     lipgloss.Color("#39c5cf"),
		Muted:      lipgloss.Color("#2a4a5f"),
		UserText:   lipgloss.Color("#7fdbca"),
		ModelText:  lipgloss.Color("#c0e0f0"),
		SystemText: lipgloss.Color("#ffcb6b"),
		ErrorText:  lipgloss.Color("#ff5370"),
		Border:     lipgloss.Color("#2a4a5f"),
	},
}

// =============================================================================
// THEME
// =============================================================================

// Theme holds the styled components for one theme.
type Theme struct {
	Name         string
	ColorProfile termenv.Profile

	Header    lipgloss.Style
	StatusBar lipgloss.Style

	UserLabel   lipgloss.Style
	ModelLabel  lipgloss.Style
	SystemLabel lipgloss.Style

	UserText   lipgloss.Style
	ModelText  lipgloss.Style
	SystemText lipgloss.Style
	ErrorText  lipgloss.Style

	SourceLine lipgloss.Style
	Muted      lipgloss.Style
	Input      lipgloss.Style
	Spinner    lipgloss.Style
}

// NewTheme builds the styles for a theme name, falling back to dark for
// unknown names.
func NewTheme(name string) *Theme {
	p, ok := palettes[name]
	if !ok {
		name = "dark"
		p = palettes[name]
	}

	return &Theme{
		Name:         name,
		ColorProfile: termenv.ColorProfile(),

		Header: lipgloss.NewStyle().
			Foreground(p.Accent).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(p.Border),
		StatusBar: lipgloss.NewStyle().
			Foreground(p.Muted),

		UserLabel:   lipgloss.NewStyle().Foreground(p.UserText).Bold(true),
		ModelLabel:  lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
		SystemLabel: lipgloss.NewStyle().Foreground(p.SystemText).Bold(true),

		UserText:   lipgloss.NewStyle().Foreground(p.UserText),
		ModelText:  lipgloss.NewStyle().Foreground(p.ModelText),
		SystemText: lipgloss.NewStyle().Foreground(p.SystemText),
		ErrorText:  lipgloss.NewStyle().Foreground(p.ErrorText).Bold(true),

		SourceLine: lipgloss.NewStyle().Foreground(p.Muted).Italic(true),
		Muted:      lipgloss.NewStyle().Foreground(p.Muted),
		Input: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Border),
		Spinner: lipgloss.NewStyle().Foreground(p.Accent),
	}
}

// ThemeNames returns the names with a registered palette.
func ThemeNames() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	return names
}
