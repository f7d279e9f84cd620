// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"strings"
)

// =============================================================================
// COMMAND KINDS
// =============================================================================

// Kind is the closed enumeration of terminal commands. Dispatch is an
// exhaustive switch over this enum; adding a command means adding a
// kind, a lookup entry, and a handler arm.
type Kind int

const (
	KindUnknown Kind = iota
	KindHelp
	KindClear
	KindSettings
	KindTokens
	KindFont
	KindTheme
	KindAPIKey
	KindReset
	KindInfo
	KindModel
	KindThink
	KindGrammar
	KindImage
	KindAudio
	KindSearch
)

// KindOf resolves a parsed command name to its kind. The empty name is
// /help; anything unrecognized is KindUnknown.
func KindOf(name string) Kind {
	switch name {
	case "", "help":
		return KindHelp
	case "clear":
		return KindClear
	case "settings":
		return KindSettings
	case "tokens":
		return KindTokens
	case "font":
		return KindFont
	case "theme":
		return KindTheme
	case "apikey":
		return KindAPIKey
	case "reset":
		return KindReset
	case "info":
		return KindInfo
	case "model":
		return KindModel
	case "think":
		return KindThink
	case "grammar":
		return KindGrammar
	case "image":
		return KindImage
	case "audio":
		return KindAudio
	case "search":
		return KindSearch
	default:
		return KindUnknown
	}
}

// =============================================================================
// HELP TEXT
// =============================================================================

// helpEntry is one line of the /help listing.
type helpEntry struct {
	usage   string
	summary string
}

var helpEntries = []helpEntry{
	{"/help", "Show this command list"},
	{"/clear", "Clear the conversation and reset session usage"},
	{"/settings", "Show current settings"},
	{"/tokens", "Show session token usage"},
	{"/font <8-48>", "Set the terminal font size in px"},
	{"/theme <name>", "Switch the color theme"},
	{"/apikey [key]", "Set the API key, or open the key prompt"},
	{"/reset", "Restore default settings (API key preserved)"},
	{"/info", "Show details about the active model"},
	{"/model [name]", "Switch the chat model, or list models"},
	{"/think <model> [on|off|low|high|<budget>]", "Configure model reasoning"},
	{"/grammar <text>", "Correct grammar and spelling"},
	{"/image <prompt> [--aspect <r>] [--model <m>]", "Generate an image"},
	{"/audio [on|off]", "Toggle response audio"},
	{"/search <query>", "Web-grounded answer with sources"},
}

// HelpText renders the /help command list.
func HelpText() string {
	var b strings.Builder
	b.WriteString("Available commands:\n\n")
	width := 0
	for _, e := range helpEntries {
		if len(e.usage) > width {
			width = len(e.usage)
		}
	}
	for _, e := range helpEntries {
		fmt.Fprintf(&b, "  %-*s  %s\n", width, e.usage, e.summary)
	}
	b.WriteString("\nAnything else is sent to the model as a chat message.")
	return b.String()
}
