// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands parses and dispatches the terminal's slash commands.
package commands

import (
	"strings"
)

// =============================================================================
// PARSER
// =============================================================================

// Parsed is one lexed slash command: the lowercased name without its
// slash plus the whitespace-split argument tokens.
type Parsed struct {
	Name string
	Args []string
}

// IsCommand reports whether trimmed input starts with a slash.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// Parse lexes raw input into a command. The second return is false for
// non-command input. A bare "/" parses to an empty name, which the
// dispatcher treats as /help.
func Parse(input string) (Parsed, bool) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "/") {
		return Parsed{}, false
	}

	fields := strings.Fields(trimmed[1:])
	if len(fields) == 0 {
		return Parsed{}, true
	}
	return Parsed{
		Name: strings.ToLower(fields[0]),
		Args: fields[1:],
	}, true
}
