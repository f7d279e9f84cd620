// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// =============================================================================
// CODE BLOCK HIGHLIGHTING
// =============================================================================

// highlightCodeBlocks syntax-highlights fenced code blocks in plain
// text. Used on the fallback path when the markdown renderer is
// unavailable; glamour handles highlighting otherwise.
func highlightCodeBlocks(text string) string {
	var (
		out     strings.Builder
		code    strings.Builder
		lang    string
		inBlock bool
	)

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case !inBlock && strings.HasPrefix(trimmed, "```"):
			inBlock = true
			lang = strings.TrimPrefix(trimmed, "```")
			code.Reset()
		case inBlock && trimmed == "```":
			inBlock = false
			out.WriteString(renderCode(code.String(), lang))
		case inBlock:
			code.WriteString(line)
			code.WriteString("\n")
		default:
			out.WriteString(line)
			out.WriteString("\n")
		}
	}
	if inBlock {
		// Unterminated fence, common mid-stream; emit what we have.
		out.WriteString(renderCode(code.String(), lang))
	}
	return strings.TrimRight(out.String(), "\n")
}

func renderCode(code, lang string) string {
	if lang == "" {
		lang = "text"
	}
	var buf strings.Builder
	if err := quick.Highlight(&buf, code, lang, "terminal256", "monokai"); err != nil {
		return code
	}
	return buf.String()
}
