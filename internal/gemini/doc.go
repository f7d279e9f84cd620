// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini is the HTTP client for the Gemini v1beta API.
//
// It covers streamed and blocking chat completions, grounded web search
// via the google_search tool, grammar correction, and imagen image
// generation via :predict. Streamed completions surface as a channel of
// Event values that always terminates with EventError or EventDone.
//
// # Key Types
//
//   - Client: rate-limited API client sharing one pooled transport
//   - GenerateRequest / GenerateResponse: chat wire types
//   - Event: one streamed item (text delta, sources, usage, terminal)
//   - APIError: provider error with its classified ErrorKind
//
// # Usage
//
//	client := gemini.NewClient(key)
//	events := client.StreamGenerateContent(ctx, "gemini-3-flash-preview", req)
//	for ev := range events {
//		switch ev.Kind {
//		case gemini.EventText:
//			fmt.Print(ev.Text)
//		case gemini.EventDone:
//			return
//		}
//	}
//
// Errors classify by HTTP status first; substring matching on error
// text is the fallback. Remediation maps each kind to user guidance.
package gemini
