// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the terminal.
//
// The view renders its session's transcript and forwards input: slash
// commands dispatch through the command layer, plain text streams
// through the chat pipeline. While a response streams, input is
// disabled and Esc cancels; the transcript re-renders as each event is
// applied by the session.
package chat
