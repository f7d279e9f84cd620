// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session ties the terminal's parts together per tab: settings
// with TOML persistence, the sealed API key store, the SQLite
// transcript, the token usage ledger, the submission queue, and the
// streaming pipeline.
//
// A Manager owns the shared stores and hands out one Session per tab
// scope. Each session enforces single-flight execution: submissions
// queue in arrival order and at most one runs at a time. Command
// results and streamed chat events are applied to the transcript inside
// the session, so interfaces render from Messages().
package session
