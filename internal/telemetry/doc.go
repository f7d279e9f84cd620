// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry tracks per-session token usage.
//
// Counters are keyed by (category, model): chat usage per chat model,
// image usage per image model. Chat input tokens are replaced on every
// completion (full-history resend semantics); output and image tokens
// accumulate. Legacy or partial stored shapes normalize into the current
// schema on load.
//
// # Usage
//
//	ledger := telemetry.NewLedger()
//	ledger.RecordChat("gemini-3-flash-preview", 100, 20)
//	fmt.Println(ledger.Summary())
//
// Usage tracking is local-only; nothing is transmitted.
package telemetry
