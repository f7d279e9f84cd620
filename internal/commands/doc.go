// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands implements the terminal's slash command surface.
//
// Parse lexes raw input; Dispatch routes a parsed command through an
// exhaustive switch over the closed Kind enumeration to its handler.
// Handlers are pure functions of (args, Env) returning a declarative
// Result: validation failures carry Success=false and no side effects,
// successes carry the confirmation message plus settings Updates and
// side-effect flags for the caller to apply.
//
// Remote handlers (/grammar, /image, /search) check for a configured
// API key first and classify provider failures into user-facing
// remediation messages.
//
// # Usage
//
//	if parsed, ok := commands.Parse(input); ok {
//		result := commands.Dispatch(ctx, parsed, env)
//		settings = config.Apply(settings, result.Updates...)
//	}
package commands
