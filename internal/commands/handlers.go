// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/AllramEst83/llm-terminal-app-sub000/internal/config"
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/gemini"
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/model"
)

// =============================================================================
// THINKING CONFIGURATION
// =============================================================================

const thinkUsage = "Usage: /think <model> [on|off|<budget>] for budget models, /think <model> [low|high|off] for level models"

func handleThink(args []string, env Env) Result {
	if len(args) == 0 {
		return Result{Success: true, Message: thinkSummary(env.Settings)}
	}

	m, ok := model.ResolveChatModel(args[0])
	if !ok {
		// "/think 5000" or "/think high" is a value where the model
		// belongs. Call that out instead of reporting an unknown model.
		if looksLikeThinkValue(args[0]) {
			return failure("Missing model name. Did you forget the model? %s", thinkUsage)
		}
		return failure("Unknown model %q. Shortcuts: %s", args[0], strings.Join(model.ChatModelShortcuts(), ", "))
	}

	if len(args) == 1 {
		return success("Thinking for %s: %s", m.Name, thinkingStatus(env.Settings, m.ID))
	}

	current := env.Settings.ThinkingFor(m.ID)
	value := strings.ToLower(args[1])

	var tc config.ThinkingConfig
	switch m.Class {
	case model.ThinkingLevel:
		switch value {
		case "off":
			tc = current
			tc.Enabled = false
		case config.LevelLow, config.LevelHigh:
			tc = current
			tc.Enabled = true
			tc.Level = value
		case "on":
			return failure("%s is a level model; use low or high to enable thinking.", m.Name)
		default:
			if _, err := parsePositiveInt(value); err == nil {
				return failure("%s is a level model and does not take a token budget. %s", m.Name, thinkUsage)
			}
			return failure("Invalid thinking value %q. %s", args[1], thinkUsage)
		}
	default:
		switch value {
		case "on":
			tc = current
			tc.Enabled = true
		case "off":
			// Disable only; the stored budget survives for the next "on".
			tc = current
			tc.Enabled = false
		case config.LevelLow, config.LevelHigh:
			return failure("%s is a budget model and does not take a level. %s", m.Name, thinkUsage)
		default:
			budget, err := parsePositiveInt(value)
			if err != nil {
				return failure("Invalid thinking value %q. %s", args[1], thinkUsage)
			}
			tc = current
			tc.Enabled = true
			tc.Budget = budget
		}
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("Thinking for %s: %s", m.Name, describeThinking(tc)),
		Updates: []config.Update{config.SetThinking(m.ID, tc)},
	}
}

// looksLikeThinkValue reports whether a token reads as a thinking value
// rather than a model name.
func looksLikeThinkValue(token string) bool {
	switch strings.ToLower(token) {
	case "on", "off", config.LevelLow, config.LevelHigh:
		return true
	}
	_, err := parsePositiveInt(token)
	return err == nil
}

func describeThinking(tc config.ThinkingConfig) string {
	if !tc.Enabled {
		return "off"
	}
	if tc.Class == model.ThinkingLevel {
		return "on (level " + tc.Level + ")"
	}
	return fmt.Sprintf("on (budget %d)", tc.Budget)
}

func thinkSummary(s config.Settings) string {
	var b strings.Builder
	b.WriteString("Thinking configuration:\n\n")
	for _, id := range model.ChatModelIDs() {
		m := model.ChatModels[id]
		fmt.Fprintf(&b, "  %-24s %s\n", m.ID, describeThinking(s.ThinkingFor(id)))
	}
	b.WriteString("\n" + thinkUsage)
	return b.String()
}

// =============================================================================
// GRAMMAR CORRECTION
// =============================================================================

func handleGrammar(ctx context.Context, args []string, env Env) Result {
	if len(args) == 0 {
		return failure("Usage: /grammar <text to correct>")
	}
	if env.Client == nil || !env.Client.IsConfigured() {
		return failure("%s", gemini.Remediation(gemini.ErrKindMissingKey))
	}

	text := strings.Join(args, " ")
	corrected, usage, err := env.Client.CorrectGrammar(ctx, env.Settings.ChatModel, text)
	if err != nil {
		return failure("%s", gemini.Remediation(gemini.Classify(err)))
	}
	if usage != nil && env.Ledger != nil {
		env.Ledger.RecordChat(env.Settings.ChatModel, usage.PromptTokenCount, usage.CandidatesTokenCount)
	}
	return success("Corrected text:\n\n%s", strings.TrimSpace(corrected))
}

// =============================================================================
// IMAGE GENERATION
// =============================================================================

const imageUsage = `Usage: /image <prompt> [--aspect <ratio>] [--model <model>]

Generates an image from a text prompt.

Flags:
  --aspect   aspect ratio: 1:1, 3:4, 4:3, 9:16, 16:9 (default 1:1)
  --model    image model shortcut or id (default imagen)

Example: /image a red fox in fresh snow --aspect 16:9`

// imageArgs is the parsed form of the /image token stream.
type imageArgs struct {
	prompt  string
	aspect  string
	modelID string
}

// parseImageArgs walks the token stream collecting --aspect and --model
// flags wherever they appear; everything else joins into the prompt.
func parseImageArgs(args []string) (imageArgs, error) {
	out := imageArgs{aspect: "1:1", modelID: model.DefaultImageModel}
	var promptTokens []string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--aspect":
			if i+1 >= len(args) {
				return out, fmt.Errorf("--aspect requires a value")
			}
			i++
			if !model.ValidAspectRatio(args[i]) {
				return out, fmt.Errorf("invalid aspect ratio %q; valid ratios: %s", args[i], strings.Join(model.AspectRatios, ", "))
			}
			out.aspect = args[i]
		case "--model":
			if i+1 >= len(args) {
				return out, fmt.Errorf("--model requires a value")
			}
			i++
			if m, ok := model.ResolveImageModel(args[i]); ok {
				out.modelID = m.ID
			} else if model.IsRawImageModelID(args[i]) {
				out.modelID = strings.ToLower(args[i])
			} else {
				return out, fmt.Errorf("unknown image model %q; shortcuts: %s", args[i], strings.Join(model.ImageModelShortcuts(), ", "))
			}
		default:
			promptTokens = append(promptTokens, args[i])
		}
	}
	out.prompt = strings.Join(promptTokens, " ")
	return out, nil
}

func handleImage(ctx context.Context, args []string, env Env) Result {
	parsed, err := parseImageArgs(args)
	if err != nil {
		return failure("%s", err.Error())
	}
	if parsed.prompt == "" {
		// An empty prompt gets the full usage text, not a terse error.
		return failure("%s", imageUsage)
	}
	if env.Client == nil || !env.Client.IsConfigured() {
		return failure("%s", gemini.Remediation(gemini.ErrKindMissingKey))
	}

	images, err := env.Client.GenerateImages(ctx, parsed.modelID, parsed.prompt, parsed.aspect, 1)
	if err != nil {
		return failure("%s", gemini.Remediation(gemini.Classify(err)))
	}
	if env.Ledger != nil {
		env.Ledger.RecordImage(parsed.modelID, gemini.TokensPerGeneratedImage*len(images))
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("Generated %d image(s) with %s (%s)", len(images), parsed.modelID, parsed.aspect),
		Images:  images,
	}
}

// =============================================================================
// WEB SEARCH
// =============================================================================

func handleSearch(ctx context.Context, args []string, env Env) Result {
	if len(args) == 0 {
		return failure("Usage: /search <query>")
	}
	if env.Client == nil || !env.Client.IsConfigured() {
		return failure("%s", gemini.Remediation(gemini.ErrKindMissingKey))
	}

	query := strings.Join(args, " ")
	answer, sources, usage, err := env.Client.WebSearch(ctx, env.Settings.ChatModel, query)
	if err != nil {
		return failure("%s", gemini.Remediation(gemini.Classify(err)))
	}
	if usage != nil && env.Ledger != nil {
		env.Ledger.RecordChat(env.Settings.ChatModel, usage.PromptTokenCount, usage.CandidatesTokenCount)
	}
	return Result{
		Success: true,
		Message: strings.TrimSpace(answer),
		Sources: sources,
	}
}
