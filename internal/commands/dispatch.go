// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/AllramEst83/llm-terminal-app-sub000/internal/config"
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/gemini"
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/model"
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/telemetry"
)

// =============================================================================
// DISPATCH TYPES
// =============================================================================

// Env is everything a handler may read. Dispatch holds no state of its
// own; settings flow in here and flow out as Updates on the Result.
type Env struct {
	Settings config.Settings
	Ledger   *telemetry.Ledger
	Client   *gemini.Client

	// AudioEnabled is the session's response-audio flag; /audio reads
	// and toggles it via Result.Audio.
	AudioEnabled bool
}

// Result is the declarative outcome of one command. It is consumed once
// by the caller: Message becomes a system message, Updates are applied
// to settings and persisted, flags trigger their side effects.
type Result struct {
	Success bool
	Message string

	// Updates are applied in order to the current settings.
	Updates []config.Update

	// ClearMessages clears the transcript and resets session usage.
	ClearMessages bool

	// OpenKeySelector opens the interactive API key prompt.
	OpenKeySelector bool

	// Audio, when set, is the new response-audio flag.
	Audio *bool

	// Images are generated images to attach to the result message.
	Images []model.ImageData

	// Sources are citations to attach to the result message.
	Sources []model.Source
}

func failure(format string, args ...any) Result {
	return Result{Success: false, Message: fmt.Sprintf(format, args...)}
}

func success(format string, args ...any) Result {
	return Result{Success: true, Message: fmt.Sprintf(format, args...)}
}

// =============================================================================
// DISPATCHER
// =============================================================================

// Dispatch routes a parsed command to its handler. Validation failures
// return Success=false with no side effects. Remote handlers respect
// ctx for cancellation.
func Dispatch(ctx context.Context, cmd Parsed, env Env) Result {
	switch KindOf(cmd.Name) {
	case KindHelp:
		return Result{Success: true, Message: HelpText()}
	case KindClear:
		return handleClear()
	case KindSettings:
		return handleSettings(env)
	case KindTokens:
		return handleTokens(env)
	case KindFont:
		return handleFont(cmd.Args)
	case KindTheme:
		return handleTheme(cmd.Args, env)
	case KindAPIKey:
		return handleAPIKey(cmd.Args)
	case KindReset:
		return handleReset()
	case KindInfo:
		return handleInfo(env)
	case KindModel:
		return handleModel(cmd.Args, env)
	case KindThink:
		return handleThink(cmd.Args, env)
	case KindGrammar:
		return handleGrammar(ctx, cmd.Args, env)
	case KindImage:
		return handleImage(ctx, cmd.Args, env)
	case KindAudio:
		return handleAudio(cmd.Args, env)
	case KindSearch:
		return handleSearch(ctx, cmd.Args, env)
	default:
		return failure("Unknown command: /%s. Type /help for a list of commands.", cmd.Name)
	}
}

// =============================================================================
// LOCAL HANDLERS
// =============================================================================

func handleClear() Result {
	return Result{
		Success:       true,
		Message:       "Conversation cleared.",
		ClearMessages: true,
	}
}

func handleSettings(env Env) Result {
	s := env.Settings
	var b strings.Builder
	b.WriteString("Current settings:\n\n")
	fmt.Fprintf(&b, "  Font size:  %dpx\n", s.FontSize)
	fmt.Fprintf(&b, "  Theme:      %s\n", s.Theme)
	fmt.Fprintf(&b, "  Model:      %s\n", displayModelName(s.ChatModel))
	fmt.Fprintf(&b, "  API key:    %s\n", keyStatus(s.APIKey))
	fmt.Fprintf(&b, "  Audio:      %s\n", onOff(env.AudioEnabled))
	fmt.Fprintf(&b, "  Thinking:   %s", thinkingStatus(s, s.ChatModel))
	return Result{Success: true, Message: b.String()}
}

func keyStatus(key string) string {
	if key == "" {
		return "not set"
	}
	return "set (" + maskKey(key) + ")"
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

func handleTokens(env Env) Result {
	if env.Ledger == nil {
		return success("No token usage recorded this session.")
	}
	return Result{Success: true, Message: env.Ledger.Summary()}
}

func handleFont(args []string) Result {
	if len(args) != 1 {
		return failure("Invalid font size. Usage: /font <%d-%d>", config.FontSizeMin, config.FontSizeMax)
	}
	size, err := parsePositiveInt(args[0])
	if err != nil || size < config.FontSizeMin || size > config.FontSizeMax {
		return failure("Invalid font size. Usage: /font <%d-%d>", config.FontSizeMin, config.FontSizeMax)
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("Font size set to %dpx", size),
		Updates: []config.Update{config.SetFontSize(size)},
	}
}

func handleTheme(args []string, env Env) Result {
	available := strings.Join(config.Themes, ", ")
	if len(args) == 0 {
		return success("Current theme: %s. Available: %s", env.Settings.Theme, available)
	}
	name := strings.ToLower(args[0])
	if !config.ValidTheme(name) {
		return failure("Unknown theme %q. Available: %s", args[0], available)
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("Theme set to %s", name),
		Updates: []config.Update{config.SetTheme(name)},
	}
}

func handleAPIKey(args []string) Result {
	if len(args) == 0 {
		return Result{
			Success:         true,
			Message:         "Opening API key prompt. Usage: /apikey <key>",
			OpenKeySelector: true,
		}
	}
	key := args[0]
	return Result{
		Success: true,
		Message: "API key updated.",
		Updates: []config.Update{config.SetAPIKey(key)},
	}
}

func handleReset() Result {
	return Result{
		Success: true,
		Message: "Settings reset to defaults. API key preserved.",
		Updates: []config.Update{config.Reset()},
	}
}

func handleInfo(env Env) Result {
	id := env.Settings.ChatModel
	var b strings.Builder
	if m, ok := model.ChatModels[id]; ok {
		fmt.Fprintf(&b, "Active model: %s (%s)\n", m.Name, m.ID)
		fmt.Fprintf(&b, "  Context window: %s\n", m.ContextString())
		fmt.Fprintf(&b, "  Thinking class: %s\n", m.Class)
		fmt.Fprintf(&b, "  Thinking:       %s\n", thinkingStatus(env.Settings, id))
	} else {
		fmt.Fprintf(&b, "Active model: %s (not in catalog; context limit unknown)\n", id)
	}
	b.WriteString("\nAvailable models:\n")
	for _, mid := range model.ChatModelIDs() {
		m := model.ChatModels[mid]
		fmt.Fprintf(&b, "  %-24s %s (aliases: %s)\n", m.ID, m.Name, strings.Join(m.Aliases, ", "))
	}
	return Result{Success: true, Message: b.String()}
}

func handleModel(args []string, env Env) Result {
	if len(args) == 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "Current model: %s\n\nAvailable models:\n", displayModelName(env.Settings.ChatModel))
		for _, id := range model.ChatModelIDs() {
			m := model.ChatModels[id]
			marker := "  "
			if id == env.Settings.ChatModel {
				marker = "* "
			}
			fmt.Fprintf(&b, "%s%-24s %s\n", marker, m.ID, strings.Join(m.Aliases, ", "))
		}
		return Result{Success: true, Message: b.String()}
	}

	name := args[0]
	if m, ok := model.ResolveChatModel(name); ok {
		return Result{
			Success: true,
			Message: fmt.Sprintf("Chat model set to %s (%s)", m.Name, m.ID),
			Updates: []config.Update{config.SetChatModel(m.ID)},
		}
	}
	if model.IsRawChatModelID(name) {
		// Escape hatch for models not yet in the catalog.
		raw := strings.ToLower(strings.TrimSpace(name))
		return Result{
			Success: true,
			Message: fmt.Sprintf("Chat model set to %s (not in catalog; context limit unknown)", raw),
			Updates: []config.Update{config.SetChatModel(raw)},
		}
	}
	return failure("Unknown model %q. Shortcuts: %s", name, strings.Join(model.ChatModelShortcuts(), ", "))
}

func handleAudio(args []string, env Env) Result {
	switch {
	case len(args) == 0:
		return success("Response audio is %s. Usage: /audio on|off", onOff(env.AudioEnabled))
	case strings.EqualFold(args[0], "on"):
		on := true
		return Result{Success: true, Message: "Response audio enabled.", Audio: &on}
	case strings.EqualFold(args[0], "off"):
		off := false
		return Result{Success: true, Message: "Response audio disabled.", Audio: &off}
	default:
		return failure("Invalid argument %q. Usage: /audio on|off", args[0])
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func displayModelName(id string) string {
	if m, ok := model.ChatModels[id]; ok {
		return fmt.Sprintf("%s (%s)", m.Name, m.ID)
	}
	return id
}

func thinkingStatus(s config.Settings, id string) string {
	tc := s.ThinkingFor(id)
	if _, ok := model.ChatModels[id]; !ok {
		return "not configurable"
	}
	if !tc.Enabled {
		return "off"
	}
	if tc.Class == model.ThinkingLevel {
		return "on (level " + tc.Level + ")"
	}
	return fmt.Sprintf("on (budget %d)", tc.Budget)
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("not positive: %d", n)
	}
	return n, nil
}
