// llmterm - a terminal-styled chat client for Gemini models.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/AllramEst83/llm-terminal-app-sub000/internal/session"
	chatui "github.com/AllramEst83/llm-terminal-app-sub000/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

func main() {
	var (
		dataDir = flag.String("data-dir", "", "settings and transcript directory (default ~/.llmterm)")
		scope   = flag.String("tab", "default", "tab scope to open")
		version = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *version {
		fmt.Printf("llmterm %s (%s)\n", Version, GitCommit)
		return
	}

	// Optional .env with GEMINI_API_KEY; absence is not an error.
	_ = godotenv.Load()

	manager, err := session.NewManager(*dataDir, os.Getenv("GEMINI_API_KEY"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "llmterm: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	sess, err := manager.Session(*scope)
	if err != nil {
		fmt.Fprintf(os.Stderr, "llmterm: open tab %q: %v\n", *scope, err)
		os.Exit(1)
	}

	// The TUI owns the terminal; route the standard logger to a file.
	if logFile, err := os.OpenFile(filepath.Join(os.TempDir(), "llmterm.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600); err == nil {
		log.SetOutput(logFile)
		defer logFile.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	// Pick up external settings edits while running.
	stopWatch, err := manager.Watch(func(changed string) {
		if changed == *scope || changed == "" {
			sess.ReloadSettings()
		}
	})
	if err == nil {
		defer stopWatch()
	}

	program := tea.NewProgram(chatui.New(sess), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "llmterm: %v\n", err)
		os.Exit(1)
	}
}
