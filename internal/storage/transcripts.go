// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists conversation transcripts in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/AllramEst83/llm-terminal-app-sub000/internal/model"
)

// =============================================================================
// TRANSCRIPT STORE
// =============================================================================

// TranscriptStore persists messages per tab scope. One store is shared
// by all tabs; rows are keyed by (scope, message id).
type TranscriptStore struct {
	db *sql.DB
}

// NewTranscriptStore opens (creating if needed) the transcript database
// at the given path.
func NewTranscriptStore(path string) (*TranscriptStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open transcript db: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent tabs.
	db.SetMaxOpenConns(1)

	s := &TranscriptStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *TranscriptStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS messages (
		scope      TEXT    NOT NULL,
		id         INTEGER NOT NULL,
		role       TEXT    NOT NULL,
		text       TEXT    NOT NULL DEFAULT '',
		model      TEXT    NOT NULL DEFAULT '',
		command    TEXT    NOT NULL DEFAULT '',
		user_input TEXT    NOT NULL DEFAULT '',
		sources    TEXT    NOT NULL DEFAULT '[]',
		images     TEXT    NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (scope, id)
	);
	CREATE INDEX IF NOT EXISTS idx_messages_scope ON messages(scope, id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init transcript schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *TranscriptStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Save upserts one message. Streaming updates call this repeatedly with
// the same id as the text grows.
func (s *TranscriptStore) Save(ctx context.Context, scope string, msg model.Message) error {
	sources, err := json.Marshal(msg.Sources)
	if err != nil {
		return fmt.Errorf("encode sources: %w", err)
	}
	images, err := json.Marshal(msg.Images)
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (scope, id, role, text, model, command, user_input, sources, images, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (scope, id) DO UPDATE SET
			text = excluded.text,
			model = excluded.model,
			sources = excluded.sources,
			images = excluded.images`,
		scope, msg.ID, string(msg.Role), msg.Text, msg.Model, msg.Command, msg.UserInput,
		string(sources), string(images), msg.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return nil
}

// Load returns all messages for a scope in id order.
func (s *TranscriptStore) Load(ctx context.Context, scope string) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, text, model, command, user_input, sources, images, created_at
		FROM messages WHERE scope = ? ORDER BY id`, scope)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var (
			msg             model.Message
			role            string
			sources, images string
			createdAt       string
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Text, &msg.Model, &msg.Command, &msg.UserInput, &sources, &images, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = model.Role(role)
		if err := json.Unmarshal([]byte(sources), &msg.Sources); err != nil {
			msg.Sources = nil
		}
		if err := json.Unmarshal([]byte(images), &msg.Images); err != nil {
			msg.Images = nil
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			msg.Timestamp = ts
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// MaxID returns the highest message id stored for a scope, so an id
// source can resume above persisted ids.
func (s *TranscriptStore) MaxID(ctx context.Context, scope string) (int64, error) {
	var maxID sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(id) FROM messages WHERE scope = ?`, scope).Scan(&maxID)
	if err != nil {
		return 0, fmt.Errorf("max id: %w", err)
	}
	return maxID.Int64, nil
}

// Delete removes one message by id. Used to drop an abandoned reply
// placeholder when a stream fails before producing text.
func (s *TranscriptStore) Delete(ctx context.Context, scope string, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE scope = ? AND id = ?`, scope, id); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// Clear removes every message for a scope.
func (s *TranscriptStore) Clear(ctx context.Context, scope string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE scope = ?`, scope); err != nil {
		return fmt.Errorf("clear transcript: %w", err)
	}
	return nil
}

// Scopes lists every scope that has at least one stored message.
func (s *TranscriptStore) Scopes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT scope FROM messages ORDER BY scope`)
	if err != nil {
		return nil, fmt.Errorf("list scopes: %w", err)
	}
	defer rows.Close()

	var scopes []string
	for rows.Next() {
		var scope string
		if err := rows.Scan(&scope); err != nil {
			return nil, err
		}
		scopes = append(scopes, scope)
	}
	return scopes, rows.Err()
}
