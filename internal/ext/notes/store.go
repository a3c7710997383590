// Package notes is a reference extension exercising both of the core's
// extension points: it registers the !note and !notes commands and a
// transfer hook that journals every download.
package notes

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"ringleader/internal/command"
	"ringleader/internal/domain"
	"ringleader/internal/hook"
)

const listLimit = 10

// Store persists user notes and the transfer journal in SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS notes (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		account         TEXT NOT NULL,
		conversation    TEXT NOT NULL,
		author          TEXT,
		content         TEXT NOT NULL,
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_notes_conv ON notes(conversation, created_at);

	CREATE TABLE IF NOT EXISTS transfers (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		account         TEXT NOT NULL,
		conversation    TEXT NOT NULL,
		interaction_id  TEXT,
		file_id         TEXT,
		display_name    TEXT,
		local_path      TEXT NOT NULL,
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_transfers_time ON transfers(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Attach registers the extension's commands and hooks.
func (s *Store) Attach(table *command.Table, hooks *hook.Registry) {
	table.Register("note", "Save a note for this conversation", s.handleNote)
	table.Register("notes", "List the most recent notes in this conversation", s.handleNotes)
	hooks.OnTransfer(s.recordTransfer)
}

func (s *Store) handleNote(ctx context.Context, accountID, conversationID string, msg *domain.Message) string {
	content := strings.TrimSpace(msg.Body)
	if content == "" {
		return "Nothing to save. Usage: !note <text>"
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (account, conversation, author, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		accountID, conversationID, msg.Author, content, time.Now(),
	)
	if err != nil {
		s.logger.Error("cannot save note", "err", err)
		return "Could not save the note."
	}
	return "Noted."
}

func (s *Store) handleNotes(ctx context.Context, accountID, conversationID string, msg *domain.Message) string {
	rows, err := s.db.QueryContext(ctx,
		`SELECT author, content FROM notes
		 WHERE conversation = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		conversationID, listLimit,
	)
	if err != nil {
		s.logger.Error("cannot list notes", "err", err)
		return "Could not load notes."
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var author, content string
		if err := rows.Scan(&author, &content); err != nil {
			s.logger.Error("cannot scan note", "err", err)
			continue
		}
		lines = append(lines, "- "+author+": "+content)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("cannot iterate notes", "err", err)
	}
	if len(lines) == 0 {
		return "No notes yet."
	}
	return strings.Join(lines, "\n")
}

// recordTransfer journals a processed transfer. Failures are logged only;
// hooks are side-effect callbacks and must not disturb the dispatch.
func (s *Store) recordTransfer(ctx context.Context, accountID, conversationID string, msg *domain.Message, localPath string) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transfers (account, conversation, interaction_id, file_id, display_name, local_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		accountID, conversationID, msg.ID, msg.FileID, msg.DisplayName, localPath, time.Now(),
	)
	if err != nil {
		s.logger.Error("cannot record transfer", "file", msg.DisplayName, "err", err)
	}
}
