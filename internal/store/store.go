// Package store keeps a local SQLite log of chat messages.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"emili/internal/models"
)

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS chat_messages (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);`)
	return err
}

func (s *Store) Append(ctx context.Context, rec models.ChatRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, role, content, elapsed_ms, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Role), rec.Content, rec.ElapsedMS, rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// List returns the most recent limit messages, oldest first.
func (s *Store) List(ctx context.Context, limit int) ([]models.ChatRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, role, content, elapsed_ms, created_at FROM (
		SELECT seq, id, role, content, elapsed_ms, created_at
		FROM chat_messages ORDER BY seq DESC LIMIT ?
	) ORDER BY seq ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []models.ChatRecord
	for rows.Next() {
		var (
			rec     models.ChatRecord
			role    string
			created int64
		)
		if err := rows.Scan(&rec.ID, &role, &rec.Content, &rec.ElapsedMS, &created); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		rec.Role = models.Role(role)
		rec.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, rec)
	}

	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
