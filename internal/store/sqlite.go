package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/leetcode-assistant/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements ChatRepository and KeyValue using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var (
	_ ChatRepository = (*SQLiteStore)(nil)
	_ KeyValue       = (*SQLiteStore)(nil)
	_ Backend        = (*SQLiteStore)(nil)
)

// NewSQLite opens or creates a SQLite database at dbPath.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode lets readers proceed while a per-slug save is writing.
	dsn := dbPath + "?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS chats (
		problem_slug TEXT PRIMARY KEY,
		chats_json TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// GetChats returns the stored chats for slug.
func (s *SQLiteStore) GetChats(ctx context.Context, slug string) ([]domain.Chat, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT chats_json FROM chats WHERE problem_slug = ?`, slug).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []domain.Chat{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	return decodeChats(raw)
}

// UpdateChats applies fn to the chats of slug inside a single write transaction.
func (s *SQLiteStore) UpdateChats(ctx context.Context, slug string, fn func([]domain.Chat) []domain.Chat) error {
	return withBusyRetry(ctx, "update chats", func() error {
		return s.updateChatsOnce(ctx, slug, fn)
	})
}

func (s *SQLiteStore) updateChatsOnce(ctx context.Context, slug string, fn func([]domain.Chat) []domain.Chat) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Warn("failed to roll back chats transaction", "slug", slug, "error", rbErr)
		}
	}()

	chats := []domain.Chat{}
	var raw string
	err = tx.QueryRowContext(ctx, `SELECT chats_json FROM chats WHERE problem_slug = ?`, slug).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("query chats: %w", err)
	default:
		if chats, err = decodeChats(raw); err != nil {
			return err
		}
	}

	data, err := json.Marshal(fn(chats))
	if err != nil {
		return fmt.Errorf("encode chats: %w", err)
	}

	query := `
	INSERT INTO chats (problem_slug, chats_json, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(problem_slug) DO UPDATE SET
		chats_json = excluded.chats_json,
		updated_at = excluded.updated_at`
	if _, err := tx.ExecContext(ctx, query, slug, string(data), time.Now().Unix()); err != nil {
		return fmt.Errorf("upsert chats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chats: %w", err)
	}
	return nil
}

// Get returns the raw value stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query kv %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	query := `
	INSERT INTO kv (key, value, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at`
	return withBusyRetry(ctx, "set kv", func() error {
		if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().Unix()); err != nil {
			return fmt.Errorf("upsert kv %q: %w", key, err)
		}
		return nil
	})
}

func decodeChats(raw string) ([]domain.Chat, error) {
	chats := []domain.Chat{}
	if err := json.Unmarshal([]byte(raw), &chats); err != nil {
		return nil, fmt.Errorf("decode chats: %w", err)
	}
	return chats, nil
}
