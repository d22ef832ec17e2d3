package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"
)

const DefaultPageSize = 100

// SQLiteStore keeps the history in a single sqlite file. All access goes
// through one connection, so every read is consistent.
type SQLiteStore struct {
	db       *sql.DB
	pageSize int
}

func NewSQLiteStore(path string, pageSize int) (*SQLiteStore, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	version, dirty, err := RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	slog.Debug("Database migrated", "path", path, "version", version, "dirty", dirty)

	return &SQLiteStore{db: db, pageSize: pageSize}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key int64, _ bool) (*Record, error) {
	rec := Record{Key: key}
	err := s.db.QueryRowContext(ctx, `SELECT value FROM motds WHERE key = ?`, key).Scan(&rec.Value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get motd %d: %w", key, err)
	}
	return &rec, nil
}

func (s *SQLiteStore) InsertIfAbsent(ctx context.Context, rec Record) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO motds (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO NOTHING
	`, rec.Key, rec.Value)
	if err != nil {
		return false, fmt.Errorf("failed to insert motd %d: %w", rec.Key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to insert motd %d: %w", rec.Key, err)
	}
	return n > 0, nil
}

// Scan pages by key. The cursor is the last key of the previous page.
func (s *SQLiteStore) Scan(ctx context.Context, cursor string, _ bool) (Page, error) {
	after := int64(math.MinInt64)
	if cursor != "" {
		var err error
		after, err = strconv.ParseInt(cursor, 10, 64)
		if err != nil {
			return Page{}, fmt.Errorf("invalid cursor %q: %w", cursor, err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value FROM motds
		WHERE key > ?
		ORDER BY key
		LIMIT ?
	`, after, s.pageSize+1)
	if err != nil {
		return Page{}, fmt.Errorf("failed to scan motds: %w", err)
	}
	defer rows.Close()

	var page Page
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Key, &rec.Value); err != nil {
			return Page{}, fmt.Errorf("failed to scan motd row: %w", err)
		}
		page.Records = append(page.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("failed to iterate motds: %w", err)
	}

	if len(page.Records) > s.pageSize {
		page.Records = page.Records[:s.pageSize]
		page.Next = strconv.FormatInt(page.Records[s.pageSize-1].Key, 10)
	}

	return page, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM motds`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get motd count: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
