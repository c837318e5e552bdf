package storage

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"briefing/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Store backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Load returns the most recent HistoryLoadCap links, oldest first.
func (s *SQLite) Load(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url FROM history ORDER BY seq DESC LIMIT ?`, HistoryLoadCap,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		urls = append(urls, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	slices.Reverse(urls)
	return urls, nil
}

// Save replaces the stored history with the last HistorySaveCap urls.
func (s *SQLite) Save(ctx context.Context, urls []string) error {
	urls = tail(urls, HistorySaveCap)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO history (seq, url) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, u := range urls {
		if _, err := stmt.ExecContext(ctx, i+1, u); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
	}
	return tx.Commit()
}

// Get returns the cached channel ID for channelURL.
func (s *SQLite) Get(ctx context.Context, channelURL string) (string, bool) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT channel_id FROM channel_ids WHERE channel_url = ?`, channelURL,
	).Scan(&id)
	if err != nil {
		return "", false
	}
	return id, id != ""
}

// Put inserts or replaces the channel ID for channelURL.
func (s *SQLite) Put(ctx context.Context, channelURL, id string) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO channel_ids (channel_url, channel_id, resolved_at) VALUES (?, ?, ?)
		 ON CONFLICT(channel_url) DO UPDATE SET channel_id = excluded.channel_id, resolved_at = excluded.resolved_at`,
		channelURL, id, now,
	)
	if err != nil {
		return fmt.Errorf("upsert channel id: %w", err)
	}
	return nil
}
