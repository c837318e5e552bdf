// Package storage persists the state carried between runs: the rolling
// history of anti-bubble picks and the YouTube channel-ID cache.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// History retention limits. Load returns at most HistoryLoadCap links and
// Save keeps the last HistorySaveCap.
const (
	HistoryLoadCap = 300
	HistorySaveCap = 500
)

// HistoryStore is the rolling record of previously selected links, oldest
// first.
type HistoryStore interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, urls []string) error
}

// ChannelCache maps a channel URL to its resolved channel ID.
type ChannelCache interface {
	Get(ctx context.Context, channelURL string) (string, bool)
	Put(ctx context.Context, channelURL, id string) error
}

// Store is a backend serving both kinds of state.
type Store interface {
	HistoryStore
	ChannelCache
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend          string
	HistoryPath      string
	ChannelCachePath string
	DatabasePath     string
	RedisAddr        string
}

// Open returns the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		return NewFile(opts.HistoryPath, opts.ChannelCachePath), nil
	case BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(opts.DatabasePath), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
		s, err := NewSQLite(opts.DatabasePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendRedis:
		r, err := NewRedis(ctx, opts.RedisAddr)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", opts.Backend)
	}
}

// tail returns the last n elements of s.
func tail(s []string, n int) []string {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}
