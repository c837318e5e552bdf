package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File keeps history as a JSON array and the channel cache as a JSON object,
// each in its own file. Writes replace the file atomically.
type File struct {
	historyPath string
	channelPath string

	mu       sync.Mutex
	channels map[string]string
}

// NewFile creates a File store. Neither file needs to exist yet.
func NewFile(historyPath, channelPath string) *File {
	return &File{historyPath: historyPath, channelPath: channelPath}
}

// Close is a no-op.
func (f *File) Close() error { return nil }

// Load reads the history file. A missing file is an empty history; a corrupt
// one is an empty history plus an error for the caller to log.
func (f *File) Load(_ context.Context) ([]string, error) {
	var urls []string
	if err := readJSON(f.historyPath, &urls); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return tail(urls, HistoryLoadCap), nil
}

// Save overwrites the history file with the last HistorySaveCap urls.
func (f *File) Save(_ context.Context, urls []string) error {
	urls = tail(urls, HistorySaveCap)
	if urls == nil {
		urls = []string{}
	}
	if err := writeJSON(f.historyPath, urls); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// Get returns the cached channel ID for channelURL.
func (f *File) Get(_ context.Context, channelURL string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadChannels()
	id, ok := f.channels[channelURL]
	return id, ok && id != ""
}

// Put records a resolved channel ID and rewrites the cache file.
func (f *File) Put(_ context.Context, channelURL, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadChannels()
	f.channels[channelURL] = id
	if err := writeJSON(f.channelPath, f.channels); err != nil {
		return fmt.Errorf("save channel cache: %w", err)
	}
	return nil
}

func (f *File) loadChannels() {
	if f.channels != nil {
		return
	}
	m := map[string]string{}
	if err := readJSON(f.channelPath, &m); err != nil || m == nil {
		m = map[string]string{}
	}
	f.channels = m
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
