package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keys.
const (
	historyKey  = "briefing:antibubble_history"
	channelsKey = "briefing:youtube_channel_ids"
)

// redisClient is the subset of *redis.Client the store uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
	Close() error
}

// Redis keeps history as a JSON array string and channel IDs in a hash.
type Redis struct {
	client redisClient
}

// NewRedis connects to addr and verifies the connection.
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	if addr == "" {
		return nil, errors.New("redis address is empty")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{client: client}, nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Load returns the most recent HistoryLoadCap links. A missing key is an
// empty history.
func (r *Redis) Load(ctx context.Context) ([]string, error) {
	data, err := r.client.Get(ctx, historyKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return tail(urls, HistoryLoadCap), nil
}

// Save stores the last HistorySaveCap urls.
func (r *Redis) Save(ctx context.Context, urls []string) error {
	urls = tail(urls, HistorySaveCap)
	if urls == nil {
		urls = []string{}
	}
	data, err := json.Marshal(urls)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := r.client.Set(ctx, historyKey, data, 0).Err(); err != nil {
		return fmt.Errorf("set history: %w", err)
	}
	return nil
}

// Get returns the cached channel ID for channelURL.
func (r *Redis) Get(ctx context.Context, channelURL string) (string, bool) {
	id, err := r.client.HGet(ctx, channelsKey, channelURL).Result()
	if err != nil {
		return "", false
	}
	return id, id != ""
}

// Put records the channel ID for channelURL.
func (r *Redis) Put(ctx context.Context, channelURL, id string) error {
	if err := r.client.HSet(ctx, channelsKey, channelURL, id).Err(); err != nil {
		return fmt.Errorf("hset channel id: %w", err)
	}
	return nil
}
