package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lifelink-health/platform/pkg/common/logger"
	"github.com/lifelink-health/platform/pkg/common/models"
	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("match summary not cached")

// MatchCache keeps the latest candidate list per request in redis so status
// pages can read it without rescanning the donor registry.
type MatchCache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewMatchCache(client redis.Cmdable, prefix string, ttl time.Duration) *MatchCache {
	if prefix == "" {
		prefix = "matches"
	}
	return &MatchCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *MatchCache) Key(requestID string) string {
	return fmt.Sprintf("%s:%s", c.prefix, requestID)
}

func (c *MatchCache) Put(ctx context.Context, summary models.MatchSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encoding match summary: %w", err)
	}

	key := c.Key(summary.RequestID)
	logger.Log.WithFields(map[string]interface{}{
		"key":        key,
		"candidates": len(summary.Candidates),
	}).Debug("Caching match summary")

	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *MatchCache) Get(ctx context.Context, requestID string) (*models.MatchSummary, error) {
	data, err := c.client.Get(ctx, c.Key(requestID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var summary models.MatchSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("decoding match summary: %w", err)
	}
	return &summary, nil
}

func (c *MatchCache) Invalidate(ctx context.Context, requestID string) error {
	return c.client.Del(ctx, c.Key(requestID)).Err()
}
