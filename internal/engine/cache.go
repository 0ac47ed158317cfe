package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	platformredis "memento/internal/platform/redis"
)

// AssessmentCache replays prior results for identical inputs. Keys carry the
// profile fingerprint and the table versions the result was computed from,
// so two requests with the same schema-versioned payload resolve to the same
// entry regardless of field order, and a table upgrade never replays entries
// computed under the old tables.
//
// The cache is best effort. Redis being down degrades to recomputation,
// never to an error surfaced to the caller.
type AssessmentCache struct {
	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewAssessmentCache(client *platformredis.Client, ttl time.Duration, logger *slog.Logger) *AssessmentCache {
	if client == nil {
		return nil
	}
	return &AssessmentCache{client: client, ttl: ttl, logger: logger}
}

func (c *AssessmentCache) redisKey(key string) string {
	return "memento:assessment:" + key
}

// Get returns the cached assessment for a key, or nil on miss.
func (c *AssessmentCache) Get(ctx context.Context, key string) *Assessment {
	if c == nil {
		return nil
	}

	raw, err := c.client.Get(ctx, c.redisKey(key)).Bytes()
	if err != nil {
		return nil
	}

	var a Assessment
	if err := json.Unmarshal(raw, &a); err != nil {
		c.logger.Warn("dropping undecodable cached assessment", "key", key, "error", err)
		c.client.Del(ctx, c.redisKey(key))
		return nil
	}
	return &a
}

// Set stores an assessment under its key for the configured TTL.
func (c *AssessmentCache) Set(ctx context.Context, key string, a *Assessment) {
	if c == nil {
		return
	}

	raw, err := json.Marshal(a)
	if err != nil {
		c.logger.Warn("failed to encode assessment for cache", "key", key, "error", err)
		return
	}

	if err := c.client.Set(ctx, c.redisKey(key), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache assessment", "key", key, "error", err)
	}
}
