package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.OutcomeCache = (*OutcomeCache)(nil)

const cachePrefix = "search:"

// OutcomeCache implements driven.OutcomeCache using Redis with per-entry
// TTLs. Entries are JSON; a corrupt entry is treated as a miss rather
// than surfaced to the caller.
type OutcomeCache struct {
	client *redis.Client
}

// NewOutcomeCache creates a Redis-backed outcome cache
func NewOutcomeCache(client *redis.Client) *OutcomeCache {
	return &OutcomeCache{client: client}
}

// Get retrieves a cached outcome by fingerprint.
// Returns domain.ErrNotFound on a miss.
func (c *OutcomeCache) Get(ctx context.Context, fingerprint string) (*domain.RetrievalOutcome, error) {
	data, err := c.client.Get(ctx, cachePrefix+fingerprint).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCache, err)
	}

	var outcome domain.RetrievalOutcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		// Stale format from a previous release; evict and miss
		c.client.Del(ctx, cachePrefix+fingerprint)
		return nil, domain.ErrNotFound
	}
	return &outcome, nil
}

// Put stores an outcome under its fingerprint with the given TTL
func (c *OutcomeCache) Put(ctx context.Context, fingerprint string, outcome *domain.RetrievalOutcome, ttl time.Duration) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCache, err)
	}
	if err := c.client.Set(ctx, cachePrefix+fingerprint, data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCache, err)
	}
	return nil
}
