// Package redis implements the search result cache on top of Redis.
//
// The cache is a best-effort layer: every failure is logged and absorbed,
// a broken Redis turns reads into misses and writes into no-ops so search
// keeps working against the database alone. A circuit breaker stops the
// service from dialing a dead Redis on every request.
package redis

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/reelstack/moviecatalog/internal/domain"
	"github.com/reelstack/moviecatalog/pkg/breaker"
	"github.com/reelstack/moviecatalog/pkg/logger"
)

const keyPrefix = "search:"

// scanBatchSize is the COUNT hint passed to SCAN when walking cache keys.
const scanBatchSize = 100

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "search_cache_hits_total",
		Help: "Number of search cache hits",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "search_cache_misses_total",
		Help: "Number of search cache misses",
	})
	cacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "search_cache_errors_total",
		Help: "Number of search cache operations absorbed after a failure",
	}, []string{"operation"})
)

// SearchCache implements repository.SearchCache using Redis.
type SearchCache struct {
	client  *redis.Client
	breaker *breaker.Breaker
	ttl     time.Duration
}

// NewSearchCache creates a Redis-backed search cache. Entries live for ttl.
func NewSearchCache(client *redis.Client, cb *breaker.Breaker, ttl time.Duration) *SearchCache {
	return &SearchCache{
		client:  client,
		breaker: cb,
		ttl:     ttl,
	}
}

// Key returns the cache key for a query. Queries are lowercased so that
// lookups are case-insensitive.
func Key(query string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(query))
}

// Get returns the cached movie list for the query. Any failure, including
// an open circuit breaker, is reported as a miss.
func (c *SearchCache) Get(ctx context.Context, query string) ([]domain.Movie, bool) {
	key := Key(query)

	var data []byte
	err := c.breaker.Do(func() error {
		var err error
		data, err = c.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			data = nil
			return nil
		}
		return err
	})
	if err != nil {
		cacheErrors.WithLabelValues("get").Inc()
		logger.FromContext(ctx).Warn("search cache get failed, treating as miss",
			"key", key, "error", err)
		cacheMisses.Inc()
		return nil, false
	}
	if data == nil {
		cacheMisses.Inc()
		return nil, false
	}

	var movies []domain.Movie
	if err := json.Unmarshal(data, &movies); err != nil {
		// A corrupt entry will never deserialize, drop it.
		cacheErrors.WithLabelValues("get").Inc()
		logger.FromContext(ctx).Warn("search cache entry corrupt, dropping",
			"key", key, "error", err)
		c.Delete(ctx, query)
		cacheMisses.Inc()
		return nil, false
	}

	cacheHits.Inc()
	return movies, true
}

// Set stores the movie list for the query with the configured TTL.
// Failures are logged and ignored.
func (c *SearchCache) Set(ctx context.Context, query string, movies []domain.Movie) {
	key := Key(query)

	data, err := json.Marshal(movies)
	if err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		logger.FromContext(ctx).Warn("search cache marshal failed", "key", key, "error", err)
		return
	}

	err = c.breaker.Do(func() error {
		return c.client.Set(ctx, key, data, c.ttl).Err()
	})
	if err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		logger.FromContext(ctx).Warn("search cache set failed", "key", key, "error", err)
	}
}

// Delete removes the entry for the exact query. Failures are logged and ignored.
func (c *SearchCache) Delete(ctx context.Context, query string) {
	key := Key(query)

	err := c.breaker.Do(func() error {
		return c.client.Del(ctx, key).Err()
	})
	if err != nil {
		cacheErrors.WithLabelValues("delete").Inc()
		logger.FromContext(ctx).Warn("search cache delete failed", "key", key, "error", err)
	}
}

// DeleteMatching removes every cached entry whose query contains the given
// text, case-insensitively. Used after a movie changes so that stale results
// mentioning its title cannot be served.
func (c *SearchCache) DeleteMatching(ctx context.Context, text string) {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return
	}

	deleted, err := c.deleteWhere(ctx, func(query string) bool {
		return strings.Contains(query, needle)
	})
	if err != nil {
		cacheErrors.WithLabelValues("delete_matching").Inc()
		logger.FromContext(ctx).Warn("search cache invalidation failed",
			"text", needle, "error", err)
		return
	}

	logger.FromContext(ctx).Debug("search cache invalidated",
		"text", needle, "deleted", deleted)
}

// Clear removes all cached search entries. Failures are logged and ignored.
func (c *SearchCache) Clear(ctx context.Context) {
	deleted, err := c.deleteWhere(ctx, func(string) bool { return true })
	if err != nil {
		cacheErrors.WithLabelValues("clear").Inc()
		logger.FromContext(ctx).Warn("search cache clear failed", "error", err)
		return
	}

	logger.FromContext(ctx).Debug("search cache cleared", "deleted", deleted)
}

// deleteWhere walks the cache keyspace with SCAN and deletes every key whose
// query part (the key minus the prefix, already lowercase) matches.
func (c *SearchCache) deleteWhere(ctx context.Context, match func(query string) bool) (int, error) {
	deleted := 0

	err := c.breaker.Do(func() error {
		iter := c.client.Scan(ctx, 0, keyPrefix+"*", scanBatchSize).Iterator()

		var toDelete []string
		for iter.Next(ctx) {
			key := iter.Val()
			query := strings.TrimPrefix(key, keyPrefix)
			if match(query) {
				toDelete = append(toDelete, key)
			}
		}
		if err := iter.Err(); err != nil {
			return err
		}

		if len(toDelete) == 0 {
			return nil
		}

		if err := c.client.Del(ctx, toDelete...).Err(); err != nil {
			return err
		}
		deleted = len(toDelete)
		return nil
	})

	return deleted, err
}
