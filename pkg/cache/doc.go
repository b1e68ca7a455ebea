// Package cache provides optional caching of successful extraction responses.
//
// Entries are keyed by the extracted URL together with the exact options sent
// for it, so the same URL requested with different options occupies separate
// entries. Only successful responses are cached; failures are never stored.
//
// Two backends implement Store:
//
//   - RedisStore: shared cache backed by go-redis
//   - MemoryStore: process-local LRU with per-entry expiry
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create cache manager
//	manager := cache.NewManager(cache.NewRedisStore(redisClient), time.Hour)
//
//	key := cache.CacheKey{
//		URL:     "https://example.com/a",
//		Options: map[string]any{"article": true},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// Cache miss - extract and Put the response
//	}
//
// # Metrics
//
// The cache manager exports Prometheus metrics:
//
//   - zyte_cache_hits_total - Cache hits
//   - zyte_cache_misses_total - Cache misses
//   - zyte_cache_written_bytes_total - Bytes written to the backend
//   - zyte_cache_errors_total{operation} - Backend errors
package cache
