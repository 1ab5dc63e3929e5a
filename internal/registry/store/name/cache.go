package name

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"namedeed/internal/platform/redis"
	"namedeed/internal/registry/models"
)

const cacheTTL = 15 * time.Minute

// CachedStore is a read-through Redis decorator over a name store. Only
// positive lookups are cached: records are immutable once created, so a
// cached record can never go stale. Misses always fall through so that a
// name registered by another instance is visible immediately.
type CachedStore struct {
	inner  Store
	client *redis.Client
	logger *slog.Logger
}

// NewCached wraps a store with the Redis owner-lookup cache.
func NewCached(inner Store, client *redis.Client, logger *slog.Logger) *CachedStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore{inner: inner, client: client, logger: logger}
}

func cacheKey(name string) string {
	return "name:" + name
}

func (s *CachedStore) CreateIfAvailable(ctx context.Context, record models.NameRecord) error {
	if err := s.inner.CreateIfAvailable(ctx, record); err != nil {
		return err
	}
	s.put(ctx, record)
	return nil
}

func (s *CachedStore) FindByName(ctx context.Context, name string) (models.NameRecord, error) {
	raw, err := s.client.Get(ctx, cacheKey(name)).Bytes()
	if err == nil {
		var record models.NameRecord
		if jsonErr := json.Unmarshal(raw, &record); jsonErr == nil {
			return record, nil
		}
		// Corrupt entry; drop it and fall through.
		s.client.Del(ctx, cacheKey(name))
	} else if err != goredis.Nil {
		s.logger.WarnContext(ctx, "name cache read failed", "name", name, "error", err)
	}

	record, err := s.inner.FindByName(ctx, name)
	if err != nil {
		return models.NameRecord{}, err
	}
	s.put(ctx, record)
	return record, nil
}

// put writes a record into the cache. Failures are logged and swallowed:
// the cache is an accelerator, never an authority.
func (s *CachedStore) put(ctx context.Context, record models.NameRecord) {
	raw, err := json.Marshal(record)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, cacheKey(record.Name), raw, cacheTTL).Err(); err != nil {
		s.logger.WarnContext(ctx, "name cache write failed", "name", record.Name, "error", err)
	}
}
