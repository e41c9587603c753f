package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/oggyb/concert-buddy/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	matchCountTTL        = time.Hour
	matchCountVersionTTL = 24 * time.Hour
	eventMetaTTL         = 10 * time.Minute
)

// ErrMiss is returned by typed getters when the key is absent.
var ErrMiss = errors.New("cache miss")

// ErrStale is returned when a conditional write lost to a concurrent invalidation.
var ErrStale = errors.New("cache value stale")

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}

// KeyForMatchCount generates Redis key for a user's match count
func (c *RedisCache) KeyForMatchCount(userID string) string {
	return fmt.Sprintf("matches:count:%s", userID)
}

func (c *RedisCache) KeyForEvent(eventID string) string {
	return fmt.Sprintf("events:meta:%s", eventID)
}

func (c *RedisCache) keyForMatchCountVersion(userID string) string {
	return fmt.Sprintf("matches:count:ver:%s", userID)
}

// GetMatchCount returns the cached count, or ErrMiss.
// Reads do not extend the TTL, so a cached count is never older than matchCountTTL.
func (c *RedisCache) GetMatchCount(ctx context.Context, userID string) (int64, error) {
	val, err := c.Client.Get(ctx, c.KeyForMatchCount(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrMiss
	} else if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

// MatchCountVersion returns the invalidation counter of userID's match count.
// Read it before counting in the DB and hand it to SetMatchCountIfUnchanged.
func (c *RedisCache) MatchCountVersion(ctx context.Context, userID string) (int64, error) {
	v, err := c.Client.Get(ctx, c.keyForMatchCountVersion(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// SetMatchCountIfUnchanged caches count only when no invalidation happened since
// version was read. Otherwise it writes nothing and returns ErrStale.
func (c *RedisCache) SetMatchCountIfUnchanged(ctx context.Context, userID string, count, version int64) error {
	verKey := c.keyForMatchCountVersion(userID)
	err := c.Client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, verKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != version {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.KeyForMatchCount(userID), count, matchCountTTL)
			return nil
		})
		return err
	}, verKey)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStale
	}
	return err
}

// InvalidateMatchCounts drops the cached counts of every given user and bumps
// their versions, so a recount that started earlier cannot write its result back.
func (c *RedisCache) InvalidateMatchCounts(ctx context.Context, userIDs ...string) error {
	_, err := c.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			verKey := c.keyForMatchCountVersion(id)
			pipe.Del(ctx, c.KeyForMatchCount(id))
			pipe.Incr(ctx, verKey)
			pipe.Expire(ctx, verKey, matchCountVersionTTL)
		}
		return nil
	})
	return err
}

// SetJSON stores v as JSON under key.
func (c *RedisCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return c.Client.Set(ctx, key, b, ttl).Err()
}

// GetJSON decodes the value under key into v, or returns ErrMiss.
func (c *RedisCache) GetJSON(ctx context.Context, key string, v any) error {
	b, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	} else if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// EventMetaTTL is how long event display metadata stays cached.
func (c *RedisCache) EventMetaTTL() time.Duration { return eventMetaTTL }
