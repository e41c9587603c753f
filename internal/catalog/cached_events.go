package catalog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oggyb/concert-buddy/internal/cache"
	"github.com/oggyb/concert-buddy/internal/matching"
)

// CachedEventCatalog reads event metadata through Redis.
// Unknown events are never cached, so a newly published event shows up on the next call.
type CachedEventCatalog struct {
	next  matching.EventCatalog
	cache *cache.RedisCache
	log   *slog.Logger
}

func NewCachedEventCatalog(next matching.EventCatalog, c *cache.RedisCache, log *slog.Logger) *CachedEventCatalog {
	return &CachedEventCatalog{next: next, cache: c, log: log}
}

// GetEvent tries Redis first, then the wrapped catalog. Redis failures fall
// through to the wrapped catalog and are only logged.
func (c *CachedEventCatalog) GetEvent(ctx context.Context, eventID string) (matching.EventInfo, error) {
	key := c.cache.KeyForEvent(eventID)

	var info matching.EventInfo
	err := c.cache.GetJSON(ctx, key, &info)
	if err == nil {
		return info, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		c.log.Warn("event cache read failed", "event", eventID, "err", err)
	}

	info, err = c.next.GetEvent(ctx, eventID)
	if err != nil {
		return matching.EventInfo{}, err
	}

	if err := c.cache.SetJSON(ctx, key, info, c.cache.EventMetaTTL()); err != nil {
		c.log.Warn("event cache write failed", "event", eventID, "err", err)
	}
	return info, nil
}
