// Package cache memoizes data source loads for a fixed time-to-live.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/datasource"
	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
)

// Cache is a read-through cache in front of a data source, keyed by the
// source's query identity. Only successful, non-empty loads are stored, so
// a failing or empty feed is retried by the next caller.
type Cache struct {
	source  datasource.Source
	entries *expirable.LRU[string, *models.RecordSet]
	group   singleflight.Group
	ttl     time.Duration
	metrics *observability.CacheMetrics
	logger  *slog.Logger
}

func New(source datasource.Source, cfg config.CacheConfig, metrics *observability.CacheMetrics, logger *slog.Logger) *Cache {
	return &Cache{
		source:  source,
		entries: expirable.NewLRU[string, *models.RecordSet](cfg.MaxEntries, nil, cfg.TTL),
		ttl:     cfg.TTL,
		metrics: metrics,
		logger:  logger,
	}
}

// Get returns the cached record set, loading it from the source when the
// cache is empty or the previous load is older than the TTL.
func (c *Cache) Get(ctx context.Context) (*models.RecordSet, error) {
	key := c.source.Key()
	if set, ok := c.entries.Get(key); ok {
		c.metrics.Hits.Inc()
		return set, nil
	}
	c.metrics.Misses.Inc()

	// Concurrent misses share one load. A caller going away must not fail
	// the others waiting on it; the source enforces its own timeout.
	loadCtx := context.WithoutCancel(ctx)
	v, err, shared := c.group.Do(key, func() (any, error) {
		if set, ok := c.entries.Get(key); ok {
			return set, nil
		}
		return c.load(loadCtx, key)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("shared record set load", "key", key)
	}
	return v.(*models.RecordSet), nil
}

func (c *Cache) load(ctx context.Context, key string) (*models.RecordSet, error) {
	start := time.Now()
	set, err := c.source.Load(ctx)
	c.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.LoadFailures.Inc()
		c.logger.Error("record set load failed", "key", key, "error", err)
		return nil, err
	}

	c.metrics.Records.Set(float64(set.Len()))
	if set.Len() == 0 {
		c.logger.Warn("record set not cached", "key", key, "reason", errors.ErrEmptyResultSet)
		return set, nil
	}

	c.entries.Add(key, set)
	c.logger.Info("record set cached", "key", key, "records", set.Len(), "ttl", c.ttl)
	return set, nil
}

// Invalidate drops the stored snapshot so the next Get reloads.
func (c *Cache) Invalidate() {
	c.entries.Remove(c.source.Key())
}

func (c *Cache) Stats() map[string]any {
	stats := map[string]any{
		"key":    c.source.Key(),
		"ttl":    c.ttl.String(),
		"cached": false,
	}
	if set, ok := c.entries.Peek(c.source.Key()); ok {
		stats["cached"] = true
		stats["records"] = set.Len()
		stats["skipped"] = set.Skipped
		stats["loaded_at"] = set.LoadedAt
		stats["expires_at"] = set.LoadedAt.Add(c.ttl)
		stats["source"] = set.Source
		stats["missing_columns"] = set.Columns.Missing()
	}
	return stats
}
