package gateway

import (
	"context"

	"github.com/angrychow/train-ticket/internal/core/domain"
	"github.com/angrychow/train-ticket/internal/core/ports"
	"github.com/angrychow/train-ticket/internal/pkg/logging"
	"github.com/angrychow/train-ticket/internal/pkg/metrics"
)

// CachedGateway caches station name to id lookups. Routes, train types,
// seats and fares always go to the downstream services.
type CachedGateway struct {
	ports.Gateway
	cache ports.CacheService
	ttl   int
}

// NewCached wraps next with a station id cache. ttlSeconds <= 0 means 600.
func NewCached(next ports.Gateway, cache ports.CacheService, ttlSeconds int) *CachedGateway {
	if ttlSeconds <= 0 {
		ttlSeconds = 600
	}
	return &CachedGateway{Gateway: next, cache: cache, ttl: ttlSeconds}
}

// StationKey is the cache key of a station id.
func StationKey(name string) string {
	return "travel:station:id:" + name
}

// ResolveStationID returns the cached id of stationName, resolving and
// caching it on a miss. Cache failures fall through to the station service.
func (g *CachedGateway) ResolveStationID(ctx context.Context, stationName string) (string, error) {
	key := StationKey(stationName)
	if data, err := g.cache.Get(ctx, key); err == nil && len(data) > 0 {
		metrics.CacheHits.WithLabelValues("station_id").Inc()
		return string(data), nil
	}
	metrics.CacheMisses.WithLabelValues("station_id").Inc()

	id, err := g.Gateway.ResolveStationID(ctx, stationName)
	if err != nil {
		return "", err
	}
	if err := g.cache.Set(ctx, key, []byte(id), g.ttl); err != nil {
		logging.FromContext(ctx).Debug("cache station id", "station", stationName, "error", err)
	}
	return id, nil
}

// HandleStationEvent drops the cached id of a changed station.
func (g *CachedGateway) HandleStationEvent(ctx context.Context, event *domain.StationEvent) error {
	if event == nil || event.Name == "" {
		return nil
	}
	return g.cache.Delete(ctx, StationKey(event.Name))
}
