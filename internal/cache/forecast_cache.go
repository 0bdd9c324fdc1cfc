package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andresuchdata/restock-planner/internal/config"
	"github.com/andresuchdata/restock-planner/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	forecastKeyPrefix     = "forecast:result"
	forecastScanBatchSize = 100
)

// ForecastKey identifies one forecast computation. AsOf is part of the key so
// a cached snapshot from yesterday never answers today's request.
type ForecastKey struct {
	SKU             string
	Marketplace     string
	HistoryDays     int
	HorizonDays     int
	IncludeUnmapped bool
	AsOf            time.Time
}

// ForecastCache is a read-through snapshot store. Recomputation from current
// inputs stays authoritative; entries only short-circuit identical requests.
type ForecastCache interface {
	Get(ctx context.Context, key ForecastKey) (*domain.ForecastResult, bool, error)
	Set(ctx context.Context, key ForecastKey, result *domain.ForecastResult) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{client: client, ttl: ttl}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) Get(ctx context.Context, key ForecastKey) (*domain.ForecastResult, bool, error) {
	payload, err := c.client.Get(ctx, buildForecastKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result domain.ForecastResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, fmt.Errorf("decode forecast cache: %w", err)
	}

	return &result, true, nil
}

func (c *redisForecastCache) Set(ctx context.Context, key ForecastKey, result *domain.ForecastResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}

	if err := c.client.Set(ctx, buildForecastKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, forecastKeyPrefix, forecastScanBatchSize)
}

func (n *noopForecastCache) Get(ctx context.Context, key ForecastKey) (*domain.ForecastResult, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) Set(ctx context.Context, key ForecastKey, result *domain.ForecastResult) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildForecastKey(key ForecastKey) string {
	raw := fmt.Sprintf("sku=%s|marketplace=%s|history=%d|horizon=%d|unmapped=%t|as_of=%s",
		key.SKU, key.Marketplace, key.HistoryDays, key.HorizonDays,
		key.IncludeUnmapped, key.AsOf.UTC().Format("2006-01-02"))

	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%s", forecastKeyPrefix, hex.EncodeToString(sum[:]))
}
