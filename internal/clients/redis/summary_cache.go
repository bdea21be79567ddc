package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/aisohq/aiso-market/internal/pkg/logger"
	"github.com/aisohq/aiso-market/internal/services"
)

const summaryKeyPrefix = "rating_summary:"

type summaryCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// NewSummaryCache connects to Redis and returns a rating summary cache.
// The marketplace runs fine without it; callers treat a nil cache as a
// permanent miss.
func NewSummaryCache(log *logger.Logger, ttl time.Duration) (services.SummaryCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &summaryCache{
		log: log.With("service", "RedisSummaryCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func (c *summaryCache) Get(ctx context.Context, appID string) (*services.RatingSummaryView, bool, error) {
	raw, err := c.rdb.Get(ctx, summaryKeyPrefix+appID).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var view services.RatingSummaryView
	if err := json.Unmarshal(raw, &view); err != nil {
		// A corrupt entry is a miss; it gets overwritten on the next Set.
		c.log.Warn("Dropping corrupt summary cache entry", "app_id", appID, "error", err)
		return nil, false, nil
	}
	return &view, true, nil
}

func (c *summaryCache) Set(ctx context.Context, view *services.RatingSummaryView) error {
	raw, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := c.rdb.Set(ctx, summaryKeyPrefix+view.AppID, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *summaryCache) Invalidate(ctx context.Context, appID string) error {
	if err := c.rdb.Del(ctx, summaryKeyPrefix+appID).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
