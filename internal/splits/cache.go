package splits

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/tabsplit/tabsplit-backend/internal/split"
	"github.com/tabsplit/tabsplit-backend/pkg/logger"
	redispkg "github.com/tabsplit/tabsplit-backend/pkg/redis"
)

// RecordCache keeps serialized split records in Redis so fetches skip the
// database for hot receipts. Misses and Redis trouble both read as a miss;
// the cache never fails a request.
type RecordCache struct {
	redis *redispkg.Client
	ttl   time.Duration
	logg  *logger.Logger
}

// NewRecordCache builds the cache. A nil Redis client yields a disabled cache
// whose lookups always miss.
func NewRecordCache(redis *redispkg.Client, ttl time.Duration, logg *logger.Logger) *RecordCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RecordCache{redis: redis, ttl: ttl, logg: logg}
}

func (c *RecordCache) Get(ctx context.Context, receiptID string) (*split.SplitRecord, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}
	raw, err := c.redis.Get(ctx, c.redis.SplitCacheKey(receiptID))
	if err != nil {
		if !errors.Is(err, redispkg.Nil) && c.logg != nil {
			c.logg.Warn(ctx, "split cache read failed")
		}
		return nil, false
	}
	var rec split.SplitRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		if c.logg != nil {
			c.logg.Warn(ctx, "split cache entry corrupt, dropping")
		}
		c.Invalidate(ctx, receiptID)
		return nil, false
	}
	return &rec, true
}

func (c *RecordCache) Put(ctx context.Context, receiptID string, rec *split.SplitRecord) {
	if c == nil || c.redis == nil || rec == nil {
		return
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, c.redis.SplitCacheKey(receiptID), payload, c.ttl); err != nil && c.logg != nil {
		c.logg.Warn(ctx, "split cache write failed")
	}
}

func (c *RecordCache) Invalidate(ctx context.Context, receiptID string) {
	if c == nil || c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, c.redis.SplitCacheKey(receiptID)); err != nil && c.logg != nil {
		c.logg.Warn(ctx, "split cache invalidation failed")
	}
}
