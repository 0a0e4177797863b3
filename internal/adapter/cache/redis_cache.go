package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/aq2208/growcery-api/internal/entity"
	"github.com/aq2208/growcery-api/internal/usecase"
)

// RedisCache keeps the last written status of each order, keyed by owner so a cache
// hit can only ever answer the owner's own lookup.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func statusKey(userID, orderID string) string {
	return "order:status:" + userID + ":" + orderID
}

func (r *RedisCache) SetStatus(ctx context.Context, userID, orderID string, s domain.Status) error {
	return r.rdb.Set(ctx, statusKey(userID, orderID), int(s), r.ttl).Err()
}

func (r *RedisCache) GetStatus(ctx context.Context, userID, orderID string) (domain.Status, bool, error) {
	val, err := r.rdb.Get(ctx, statusKey(userID, orderID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.Atoi(val)
	if err != nil || !domain.Status(n).Valid() {
		// unreadable entry, treat as a miss
		return 0, false, nil
	}
	return domain.Status(n), true, nil
}

var _ usecase.OrderStatusCache = (*RedisCache)(nil)
