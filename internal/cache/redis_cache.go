package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

type receiptValue struct {
	RemoteMessageID string    `json:"remoteMessageId"`
	SentAt          time.Time `json:"sentAt"`
}

// StoreReceipt records the delivery receipt for a fired reminder. The store
// row already carries the terminal status; the cache only keeps the remote
// message id around for a while for operator lookups.
func (c *RedisCache) StoreReceipt(ctx context.Context, reminderID int64, remoteMessageID string, sentAt time.Time) error {
	key := fmt.Sprintf("reminder:%d", reminderID)
	val := receiptValue{
		RemoteMessageID: remoteMessageID,
		SentAt:          sentAt.UTC(),
	}

	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

var _ ReceiptCache = (*RedisCache)(nil)
