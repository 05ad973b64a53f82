package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/elite-matchmaking/internal/config"
)

// LikeCountTTL bounds how long a cached like counter lives without access.
const LikeCountTTL = time.Hour

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

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForLikeCount generates Redis key for a profile's received-accept count.
func (c *RedisCache) KeyForLikeCount(accountID string) string {
	return fmt.Sprintf("likes:count:%s", accountID)
}

// SetLikeCount stores a freshly computed count. Always refreshes TTL.
func (c *RedisCache) SetLikeCount(ctx context.Context, accountID string, count int64) error {
	return c.Client.Set(ctx, c.KeyForLikeCount(accountID), count, LikeCountTTL).Err()
}

// GetLikeCount returns the cached count. ok is false on a miss or an unparsable value.
func (c *RedisCache) GetLikeCount(ctx context.Context, accountID string) (count int64, ok bool, err error) {
	key := c.KeyForLikeCount(accountID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	n, perr := strconv.ParseInt(val, 10, 64)
	if perr != nil {
		return 0, false, nil
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, LikeCountTTL).Err()
	return n, true, nil
}

// InvalidateLikeCount drops the cached count so the next read recomputes it.
func (c *RedisCache) InvalidateLikeCount(ctx context.Context, accountID string) error {
	return c.Del(ctx, c.KeyForLikeCount(accountID))
}

// Allow implements a fixed-window counter. It reports whether the call identified
// by key is within limit for the current window.
func (c *RedisCache) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	k := "ratelimit:" + key
	n, err := c.Client.Incr(ctx, k).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := c.Client.Expire(ctx, k, window).Err(); err != nil {
			return false, err
		}
	}
	return n <= int64(limit), nil
}

func keyForRevoked(jti string) string {
	return "session:revoked:" + jti
}

// RevokeSession marks a session id as revoked until it would have expired anyway.
func (c *RedisCache) RevokeSession(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return c.Client.Set(ctx, keyForRevoked(jti), 1, ttl).Err()
}

// IsRevoked reports whether the session id was revoked.
func (c *RedisCache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := c.Client.Exists(ctx, keyForRevoked(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ChannelForAccount is the pub/sub channel carrying realtime events for one account.
func ChannelForAccount(accountID string) string {
	return "events:" + accountID
}

// Publish sends payload on the account's channel.
func (c *RedisCache) Publish(ctx context.Context, accountID string, payload []byte) error {
	return c.Client.Publish(ctx, ChannelForAccount(accountID), payload).Err()
}

// Subscribe opens a subscription on the account's channel. The first reply is
// awaited so no event published after Subscribe returns is lost.
func (c *RedisCache) Subscribe(ctx context.Context, accountID string) (*redis.PubSub, error) {
	sub := c.Client.Subscribe(ctx, ChannelForAccount(accountID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	return sub, nil
}
