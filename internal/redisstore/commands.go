package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// The command methods below expose the narrow redis surface the
// moderation components consume. While the store is disconnected they
// return commands carrying ErrNotConnected, so callers degrade softly
// without reimplementing readiness checks.

func (c *Client) GetValue(ctx context.Context, key string) *redis.StringCmd {
	rdb := c.Get()
	if rdb == nil {
		return redis.NewStringResult("", ErrNotConnected)
	}
	return rdb.Get(ctx, key)
}

func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	rdb := c.Get()
	if rdb == nil {
		return redis.NewStatusResult("", ErrNotConnected)
	}
	return rdb.Set(ctx, key, value, expiration)
}

func (c *Client) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	rdb := c.Get()
	if rdb == nil {
		return redis.NewBoolResult(false, ErrNotConnected)
	}
	return rdb.SetNX(ctx, key, value, expiration)
}

func (c *Client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	rdb := c.Get()
	if rdb == nil {
		return redis.NewIntResult(0, ErrNotConnected)
	}
	return rdb.Del(ctx, keys...)
}

func (c *Client) Incr(ctx context.Context, key string) *redis.IntCmd {
	rdb := c.Get()
	if rdb == nil {
		return redis.NewIntResult(0, ErrNotConnected)
	}
	return rdb.Incr(ctx, key)
}

func (c *Client) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	rdb := c.Get()
	if rdb == nil {
		return redis.NewBoolResult(false, ErrNotConnected)
	}
	return rdb.Expire(ctx, key, expiration)
}

func (c *Client) MGet(ctx context.Context, keys ...string) *redis.SliceCmd {
	rdb := c.Get()
	if rdb == nil {
		return redis.NewSliceResult(nil, ErrNotConnected)
	}
	return rdb.MGet(ctx, keys...)
}
