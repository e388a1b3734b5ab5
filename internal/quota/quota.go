// Package quota is the dual-window admission controller gating calls to
// the external classifier: a per-minute counter with a sliding 60s expiry
// and a daily counter expiring at the next UTC midnight. Counters live in
// the shared store so every worker sees the same budget.
package quota

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"beatflow/backend/internal/config"
)

const (
	rpmKey   = "openrouter:rpm"
	dailyKey = "openrouter:daily"
	resetKey = "openrouter:daily:reset"
)

// Commands is the subset of store operations the guard needs.
// *redisstore.Client satisfies it.
type Commands interface {
	GetValue(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

// Window describes one rate window in a status snapshot.
type Window struct {
	Current   int `json:"current"`
	Limit     int `json:"limit"`
	Available int `json:"available"`
}

// Status is a point-in-time snapshot of both windows.
type Status struct {
	Minute  Window `json:"minute"`
	Daily   Window `json:"daily"`
	ResetAt string `json:"resetAt,omitempty"`
}

// Guard enforces the per-minute and daily classifier budgets.
type Guard struct {
	store      Commands
	rpmLimit   int
	dailyLimit int
}

// New creates a guard with the deployed limits.
func New(store Commands) *Guard {
	return &Guard{
		store:      store,
		rpmLimit:   config.ClassifierRPMLimit,
		dailyLimit: config.ClassifierDailyLimit,
	}
}

// Allow reports whether one classifier call may be attempted now.
// An exhausted day short-circuits before consuming a minute slot; a
// minute-limit breach still increments the counter, so the window counts
// attempts rather than successes. Any store error fails closed.
func (g *Guard) Allow(ctx context.Context) bool {
	daily, err := g.store.GetValue(ctx, dailyKey).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		log.Printf("WARNING: quota: daily counter read failed, denying: %v", err)
		return false
	}
	if daily >= g.dailyLimit {
		return false
	}

	n, err := g.store.Incr(ctx, rpmKey).Result()
	if err != nil {
		log.Printf("WARNING: quota: minute counter increment failed, denying: %v", err)
		return false
	}
	if n == 1 {
		if err := g.store.Expire(ctx, rpmKey, time.Minute).Err(); err != nil {
			log.Printf("WARNING: quota: minute window expiry not set: %v", err)
		}
	}
	return n <= int64(g.rpmLimit)
}

// RecordSuccess counts one completed classification against the daily
// budget and returns the new count. The first increment of the day pins
// the counter's expiry to the next UTC midnight and stores the reset
// timestamp alongside it.
func (g *Guard) RecordSuccess(ctx context.Context) int64 {
	n, err := g.store.Incr(ctx, dailyKey).Result()
	if err != nil {
		log.Printf("WARNING: quota: daily counter increment failed: %v", err)
		return 0
	}
	if n == 1 {
		resetAt := nextUTCMidnight(time.Now())
		ttl := time.Until(resetAt)
		if err := g.store.Expire(ctx, dailyKey, ttl).Err(); err != nil {
			log.Printf("WARNING: quota: daily window expiry not set: %v", err)
		}
		if err := g.store.Set(ctx, resetKey, resetAt.Format(time.RFC3339), ttl).Err(); err != nil {
			log.Printf("WARNING: quota: reset timestamp not stored: %v", err)
		}
	}
	return n
}

// Status returns the current/limit/available numbers for both windows
// plus the daily reset timestamp. It returns nil on any store error so
// callers can refuse admission decisions on stale data.
func (g *Guard) Status(ctx context.Context) *Status {
	vals, err := g.store.MGet(ctx, rpmKey, dailyKey, resetKey).Result()
	if err != nil || len(vals) != 3 {
		log.Printf("WARNING: quota: status read failed: %v", err)
		return nil
	}

	minute := counterValue(vals[0])
	daily := counterValue(vals[1])

	st := &Status{
		Minute: Window{Current: minute, Limit: g.rpmLimit, Available: max(g.rpmLimit-minute, 0)},
		Daily:  Window{Current: daily, Limit: g.dailyLimit, Available: max(g.dailyLimit-daily, 0)},
	}
	if s, ok := vals[2].(string); ok {
		st.ResetAt = s
	}
	return st
}

func counterValue(v interface{}) int {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func nextUTCMidnight(now time.Time) time.Time {
	utc := now.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}
