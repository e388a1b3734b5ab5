package moderation

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"beatflow/backend/internal/config"
)

// LockStore is the subset of store operations the lock needs.
// *redisstore.Client satisfies it.
type LockStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// ReportLock is the per-report processing lock: a conditional
// set-if-absent with a TTL. The TTL bounds the blast radius of a crash
// mid-processing; an expired lock lets a later sweep retry the report.
type ReportLock struct {
	store LockStore
	ttl   time.Duration
}

func NewReportLock(store LockStore) *ReportLock {
	return &ReportLock{store: store, ttl: config.ProcessingLockTTL}
}

func lockKey(reportID string) string {
	return "moderation:lock:" + reportID
}

// Acquire claims the lock for a report. It returns false when another
// worker already holds it.
func (l *ReportLock) Acquire(ctx context.Context, reportID string) (bool, error) {
	return l.store.SetNX(ctx, lockKey(reportID), "1", l.ttl).Result()
}

// Release drops the lock. Releasing an expired or missing lock is a no-op.
func (l *ReportLock) Release(ctx context.Context, reportID string) error {
	return l.store.Del(ctx, lockKey(reportID)).Err()
}
