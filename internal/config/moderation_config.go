package config

import "time"

const (
	// Classifier quota (shared across all workers via redis counters)
	ClassifierRPMLimit   = 18
	ClassifierDailyLimit = 45

	// Classifier call
	ClassifyTimeout     = 45 * time.Second
	ClassifyMaxChars    = 2000
	ClassifyMaxAttempts = 2
	ClassifyRetryDelay  = 2 * time.Second

	// Verdict cache
	VerdictTTL     = 24 * time.Hour
	ContentHashTTL = 30 * 24 * time.Hour

	// Processing lock
	ProcessingLockTTL = 30 * time.Second

	// Escalation
	SuspendThreshold = 5
	SuspendTimeout   = 30 * time.Second

	// Shared store reconnect policy
	StoreMaxRetries   = 5
	StoreRetryDelay   = 2 * time.Second
	StoreCooldown     = 30 * time.Second
	StorePingInterval = 15 * time.Second
)

// Retry scheduler defaults. Each is overridable via environment,
// see scheduler.LoadConfig.
const (
	SweepInterval      = 5 * time.Minute
	StalenessThreshold = 2 * time.Minute
	SweepBatchSize     = 25
	SweepWorkers       = 3
	DispatchDelay      = 5 * time.Second
	MinDailyHeadroom   = 3
)
