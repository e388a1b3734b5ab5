// Package scheduler re-drives reports stuck in Checking past a staleness
// threshold. It runs on a fixed interval and defers to the quota guard:
// organic, user-triggered processing keeps priority over batch catch-up.
package scheduler

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"beatflow/backend/internal/config"
	"beatflow/backend/internal/quota"
	"beatflow/backend/internal/storage"
)

// Dispatcher processes one report. Satisfied by *moderation.Service.
type Dispatcher interface {
	ProcessReport(ctx context.Context, reportID string) error
}

// StatusSource exposes the quota snapshot used for admission decisions.
type StatusSource interface {
	Status(ctx context.Context) *quota.Status
}

// Config holds the sweep tunables. These are deployment settings, not
// request-time parameters.
type Config struct {
	Interval         time.Duration
	Staleness        time.Duration
	BatchSize        int
	Workers          int
	DispatchDelay    time.Duration
	MinDailyHeadroom int
}

// LoadConfig reads the tunables from the environment, falling back to
// the deployed defaults.
func LoadConfig() Config {
	return Config{
		Interval:         getenvDuration("MODERATION_SWEEP_INTERVAL", config.SweepInterval),
		Staleness:        getenvDuration("MODERATION_STALENESS_THRESHOLD", config.StalenessThreshold),
		BatchSize:        getenvInt("MODERATION_SWEEP_BATCH_SIZE", config.SweepBatchSize),
		Workers:          getenvInt("MODERATION_SWEEP_WORKERS", config.SweepWorkers),
		DispatchDelay:    getenvDuration("MODERATION_DISPATCH_DELAY", config.DispatchDelay),
		MinDailyHeadroom: getenvInt("MODERATION_MIN_DAILY_HEADROOM", config.MinDailyHeadroom),
	}
}

// Scheduler is the periodic sweep.
type Scheduler struct {
	Pipeline Dispatcher
	Storage  storage.Storage
	Quota    StatusSource
	Cfg      Config
}

func New(pipeline Dispatcher, s storage.Storage, q StatusSource, cfg Config) *Scheduler {
	return &Scheduler{Pipeline: pipeline, Storage: s, Quota: q, Cfg: cfg}
}

// Run sweeps on the configured interval until the context is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	log.Printf("INFO: scheduler: sweeping every %s (staleness %s, batch %d)", s.Cfg.Interval, s.Cfg.Staleness, s.Cfg.BatchSize)
	ticker := time.NewTicker(s.Cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("INFO: scheduler: stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce re-drives stale Checking reports, oldest first, through a
// bounded worker pool. The whole sweep aborts when the daily headroom is
// below the safety margin or the minute window is full; the queue is fed
// with a fixed inter-dispatch delay and the daily headroom is checked
// again before each dispatch, so the sweep stops early once it runs out.
// It returns after the pool has drained, reporting how many reports were
// dispatched and how many were skipped.
func (s *Scheduler) SweepOnce(ctx context.Context) (dispatched, skipped int) {
	st := s.Quota.Status(ctx)
	if st == nil {
		log.Println("WARNING: scheduler: quota status unavailable, skipping sweep")
		return 0, 0
	}
	if st.Daily.Available < s.Cfg.MinDailyHeadroom {
		log.Printf("INFO: scheduler: daily headroom %d below margin %d, skipping sweep", st.Daily.Available, s.Cfg.MinDailyHeadroom)
		return 0, 0
	}
	if st.Minute.Available == 0 {
		log.Println("INFO: scheduler: minute window exhausted, skipping sweep")
		return 0, 0
	}

	cutoff := time.Now().Add(-s.Cfg.Staleness)
	reports, err := s.Storage.FindStaleCheckingReports(cutoff, s.Cfg.BatchSize)
	if err != nil {
		log.Printf("ERROR: scheduler: loading stale reports failed: %v", err)
		return 0, 0
	}
	if len(reports) == 0 {
		return 0, 0
	}
	log.Printf("INFO: scheduler: re-dispatching %d stale reports", len(reports))

	workers := s.Cfg.Workers
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan string)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if err := s.Pipeline.ProcessReport(ctx, id); err != nil {
					log.Printf("ERROR: scheduler: reprocessing report %s failed: %v", id, err)
				}
			}
		}()
	}
	defer func() {
		close(jobs)
		wg.Wait()
	}()

	for i, report := range reports {
		if i > 0 {
			st = s.Quota.Status(ctx)
			if st == nil || st.Daily.Available < s.Cfg.MinDailyHeadroom {
				skipped = len(reports) - i
				log.Printf("INFO: scheduler: daily quota exhausted mid-sweep, %d reports skipped", skipped)
				return dispatched, skipped
			}
			select {
			case <-time.After(s.Cfg.DispatchDelay):
			case <-ctx.Done():
				return dispatched, len(reports) - i
			}
		}

		select {
		case jobs <- report.ID:
			dispatched++
		case <-ctx.Done():
			return dispatched, len(reports) - i
		}
	}
	return dispatched, skipped
}

func getenvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return v
}
