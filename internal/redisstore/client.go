// Package redisstore owns the process-wide redis connection used for
// processing locks, quota counters and cached verdicts. The client keeps
// reconnecting on its own; callers check readiness instead of handling
// connection errors themselves.
package redisstore

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"beatflow/backend/internal/config"
)

// ErrNotConnected is returned by command calls while the store is
// unreachable. Callers treat it as a soft failure.
var ErrNotConnected = errors.New("redisstore: not connected")

// Config holds connection parameters for the shared store.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Client is a self-healing wrapper around one *redis.Client.
type Client struct {
	cfg Config

	mu    sync.RWMutex
	rdb   *redis.Client
	ready bool

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates the client without connecting. Call Connect to start the
// supervised connection loop.
func New(cfg Config) *Client {
	return &Client{
		cfg:    cfg,
		stopCh: make(chan struct{}),
	}
}

// Connect starts the background connect/monitor loop. It returns
// immediately; Get reports nil until the first successful ping.
func (c *Client) Connect(ctx context.Context) {
	c.mu.Lock()
	if c.rdb == nil {
		c.rdb = redis.NewClient(&redis.Options{
			Addr:     c.cfg.Addr,
			Password: c.cfg.Password,
			DB:       c.cfg.DB,
		})
	}
	c.mu.Unlock()

	go c.supervise(ctx)
}

// supervise retries the connection up to StoreMaxRetries with a fixed
// delay, sleeps a longer cooldown after exhausting the budget, and starts
// over. It never gives up. Once connected it keeps pinging and re-enters
// the retry cycle on the first failed ping.
func (c *Client) supervise(ctx context.Context) {
	for {
		attempt := 0
		for {
			if c.closed(ctx) {
				return
			}
			attempt++
			if err := c.ping(ctx); err == nil {
				break
			} else {
				log.Printf("WARNING: redis connect attempt %d/%d failed: %v", attempt, config.StoreMaxRetries, err)
			}
			if attempt >= config.StoreMaxRetries {
				log.Printf("ERROR: redis unreachable after %d attempts, cooling down for %s", attempt, config.StoreCooldown)
				if !c.sleep(ctx, config.StoreCooldown) {
					return
				}
				attempt = 0
				continue
			}
			if !c.sleep(ctx, config.StoreRetryDelay) {
				return
			}
		}

		c.setReady(true)
		log.Printf("INFO: redis connected (%s)", c.cfg.Addr)

		for {
			if !c.sleep(ctx, config.StorePingInterval) {
				return
			}
			if err := c.ping(ctx); err != nil {
				log.Printf("WARNING: redis connection lost: %v", err)
				c.setReady(false)
				break
			}
		}
	}
}

func (c *Client) ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return c.rdb.Ping(pingCtx).Err()
}

func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-c.stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}

func (c *Client) closed(ctx context.Context) bool {
	select {
	case <-c.stopCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (c *Client) setReady(ready bool) {
	c.mu.Lock()
	c.ready = ready
	c.mu.Unlock()
}

// Get returns the live connection handle, or nil while disconnected.
// It never blocks and never returns an error; connection failures are
// handled by the supervise loop.
func (c *Client) Get() *redis.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ready {
		return nil
	}
	return c.rdb
}

// Disconnect stops the supervise loop and closes the connection.
func (c *Client) Disconnect() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = false
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
