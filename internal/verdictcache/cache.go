// Package verdictcache caches classifier verdicts in the shared store,
// keyed by the SHA-256 of the moderated text. A secondary per-target
// pointer records the last hash seen for a given piece of content, so an
// unchanged edit or an identical text reported elsewhere short-circuits
// the external call.
package verdictcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"beatflow/backend/internal/config"
	"beatflow/backend/internal/models"
)

// Commands is the subset of store operations the cache needs.
// *redisstore.Client satisfies it.
type Commands interface {
	GetValue(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Cache reads and writes cached verdicts.
type Cache struct {
	store Commands
}

func New(store Commands) *Cache {
	return &Cache{store: store}
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}

func verdictKey(hash string) string {
	return "moderation:hash:" + hash
}

func targetKey(contentType models.ContentType, contentID string) string {
	return fmt.Sprintf("moderation:content:%s:%s", contentType, contentID)
}

// Lookup returns the cached verdict for the given text, or nil when no
// verdict is cached under its hash. A hit found through a different
// target refreshes this target's hash pointer so later submissions match
// directly. All store errors degrade to a miss.
func (c *Cache) Lookup(ctx context.Context, text string, contentType models.ContentType, contentID string) *models.Verdict {
	hash := hashText(text)

	raw, err := c.store.GetValue(ctx, verdictKey(hash)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		log.Printf("WARNING: verdictcache: lookup failed for %s:%s: %v", contentType, contentID, err)
		return nil
	}

	var verdict models.Verdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		log.Printf("ERROR: verdictcache: corrupt cached verdict for hash %s: %v", hash, err)
		return nil
	}
	verdict.Cached = true

	lastHash, err := c.store.GetValue(ctx, targetKey(contentType, contentID)).Result()
	if err != nil || lastHash != hash {
		if err := c.store.Set(ctx, targetKey(contentType, contentID), hash, config.ContentHashTTL).Err(); err != nil {
			log.Printf("WARNING: verdictcache: hash pointer refresh failed for %s:%s: %v", contentType, contentID, err)
		}
	}

	return &verdict
}

// Store caches a verdict for the text's hash and points the target at
// that hash. Only handled (non-pending) verdicts are cached; the target
// pointer is written regardless, with its own longer TTL.
func (c *Cache) Store(ctx context.Context, text string, contentType models.ContentType, contentID string, verdict models.Verdict) {
	hash := hashText(text)

	if !verdict.Pending() {
		verdict.Cached = false
		payload, err := json.Marshal(verdict)
		if err != nil {
			log.Printf("ERROR: verdictcache: verdict marshal failed: %v", err)
			return
		}
		if err := c.store.Set(ctx, verdictKey(hash), payload, config.VerdictTTL).Err(); err != nil {
			log.Printf("WARNING: verdictcache: verdict store failed for hash %s: %v", hash, err)
		}
	}

	if err := c.store.Set(ctx, targetKey(contentType, contentID), hash, config.ContentHashTTL).Err(); err != nil {
		log.Printf("WARNING: verdictcache: hash pointer store failed for %s:%s: %v", contentType, contentID, err)
	}
}

// Invalidate drops only the per-target hash pointer, forcing the next
// submission of this target to re-evaluate its current text. The shared
// hash-keyed verdicts stay untouched.
func (c *Cache) Invalidate(ctx context.Context, contentType models.ContentType, contentID string) {
	if err := c.store.Del(ctx, targetKey(contentType, contentID)).Err(); err != nil {
		log.Printf("WARNING: verdictcache: invalidate failed for %s:%s: %v", contentType, contentID, err)
	}
}
