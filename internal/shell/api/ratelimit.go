package api

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/time/rate"
)

// defaultLimiterKeys bounds the number of buckets held at once.
const defaultLimiterKeys = 100_000

// keyedLimiter gives every key its own token bucket. Buckets live in a
// bounded cache and expire once idle long enough to have refilled.
type keyedLimiter struct {
	mu    sync.Mutex
	cache *ristretto.Cache[string, *rate.Limiter]
	limit rate.Limit
	burst int
	idle  time.Duration
}

// newKeyedLimiter allows rps requests per second per key with the given
// burst, tracking at most maxKeys keys. A non-positive rps disables limiting.
func newKeyedLimiter(rps float64, burst int, maxKeys int64) (*keyedLimiter, error) {
	if burst < 1 {
		burst = 1
	}
	k := &keyedLimiter{limit: rate.Limit(rps), burst: burst}
	if rps <= 0 {
		return k, nil
	}
	if maxKeys <= 0 {
		maxKeys = defaultLimiterKeys
	}

	k.idle = time.Duration(float64(burst) / rps * float64(time.Second))
	if k.idle < time.Second {
		k.idle = time.Second
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, *rate.Limiter]{
		NumCounters: maxKeys * 10,
		MaxCost:     maxKeys,
		BufferItems: 64,
		Metrics:     true,
		// Cost counts buckets, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create limiter cache: %w", err)
	}
	k.cache = cache
	return k, nil
}

// Allow reports whether a request for key may proceed now.
func (k *keyedLimiter) Allow(key string) bool {
	if k.limit <= 0 {
		return true
	}

	k.mu.Lock()
	l, ok := k.cache.Get(key)
	if !ok {
		l = rate.NewLimiter(k.limit, k.burst)
	}
	// Every hit pushes expiry out so a throttled key never resets early.
	k.cache.SetWithTTL(key, l, 1, k.idle)
	if !ok {
		k.cache.Wait()
	}
	k.mu.Unlock()

	return l.Allow()
}

// size returns the number of buckets currently held.
func (k *keyedLimiter) size() uint64 {
	if k.cache == nil {
		return 0
	}
	m := k.cache.Metrics
	return m.KeysAdded() - m.KeysEvicted()
}

// Close releases the cache.
func (k *keyedLimiter) Close() {
	if k.cache != nil {
		k.cache.Close()
	}
}
