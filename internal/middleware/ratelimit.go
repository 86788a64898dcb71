package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"workspots/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type RateLimiterConfig struct {
	PerMinute       int
	Burst           int
	CleanupInterval time.Duration
}

type keyedLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter holds one token bucket per key. Idle buckets are dropped in
// the background.
type RateLimiter struct {
	name   string
	limit  rate.Limit
	burst  int
	ttl    time.Duration
	key    func(c *gin.Context) string
	mu     sync.Mutex
	byKey  map[string]*keyedLimiter
	stopCh chan struct{}
	once   sync.Once
}

func newRateLimiter(name string, cfg RateLimiterConfig, key func(c *gin.Context) string) *RateLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.PerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	rl := &RateLimiter{
		name:   name,
		limit:  rate.Limit(float64(cfg.PerMinute) / 60.0),
		burst:  cfg.Burst,
		ttl:    cfg.CleanupInterval * 2,
		key:    key,
		byKey:  make(map[string]*keyedLimiter),
		stopCh: make(chan struct{}),
	}
	go rl.cleanupLoop(cfg.CleanupInterval)
	return rl
}

// PerIP limits every caller by client address.
func PerIP(cfg RateLimiterConfig) *RateLimiter {
	return newRateLimiter("ip", cfg, func(c *gin.Context) string { return c.ClientIP() })
}

// PerIdentity limits signed-in callers by identity and falls back to the
// client address otherwise.
func PerIdentity(name string, cfg RateLimiterConfig) *RateLimiter {
	return newRateLimiter(name, cfg, func(c *gin.Context) string {
		if id := c.GetString("identity_id"); id != "" {
			return "id:" + id
		}
		return "ip:" + c.ClientIP()
	})
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rl.key(c)
		if rl.get(key).Allow() {
			c.Next()
			return
		}

		retryAfter := max(int(math.Ceil(1.0/float64(rl.limit))), 1)
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		response.CustomError(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, please try again later")
		c.Abort()
	}
}

// Len returns the number of tracked keys.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.byKey)
}

func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	kl, ok := rl.byKey[key]
	if !ok {
		kl = &keyedLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.byKey[key] = kl
	}
	kl.lastAccess = time.Now()
	return kl.limiter
}

func (rl *RateLimiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, kl := range rl.byKey {
		if now.Sub(kl.lastAccess) > rl.ttl {
			delete(rl.byKey, key)
		}
	}
}
