package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xxxsen/codeman/internal/metrics"
	"github.com/xxxsen/codeman/internal/pkg/errcode"
	"github.com/xxxsen/codeman/internal/pkg/response"
)

const defaultSweepInterval = time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter is a per-client token bucket kept in process memory.
type rateLimiter struct {
	mu            sync.Mutex
	rps           rate.Limit
	burst         int
	items         map[string]*limiterEntry
	sweepInterval time.Duration
	lastSweep     time.Time
	now           func() time.Time
}

// RateLimit returns a token-bucket limiter keyed by the authenticated subject or client IP.
// A non-positive rps disables limiting.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := &rateLimiter{
		rps:           rate.Limit(rps),
		burst:         burst,
		items:         make(map[string]*limiterEntry),
		sweepInterval: defaultSweepInterval,
		now:           time.Now,
	}
	return limiter.handle
}

func (l *rateLimiter) handle(c *gin.Context) {
	key := clientKey(c)
	now := l.now()
	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.sweepInterval {
		l.cleanupExpiredLocked(now)
	}
	entry, ok := l.items[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.items[key] = entry
	}
	entry.lastSeen = now
	allowed := entry.limiter.AllowN(now, 1)
	l.mu.Unlock()

	if !allowed {
		metrics.RateLimitRejected.WithLabelValues("memory").Inc()
		rejectTooMany(c, key, 1)
		return
	}
	metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
	c.Next()
}

// cleanupExpiredLocked drops buckets idle long enough to have refilled completely.
func (l *rateLimiter) cleanupExpiredLocked(now time.Time) {
	idle := l.sweepInterval
	if refill := time.Duration(float64(l.burst) / float64(l.rps) * float64(time.Second)); refill > idle {
		idle = refill
	}
	for key, entry := range l.items {
		if now.Sub(entry.lastSeen) > idle {
			delete(l.items, key)
		}
	}
	l.lastSweep = now
}

// RedisRateLimit is a fixed-window limiter shared by every instance using the same Redis.
// Each window admits floor(rps*window)+burst requests per key.
func RedisRateLimit(client *redis.Client, rps float64, burst int, window time.Duration) gin.HandlerFunc {
	if client == nil {
		return RateLimit(rps, burst)
	}
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	windowSeconds := int(window.Seconds())
	if windowSeconds <= 0 {
		windowSeconds = 1
	}
	allowedPerWindow := int64(rps*float64(windowSeconds)) + int64(burst)
	return func(c *gin.Context) {
		key := clientKey(c)
		bucket := time.Now().Unix() / int64(windowSeconds)
		redisKey := fmt.Sprintf("codeman:rl:%s:%d", key, bucket)
		ctx := c.Request.Context()

		cnt, err := client.Incr(ctx, redisKey).Result()
		if err != nil {
			// fail open
			logutil.GetLogger(ctx).Error("redis rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if cnt == 1 {
			_ = client.Expire(ctx, redisKey, time.Duration(windowSeconds+1)*time.Second).Err()
		}
		if cnt > allowedPerWindow {
			metrics.RateLimitRejected.WithLabelValues("redis").Inc()
			rejectTooMany(c, key, windowSeconds)
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}

// clientKey keys limits by client IP; the limiter runs before any identity check.
func clientKey(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

func rejectTooMany(c *gin.Context, key string, retryAfter int) {
	logutil.GetLogger(c.Request.Context()).Warn("rate limit hit",
		zap.String("key", key),
		zap.String("path", c.Request.URL.Path),
	)
	c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
	response.Error(c, http.StatusTooManyRequests, errcode.ErrTooMany, "Too many requests, please try again later")
	c.Abort()
}
