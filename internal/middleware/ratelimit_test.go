package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/xxxsen/codeman/internal/metrics"
)

func newTestLimiter(now *time.Time) *rateLimiter {
	return &rateLimiter{
		rps:           rate.Limit(1),
		burst:         1,
		items:         make(map[string]*limiterEntry),
		sweepInterval: 10 * time.Second,
		now:           func() time.Time { return *now },
	}
}

func TestRateLimiterHandle_BlocksWithinWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Now()
	limiter := newTestLimiter(&now)

	c1, _ := gin.CreateTestContext(httptest.NewRecorder())
	c1.Request = httptest.NewRequest(http.MethodPost, "/api/templates", nil)
	limiter.handle(c1)
	require.False(t, c1.IsAborted())

	w2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(w2)
	c2.Request = httptest.NewRequest(http.MethodPost, "/api/templates", nil)
	limiter.handle(c2)
	require.True(t, c2.IsAborted())
	require.Equal(t, http.StatusTooManyRequests, w2.Code)
	require.Equal(t, "1", w2.Header().Get("Retry-After"))

	now = now.Add(time.Second)
	c3, _ := gin.CreateTestContext(httptest.NewRecorder())
	c3.Request = httptest.NewRequest(http.MethodPost, "/api/templates", nil)
	limiter.handle(c3)
	require.False(t, c3.IsAborted())
}

func TestRateLimiterKeysByClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Now()
	limiter := newTestLimiter(&now)

	for _, ip := range []string{"10.0.0.1:1234", "10.0.0.2:1234"} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/api/templates", nil)
		c.Request.RemoteAddr = ip
		limiter.handle(c)
		require.False(t, c.IsAborted(), ip)
	}
	require.Contains(t, limiter.items, "ip:10.0.0.1")
	require.Contains(t, limiter.items, "ip:10.0.0.2")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/templates", nil)
	c.Request.RemoteAddr = "10.0.0.1:5678"
	limiter.handle(c)
	require.True(t, c.IsAborted())
	require.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimiterCleanupExpiredLocked_RemovesExpiredEntries(t *testing.T) {
	base := time.Now()
	limiter := newTestLimiter(&base)
	limiter.items["expired"] = &limiterEntry{limiter: rate.NewLimiter(1, 1), lastSeen: base.Add(-20 * time.Second)}
	limiter.items["active"] = &limiterEntry{limiter: rate.NewLimiter(1, 1), lastSeen: base.Add(-2 * time.Second)}

	limiter.mu.Lock()
	limiter.cleanupExpiredLocked(base)
	limiter.mu.Unlock()

	require.NotContains(t, limiter.items, "expired")
	require.Contains(t, limiter.items, "active")
	require.False(t, limiter.lastSweep.IsZero())
}

func TestRateLimitDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(0, 0))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimitRecordsMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(0.001, 1))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	rejected := testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("memory"))
	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	}
	require.Equal(t, rejected+1, testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("memory")))
}

func TestRedisRateLimit_Basic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer client.Close()

	r := gin.New()
	r.Use(RedisRateLimit(client, 0.01, 1, 10*time.Second))
	r.GET("/r", func(c *gin.Context) { c.Status(http.StatusOK) })

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/r", nil))
	require.Equal(t, http.StatusOK, w1.Code)

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/r", nil))
	require.Equal(t, http.StatusTooManyRequests, w2.Code)

	m.FastForward(12 * time.Second)
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, httptest.NewRequest(http.MethodGet, "/r", nil))
	require.Equal(t, http.StatusOK, w3.Code)
}

func TestRedisRateLimitFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, err := mr.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer client.Close()
	m.Close()

	r := gin.New()
	r.Use(RedisRateLimit(client, 1, 0, time.Second))
	r.GET("/r", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/r", nil))
	require.Equal(t, http.StatusOK, w.Code)
}
