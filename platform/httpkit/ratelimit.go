package httpkit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nowas_backend/platform/apperr"
	"nowas_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// WindowCounter counts hits for a key inside a fixed window that starts at
// the first hit.
type WindowCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type fixedWindow struct {
	count   int64
	resetAt time.Time
}

// MemoryWindowCounter keeps windows in process memory.
type MemoryWindowCounter struct {
	mu      sync.Mutex
	windows map[string]*fixedWindow
	now     func() time.Time
}

// NewMemoryWindowCounter creates an empty in-memory counter.
func NewMemoryWindowCounter() *MemoryWindowCounter {
	return &MemoryWindowCounter{
		windows: make(map[string]*fixedWindow),
		now:     time.Now,
	}
}

// Incr implements WindowCounter.
func (m *MemoryWindowCounter) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &fixedWindow{resetAt: now.Add(window)}
		m.windows[key] = w
	}
	w.count++
	return w.count, nil
}

// Purge removes expired windows and returns how many were dropped.
func (m *MemoryWindowCounter) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, key)
			removed++
		}
	}
	return removed
}

// RedisWindowCounter shares windows across instances through Redis.
type RedisWindowCounter struct {
	client *redis.Client
	prefix string
}

// NewRedisWindowCounter creates a counter storing keys under "ratelimit:".
func NewRedisWindowCounter(client *redis.Client) *RedisWindowCounter {
	return &RedisWindowCounter{client: client, prefix: "ratelimit:"}
}

// Incr implements WindowCounter. Every hit sets the expiry if the key has
// none, so a key can never outlive its window.
func (r *RedisWindowCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	fullKey := r.prefix + key
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, fullKey)
		pipe.ExpireNX(ctx, fullKey, window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", fullKey, err)
	}
	return incr.Val(), nil
}

// FixedWindowLimiter allows at most max requests per client IP per window.
type FixedWindowLimiter struct {
	counter WindowCounter
	max     int64
	window  time.Duration
	message string
	log     *logger.Logger
}

// NewFixedWindowLimiter builds a limiter over the given counter.
func NewFixedWindowLimiter(counter WindowCounter, max int, window time.Duration, message string, log *logger.Logger) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		counter: counter,
		max:     int64(max),
		window:  window,
		message: message,
		log:     log,
	}
}

// Middleware rejects over-limit requests with 429 before any handler runs.
// Counter failures let the request through.
func (l *FixedWindowLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		key := c.FullPath() + ":" + ip

		count, err := l.counter.Incr(c.Request.Context(), key, l.window)
		if err != nil {
			if l.log != nil {
				l.log.Error("rate limit counter failed", "error", err)
			}
			c.Next()
			return
		}

		if count > l.max {
			if l.log != nil {
				l.log.RateLimitExceeded(ip, c.Request.URL.Path)
			}
			HandleError(c, apperr.TooManyRequests(l.message))
			c.Abort()
			return
		}

		c.Next()
	}
}
