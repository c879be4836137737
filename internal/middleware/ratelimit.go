package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginRateLimiter throttles admin login attempts per client IP in memory
type LoginRateLimiter struct {
	attempts    map[string][]time.Time
	mutex       sync.RWMutex
	maxAttempts int
	window      time.Duration
	done        chan struct{}
	closeOnce   sync.Once
}

// NewLoginRateLimiter creates a limiter allowing maxAttempts per window
func NewLoginRateLimiter(maxAttempts int, window time.Duration) *LoginRateLimiter {
	rl := &LoginRateLimiter{
		attempts:    make(map[string][]time.Time),
		maxAttempts: maxAttempts,
		window:      window,
		done:        make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Close stops the cleanup goroutine
func (rl *LoginRateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.done) })
}

// IsAllowed checks if a login attempt from the given IP is allowed
func (rl *LoginRateLimiter) IsAllowed(ip string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	valid := rl.prune(rl.attempts[ip], time.Now())
	if len(valid) == 0 {
		delete(rl.attempts, ip)
	} else {
		rl.attempts[ip] = valid
	}

	return len(valid) < rl.maxAttempts
}

// RecordAttempt records a login attempt for the given IP
func (rl *LoginRateLimiter) RecordAttempt(ip string) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	rl.attempts[ip] = append(rl.attempts[ip], time.Now())
}

// Reset forgets the attempts of ip, used after a successful login
func (rl *LoginRateLimiter) Reset(ip string) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	delete(rl.attempts, ip)
}

// GetTimeUntilAllowed returns the time until the next attempt is allowed
func (rl *LoginRateLimiter) GetTimeUntilAllowed(ip string) time.Duration {
	rl.mutex.RLock()
	defer rl.mutex.RUnlock()

	now := time.Now()
	valid := rl.prune(rl.attempts[ip], now)
	if len(valid) < rl.maxAttempts {
		return 0
	}

	// the slot frees up when the oldest attempt still counted leaves the window
	oldest := valid[len(valid)-rl.maxAttempts]
	return oldest.Add(rl.window).Sub(now)
}

func (rl *LoginRateLimiter) prune(attempts []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-rl.window)
	var valid []time.Time
	for _, attempt := range attempts {
		if attempt.After(cutoff) {
			valid = append(valid, attempt)
		}
	}
	return valid
}

// cleanup removes old entries periodically
func (rl *LoginRateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
		}

		rl.mutex.Lock()
		now := time.Now()
		for ip, attempts := range rl.attempts {
			if valid := rl.prune(attempts, now); len(valid) == 0 {
				delete(rl.attempts, ip)
			} else {
				rl.attempts[ip] = valid
			}
		}
		rl.mutex.Unlock()
	}
}

// LoginRateLimit applies the limiter to POST requests (login attempts)
func LoginRateLimit(rateLimiter *LoginRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ip := getClientIP(r)
			if !rateLimiter.IsAllowed(ip) {
				setRetryAfter(w, rateLimiter.GetTimeUntilAllowed(ip))
				writeError(w, http.StatusTooManyRequests, "too_many_attempts")
				return
			}

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			// only failed logins count against the budget
			if wrapped.statusCode >= http.StatusBadRequest {
				rateLimiter.RecordAttempt(ip)
			} else {
				rateLimiter.Reset(ip)
			}
		})
	}
}

// RedisRateLimiter is a fixed window counter shared by every server instance
type RedisRateLimiter struct {
	client redis.Cmdable
	prefix string
	limit  int64
	window time.Duration
}

func NewRedisRateLimiter(client redis.Cmdable, prefix string, limit int64, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// Allow counts one hit for key. When the limit is exceeded it returns false
// and the time left in the current window.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	redisKey := fmt.Sprintf("ratelimit:%s:%s", l.prefix, key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, 0, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}
	if count <= l.limit {
		return true, 0, nil
	}

	ttl, err := l.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl < 0 {
		ttl = l.window
	}
	return false, ttl, nil
}

// RateLimit throttles requests per client IP. Redis failures let the request
// through so an outage does not lock attendees out.
func RateLimit(limiter *RedisRateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter, err := limiter.Allow(r.Context(), getClientIP(r))
			if err != nil {
				logger.Warn("rate limiter unavailable", "error", err, "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				setRetryAfter(w, retryAfter)
				writeError(w, http.StatusTooManyRequests, "too_many_requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func setRetryAfter(w http.ResponseWriter, d time.Duration) {
	if d <= 0 {
		return
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(d.Seconds()))))
}
