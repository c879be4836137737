package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRateLimiter_IsAllowed(t *testing.T) {
	rl := NewLoginRateLimiter(3, time.Minute)
	defer rl.Close()

	ip := "192.168.1.1"

	for i := 0; i < 3; i++ {
		assert.True(t, rl.IsAllowed(ip), "attempt %d should be allowed", i+1)
		rl.RecordAttempt(ip)
	}

	assert.False(t, rl.IsAllowed(ip))
	assert.True(t, rl.IsAllowed("192.168.1.2"))
}

func TestLoginRateLimiter_GetTimeUntilAllowed(t *testing.T) {
	rl := NewLoginRateLimiter(1, time.Minute)
	defer rl.Close()

	ip := "192.168.1.1"
	assert.Equal(t, time.Duration(0), rl.GetTimeUntilAllowed(ip))

	rl.RecordAttempt(ip)

	d := rl.GetTimeUntilAllowed(ip)
	assert.Greater(t, d, time.Duration(0))
	assert.LessOrEqual(t, d, time.Minute)
}

func TestLoginRateLimiter_WindowExpires(t *testing.T) {
	rl := NewLoginRateLimiter(1, 100*time.Millisecond)
	defer rl.Close()

	ip := "192.168.1.1"
	rl.RecordAttempt(ip)
	assert.False(t, rl.IsAllowed(ip))

	time.Sleep(150 * time.Millisecond)

	assert.True(t, rl.IsAllowed(ip))
}

func TestLoginRateLimit_Middleware(t *testing.T) {
	rl := NewLoginRateLimiter(2, time.Minute)
	defer rl.Close()

	status := http.StatusUnauthorized
	handler := LoginRateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	send := func(method string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/api/admin/session", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	// GET is never throttled
	assert.Equal(t, http.StatusUnauthorized, send(http.MethodGet).Code)

	assert.Equal(t, http.StatusUnauthorized, send(http.MethodPost).Code)
	assert.Equal(t, http.StatusUnauthorized, send(http.MethodPost).Code)

	rr := send(http.MethodPost)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.JSONEq(t, `{"error":"too_many_attempts"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
}

func TestLoginRateLimit_SuccessResetsBudget(t *testing.T) {
	rl := NewLoginRateLimiter(2, time.Minute)
	defer rl.Close()

	status := http.StatusUnauthorized
	handler := LoginRateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/session", nil)
		req.RemoteAddr = "10.1.1.1:1"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	post()
	status = http.StatusOK
	assert.Equal(t, http.StatusOK, post())

	status = http.StatusUnauthorized
	assert.Equal(t, http.StatusUnauthorized, post())
	assert.Equal(t, http.StatusUnauthorized, post())
	assert.Equal(t, http.StatusTooManyRequests, post())
}

func TestRedisRateLimiter_Allow(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRedisRateLimiter(db, "otp", 2, time.Minute)
	ctx := context.Background()
	key := "ratelimit:otp:203.0.113.9"

	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Minute).SetVal(true)
	allowed, _, err := limiter.Allow(ctx, "203.0.113.9")
	require.NoError(t, err)
	assert.True(t, allowed)

	mock.ExpectIncr(key).SetVal(2)
	allowed, _, err = limiter.Allow(ctx, "203.0.113.9")
	require.NoError(t, err)
	assert.True(t, allowed)

	mock.ExpectIncr(key).SetVal(3)
	mock.ExpectTTL(key).SetVal(42 * time.Second)
	allowed, retry, err := limiter.Allow(ctx, "203.0.113.9")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 42*time.Second, retry)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimit_Middleware(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRedisRateLimiter(db, "otp", 1, time.Minute)
	key := "ratelimit:otp:203.0.113.9"

	handler := RateLimit(limiter, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/otp/request", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Minute).SetVal(true)
	assert.Equal(t, http.StatusOK, send().Code)

	mock.ExpectIncr(key).SetVal(2)
	mock.ExpectTTL(key).SetVal(30 * time.Second)
	rr := send()
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "30", rr.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"too_many_requests"}`, rr.Body.String())

	// redis outage lets requests through
	mock.ExpectIncr(key).SetErr(errors.New("connection refused"))
	assert.Equal(t, http.StatusOK, send().Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}
