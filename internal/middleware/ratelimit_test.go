package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-seat-booking/internal/config"
	"github.com/iliyamo/bus-seat-booking/internal/utils"
)

func limiterFixture(t *testing.T, cfg config.RateLimitConfig) echo.HandlerFunc {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	mw := NewTokenBucket(cfg, rdb)
	return mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
}

func doRequest(h echo.HandlerFunc) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/trips/7/bookings", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/trips/:id/bookings")
	_ = h(c)
	return rec
}

func TestTokenBucket_BlocksWhenExhausted(t *testing.T) {
	h := limiterFixture(t, config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	})

	first := doRequest(h)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	second := doRequest(h)
	require.Equal(t, http.StatusOK, second.Code)

	third := doRequest(h)
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.NotEmpty(t, third.Header().Get("Retry-After"))
	assert.Contains(t, third.Body.String(), "too_many_requests")
}

func TestTokenBucket_DisabledPassesThrough(t *testing.T) {
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil)
	h := mw(func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	for i := 0; i < 5; i++ {
		rec := doRequest(h)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestTokenBucket_SeparateBucketsPerIP(t *testing.T) {
	h := limiterFixture(t, config.RateLimitConfig{
		Enabled:        true,
		Capacity:       1,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip",
		Prefix:         "rl",
	})

	e := echo.New()
	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/v1/trips", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		_ = h(c)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1111"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:2222"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2:3333"))
}

func TestBuildRateKey_UserStrategy(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/my-bookings", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.Set("user_id", float64(42))

	key := buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c)
	assert.Equal(t, "rl:user:42", key)
}

// The booking route chains OptionalAuth ahead of the limiter, so the
// subject claim must already be on the context when the key is built.
// Two signed-in customers behind one IP get separate buckets.
func TestTokenBucket_KeysOnAuthenticatedSubject(t *testing.T) {
	const secret = "limiter-secret"

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	limiter := NewTokenBucket(config.RateLimitConfig{
		Enabled:        true,
		Capacity:       1,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "user_route",
		Prefix:         "rl",
	}, rdb)

	h := OptionalAuth(secret)(limiter(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}))

	do := func(userID uint64) *httptest.ResponseRecorder {
		tok, err := utils.NewAccessToken(secret, userID, "CUSTOMER", 5)
		require.NoError(t, err)
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/v1/trips/7/bookings", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/v1/trips/:id/bookings")
		_ = h(c)
		return rec
	}

	require.Equal(t, http.StatusOK, do(42).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(42).Code)

	// Same IP, different account: a fresh bucket.
	assert.Equal(t, http.StatusOK, do(99).Code)
}
