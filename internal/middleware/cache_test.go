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
)

func cacheFixture(t *testing.T) (echo.HandlerFunc, *int) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{"GET": true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}

	hits := 0
	mw := NewRedisCache(cfg, rdb)
	h := mw(func(c echo.Context) error {
		hits++
		return c.JSON(http.StatusOK, map[string]string{"name": "Night Express"})
	})
	return h, &hits
}

func getTrips(h echo.HandlerFunc, query string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/trips"+query, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/trips")
	_ = h(c)
	return rec
}

func TestRedisCache_ServesSecondRequestFromCache(t *testing.T) {
	h, hits := cacheFixture(t)

	first := getTrips(h, "?from=Pune")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, 1, *hits)

	second := getTrips(h, "?from=Pune")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, 1, *hits, "handler must not run on a cache hit")
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestRedisCache_QueryIsPartOfTheKey(t *testing.T) {
	h, hits := cacheFixture(t)

	getTrips(h, "?from=Pune")
	getTrips(h, "?from=Nashik")
	assert.Equal(t, 2, *hits)
}

func TestRedisCache_NonCachedMethodPassesThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache"}
	hits := 0
	h := NewRedisCache(cfg, rdb)(func(c echo.Context) error {
		hits++
		return c.NoContent(http.StatusCreated)
	})

	e := echo.New()
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/trips/7/bookings", nil)
		rec := httptest.NewRecorder()
		_ = h(e.NewContext(req, rec))
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
	assert.Equal(t, 2, hits, "writes must never be served from cache")
}
