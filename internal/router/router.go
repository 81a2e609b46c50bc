package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/bus-seat-booking/internal/config"
	"github.com/iliyamo/bus-seat-booking/internal/handler"
	"github.com/iliyamo/bus-seat-booking/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication: the
// health check and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers authentication routes and their middleware.
// Unauthenticated operations live under /v1/auth, protected endpoints
// under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout takes either a bearer token or a refresh_token body, so it
	// stays outside the JWT middleware.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ADMIN", "CUSTOMER"))
	auth.GET("/me", a.Me)
}

// RegisterTrips registers the public browse endpoints and the
// admin-only trip creation endpoint.  Browse responses go through the
// Redis response cache; rdb may be nil, which disables both caching and
// rate limiting.
func RegisterTrips(e *echo.Echo, t *handler.TripHandler, adm *handler.AdminHandler, jwtSecret string, rdb *redis.Client) {
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	e.GET("/v1/trips", t.ListTrips, cacheMW)
	e.GET("/v1/trips/:id", t.GetTrip, cacheMW)

	admin := e.Group("/v1")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole("ADMIN"))
	admin.POST("/trips", adm.CreateTrip)
}

// RegisterBookings registers booking creation and lookup.  Creation is
// rate limited and accepts both guests and signed-in customers via
// OptionalAuth; my-bookings requires a customer session.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string, rdb *redis.Client) {
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	// OptionalAuth runs first so the limiter keys on the signed-in
	// subject instead of lumping every customer into the anon bucket.
	e.POST("/v1/trips/:id/bookings", b.CreateBooking, middleware.OptionalAuth(jwtSecret), limiter)
	e.GET("/v1/bookings/:reference", b.GetBooking)

	mine := e.Group("/v1")
	mine.Use(middleware.JWTAuth(jwtSecret))
	mine.Use(middleware.RequireRole("CUSTOMER", "ADMIN"))
	mine.GET("/my-bookings", b.MyBookings)
}
