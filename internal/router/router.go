package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/clinic-api/internal/config"
	"github.com/iliyamo/clinic-api/internal/handler"
	"github.com/iliyamo/clinic-api/internal/middleware"
)

// Deps carries what route-level middleware needs.  Redis may be nil, in
// which case rate limiting and caching pass requests through.
type Deps struct {
	Tokens    middleware.TokenVerifier
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Log       zerolog.Logger
}

// RegisterRoutes registers routes that do not require authentication:
// the banner, the JSON greeting and the health check.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/", h.Root)
	e.GET("/healthz", h.Healthz)
	e.GET("/api/test", h.Hello)
}

// RegisterAuth registers /api/auth.  Register and login are throttled per
// client; /me requires a valid token of any role, and a
// profile update purges the doctor directory cache.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, d Deps) {
	g := e.Group("/api/auth")
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)
	g.POST("/register", a.Register, limit)
	g.POST("/login", a.Login, limit)

	me := g.Group("/me", middleware.JWTAuth(d.Tokens))
	me.GET("", a.Me)
	// A doctor's profile edit changes what the cached directory shows.
	me.PUT("", a.UpdateMe, middleware.InvalidateCache(d.Cache, d.Redis, doctorsCache, d.Log))
}
