// Package router registers the HTTP routes for the reservation API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/tsukue/slotbook/internal/config"
	"github.com/tsukue/slotbook/internal/handler"
	"github.com/tsukue/slotbook/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication and no Redis:
// just the health check used by load balancers and monitoring.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated reservation surface.  The
// booking page and the chat bot both go through these endpoints.  All of
// them sit behind the Redis token bucket; the two calendar reads also get
// the short-TTL response cache so calendar polling does not hammer MySQL.
func RegisterPublic(e *echo.Echo, r *handler.ReservationHandler, cn *handler.ConstraintHandler, rdb *redis.Client) {
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	g := e.Group("/v1", limiter)
	g.GET("/reservations", r.List, cache)
	g.GET("/constraints", cn.List, cache)
	g.POST("/reservations", r.Create)
	g.DELETE("/reservations/:id", r.Cancel)
}
