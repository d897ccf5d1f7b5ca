package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tsukue/slotbook/internal/handler"
	"github.com/tsukue/slotbook/internal/middleware"
	"github.com/tsukue/slotbook/internal/model"
)

// RegisterAuth registers the staff session endpoints under /v1/auth.  Both
// operations are unauthenticated by nature: login exchanges credentials for
// a token pair, refresh rotates an existing pair.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	// Account provisioning is admin only; there is no self-registration.
	admin := e.Group("/v1/staff",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	admin.POST("", a.CreateStaff)
}

// RegisterStaff registers store-scoped management endpoints.  Every route
// requires a valid staff token; STAFF members are confined to the store in
// their token, ADMIN tokens carry no store and may manage any of them.
func RegisterStaff(e *echo.Echo, cn *handler.ConstraintHandler, s *handler.SessionHandler, jwtSecret string) {
	g := e.Group(
		"/v1/stores/:storeId",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleStaff, model.RoleAdmin),
		middleware.RequireStoreScope(model.RoleAdmin),
	)
	g.PUT("/constraints", cn.Replace)

	// Conversation state for the chat bot.  The bot authenticates with a
	// staff service token for its store.
	g.GET("/sessions/:userId", s.Get)
	g.PUT("/sessions/:userId", s.Put)
	g.DELETE("/sessions/:userId", s.Clear)
}
