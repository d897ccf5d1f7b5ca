package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireRole enforces that the authenticated staff member carries one of
// the given roles.  Assumes JWTAuth has stored the "role" claim in context.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequireStoreScope rejects staff whose store_id claim does not match the
// :storeId route parameter.  Admins carry an empty store_id claim and may
// manage any store.
func RequireStoreScope(adminRole string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if role, _ := c.Get("role").(string); role == adminRole {
				return next(c)
			}
			claim, _ := c.Get("store_id").(string)
			target := strings.TrimSpace(c.Param("storeId"))
			if claim == "" || target == "" || claim != target {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
