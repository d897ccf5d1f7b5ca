package middleware

// identity.go holds the caller-identity helper shared by the rate limiter
// and cache key builders.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// callerID returns a stable identifier for the requester: the staff_id claim
// when JWTAuth ran earlier in the chain, "anon" otherwise.  Public booking
// traffic is unauthenticated, so most buckets key on "anon" plus IP.
func callerID(c echo.Context) string {
	v := c.Get("staff_id")
	if v == nil {
		return "anon"
	}
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case float64:
		return fmt.Sprintf("%.0f", t)
	}
	return "anon"
}
