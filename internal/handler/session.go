package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tsukue/slotbook/internal/session"
)

// SessionHandler exposes the chat conversation store to the bot front-end.
// The bot is a separate service; it keeps no state of its own and reads,
// advances and clears the per-customer flow through these endpoints.
type SessionHandler struct {
	Sessions *session.Store
}

// NewSessionHandler constructs a SessionHandler.
func NewSessionHandler(s *session.Store) *SessionHandler {
	if s == nil {
		panic("nil session store passed to NewSessionHandler")
	}
	return &SessionHandler{Sessions: s}
}

func sessionParams(c echo.Context) (storeID, userID string, ok bool) {
	storeID = strings.TrimSpace(c.Param("storeId"))
	userID = strings.TrimSpace(c.Param("userId"))
	return storeID, userID, storeID != "" && userID != ""
}

// Get handles GET /v1/stores/:storeId/sessions/:userId.  A missing or
// expired session is a 404; the bot then restarts the flow from the top.
func (h *SessionHandler) Get(c echo.Context) error {
	storeID, userID, ok := sessionParams(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	st, err := h.Sessions.Get(ctx, storeID, userID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "session": st})
}

// Put handles PUT /v1/stores/:storeId/sessions/:userId, replacing the whole
// state and refreshing its TTL.
func (h *SessionHandler) Put(c echo.Context) error {
	storeID, userID, ok := sessionParams(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}
	var st session.State
	if err := c.Bind(&st); err != nil || strings.TrimSpace(st.Step) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := h.Sessions.Put(ctx, storeID, userID, st); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Clear handles DELETE /v1/stores/:storeId/sessions/:userId, ending the
// conversation (normally right after the reservation was submitted).
func (h *SessionHandler) Clear(c echo.Context) error {
	storeID, userID, ok := sessionParams(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := h.Sessions.Delete(ctx, storeID, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error"})
	}
	return c.NoContent(http.StatusNoContent)
}
