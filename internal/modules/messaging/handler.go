package messaging

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/venturelink/venturelink/internal/middleware"
)

// Handler exposes the REST surface of the messaging core: history seeding,
// the unread badge count and the individual mark-read fallback. The live
// path goes over the WebSocket bridge; these endpoints are what a client
// uses to catch up after connecting.
type Handler struct {
	store Store
}

// NewHandler creates a Handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// GetConversation returns the full ordered history between the session user
// and the other participant. GET /conversation/:otherParticipantId
func (h *Handler) GetConversation(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	otherID := c.Param("otherParticipantId")
	if otherID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing participant id")
	}

	messages, err := h.store.ListConversation(c.Request().Context(), user.ParticipantID(), otherID)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "message store unavailable").SetInternal(err)
	}

	return c.JSON(http.StatusOK, messages)
}

// GetUnreadCount returns the unread badge count across all conversations.
// GET /unread/count
func (h *Handler) GetUnreadCount(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	count, err := h.store.CountUnread(c.Request().Context(), user.ParticipantID())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "message store unavailable").SetInternal(err)
	}

	return c.JSON(http.StatusOK, map[string]int{"count": count})
}

// MarkMessageRead marks a single message read. PUT /messages/:id/read
// This is the individual fallback alongside the bulk read_messages event.
func (h *Handler) MarkMessageRead(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	msg, err := h.store.MarkRead(c.Request().Context(), c.Param("id"), user.ParticipantID())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "message not found")
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, "message store unavailable").SetInternal(err)
	}

	return c.JSON(http.StatusOK, msg)
}

// RegisterRoutes mounts the messaging REST surface on an authenticated group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/conversation/:otherParticipantId", h.GetConversation)
	g.GET("/unread/count", h.GetUnreadCount)
	g.PUT("/messages/:id/read", h.MarkMessageRead)
}
