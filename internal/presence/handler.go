package presence

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler exposes the REST snapshot of the online indicator. The live path
// is the presence room broadcast; this endpoint seeds the directory view.
type Handler struct {
	service *Service
}

// NewHandler creates a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetOnline returns the current online user list. GET /presence/online
func (h *Handler) GetOnline(c echo.Context) error {
	return c.JSON(http.StatusOK, Update{Online: h.service.OnlineUsers()})
}

// RegisterRoutes mounts the presence endpoints on an authenticated group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/presence/online", h.GetOnline)
}
