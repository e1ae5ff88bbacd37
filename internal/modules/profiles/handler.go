package profiles

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/venturelink/venturelink/internal/domain"
	"github.com/venturelink/venturelink/internal/middleware"
)

// UpdateRequest is the payload of PUT /profiles. Role decides which of the
// optional field groups is meaningful.
type UpdateRequest struct {
	Role        string `json:"role" validate:"required,oneof=founder investor"`
	DisplayName string `json:"displayName" validate:"required,max=120"`
	Bio         string `json:"bio" validate:"max=2000"`

	StartupName string `json:"startupName" validate:"max=120"`
	Pitch       string `json:"pitch" validate:"max=2000"`
	Sector      string `json:"sector" validate:"max=80"`
	Stage       string `json:"stage" validate:"max=80"`

	Firm         string   `json:"firm" validate:"max=120"`
	FocusSectors []string `json:"focusSectors" validate:"max=20,dive,max=80"`
	CheckSizeMin int64    `json:"checkSizeMin" validate:"gte=0"`
	CheckSizeMax int64    `json:"checkSizeMax" validate:"gte=0,gtefield=CheckSizeMin"`
}

// Handler exposes the profile REST surface.
type Handler struct {
	store Store
}

// NewHandler creates a Handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// UpdateOwn creates or replaces the session user's profile. PUT /profiles
func (h *Handler) UpdateOwn(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	profile, err := h.store.Upsert(c.Request().Context(), &Profile{
		UserID:       user.ParticipantID(),
		Role:         Role(req.Role),
		DisplayName:  req.DisplayName,
		Bio:          req.Bio,
		StartupName:  req.StartupName,
		Pitch:        req.Pitch,
		Sector:       req.Sector,
		Stage:        req.Stage,
		Firm:         req.Firm,
		FocusSectors: req.FocusSectors,
		CheckSizeMin: req.CheckSizeMin,
		CheckSizeMax: req.CheckSizeMax,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save profile").SetInternal(err)
	}

	return c.JSON(http.StatusOK, profile)
}

// GetByUser returns one participant's profile. GET /profiles/:userId
func (h *Handler) GetByUser(c echo.Context) error {
	userID := c.Param("userId")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing user id")
	}

	profile, err := h.store.GetByUserID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load profile").SetInternal(err)
	}

	return c.JSON(http.StatusOK, profile)
}

// List returns the directory. GET /profiles?role=founder&sector=Fintech
func (h *Handler) List(c echo.Context) error {
	filter := Filter{
		Role:   Role(c.QueryParam("role")),
		Sector: c.QueryParam("sector"),
	}
	if filter.Role != "" && !filter.Role.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown role")
	}

	profiles, err := h.store.List(c.Request().Context(), filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list profiles").SetInternal(err)
	}

	return c.JSON(http.StatusOK, profiles)
}

// RegisterRoutes mounts the profile endpoints on an authenticated group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/profiles", h.List)
	g.PUT("/profiles", h.UpdateOwn)
	g.GET("/profiles/:userId", h.GetByUser)
}
