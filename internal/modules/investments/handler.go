package investments

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/venturelink/venturelink/internal/domain"
	"github.com/venturelink/venturelink/internal/middleware"
)

// SubmitRequest is the payload of POST /investments.
type SubmitRequest struct {
	FounderID string `json:"founderId" validate:"required"`
	Amount    int64  `json:"amount" validate:"required,gt=0"`
	Rail      string `json:"rail" validate:"required,oneof=onchain upi"`
	// Proof is the tx hash for onchain, the UPI reference for upi.
	Proof string `json:"proof" validate:"required,max=256"`
}

// Handler exposes the investment REST surface.
type Handler struct {
	store     Store
	screening *ScreeningEngine
}

// NewHandler creates a Handler. screening may be nil when disabled.
func NewHandler(store Store, screening *ScreeningEngine) *Handler {
	return &Handler{store: store, screening: screening}
}

// Submit records a new investment. POST /investments
func (h *Handler) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.FounderID == user.ParticipantID() {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot invest in yourself")
	}

	inv := &Investment{
		InvestorID: user.ParticipantID(),
		FounderID:  req.FounderID,
		Amount:     req.Amount,
		Rail:       Rail(req.Rail),
		Proof:      req.Proof,
	}

	if h.screening != nil {
		result := h.screening.Evaluate(ctx, inv)
		inv.ScreeningNote = result.Note
		inv.FlaggedForReview = result.FlaggedForReview
	}

	created, err := h.store.Create(ctx, inv)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to record investment").SetInternal(err)
	}

	return c.JSON(http.StatusCreated, created)
}

// List returns the session user's investments, both as investor and as
// founder. GET /investments
func (h *Handler) List(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	invs, err := h.store.ListForUser(c.Request().Context(), user.ParticipantID())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list investments").SetInternal(err)
	}
	return c.JSON(http.StatusOK, invs)
}

// Approve accepts a pending investment. PUT /investments/:id/approve
func (h *Handler) Approve(c echo.Context) error {
	return h.decide(c, StatusApproved)
}

// Reject declines a pending investment. PUT /investments/:id/reject
func (h *Handler) Reject(c echo.Context) error {
	return h.decide(c, StatusRejected)
}

func (h *Handler) decide(c echo.Context, verdict Status) error {
	ctx := c.Request().Context()
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing investment id")
	}

	inv, err := h.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "investment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load investment").SetInternal(err)
	}
	// Only the founder being backed decides.
	if inv.FounderID != user.ParticipantID() {
		return echo.NewHTTPError(http.StatusForbidden, "only the founder can decide this investment")
	}

	decided, err := h.store.Decide(ctx, id, verdict)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return echo.NewHTTPError(http.StatusConflict, "investment already decided")
		}
		if errors.Is(err, domain.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "investment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to decide investment").SetInternal(err)
	}

	return c.JSON(http.StatusOK, decided)
}

// RegisterRoutes mounts the investment endpoints on an authenticated group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/investments", h.Submit, middleware.RateLimiter(2))
	g.GET("/investments", h.List)
	g.PUT("/investments/:id/approve", h.Approve)
	g.PUT("/investments/:id/reject", h.Reject)
}
