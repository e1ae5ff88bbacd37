package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/venturelink/venturelink/internal/domain"
	"github.com/venturelink/venturelink/internal/middleware"
)

// AuthHandler handles registration, login and session introspection.
type AuthHandler struct {
	users domain.UserRepository
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users domain.UserRepository) *AuthHandler {
	return &AuthHandler{users: users}
}

// Register creates a new account and opens a session. POST /auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user := &domain.User{Email: req.Email}
	if req.Name != "" {
		user.Name = &req.Name
	}

	token, err := h.users.SignUp(c.Request().Context(), user, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return echo.NewHTTPError(http.StatusConflict, "a user with this email already exists")
		}
		slog.Error("Failed to create user", "email", req.Email, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create account")
	}

	if err := middleware.SaveToken(c, token); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open session").SetInternal(err)
	}

	created, err := h.users.Authenticate(c.Request().Context(), token)
	if err != nil {
		slog.Error("Failed to load created user", "email", req.Email, "error", err)
		return c.NoContent(http.StatusCreated)
	}
	return c.JSON(http.StatusCreated, NewUserResponse(created))
}

// Login verifies credentials and opens a session. POST /auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user := &domain.User{Email: req.Email}
	token, err := h.users.SignIn(c.Request().Context(), user, req.Password)
	if err != nil {
		slog.Warn("Failed login attempt", "email", req.Email)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}

	if err := middleware.SaveToken(c, token); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open session").SetInternal(err)
	}

	authed, err := h.users.Authenticate(c.Request().Context(), token)
	if err != nil {
		return c.NoContent(http.StatusOK)
	}
	return c.JSON(http.StatusOK, NewUserResponse(authed))
}

// Logout closes the session. POST /auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := middleware.ClearToken(c); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to close session").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the session user. GET /auth/me (behind Auth middleware)
func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return c.JSON(http.StatusOK, NewUserResponse(user))
}
