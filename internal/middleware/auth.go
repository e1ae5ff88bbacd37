package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/venturelink/venturelink/internal/domain"
)

// UserContextKey is where the authenticated *domain.User is stored on the
// echo context.
const UserContextKey = "user"

// SessionName is the cookie session holding the auth token.
const SessionName = "venturelink-session"

// sessionTokenKey is the session value carrying the database-issued token.
const sessionTokenKey = "token"

// Auth creates a middleware that protects routes requiring authentication.
// It reads the token from the cookie session, validates it against the user
// store and places the resolved user in the request context.
func Auth(users domain.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := session.Get(SessionName, c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}

			token, _ := sess.Values[sessionTokenKey].(string)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}

			user, err := users.Authenticate(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidCredentials) {
					// Clear the dead session so the client stops retrying it.
					sess.Options.MaxAge = -1
					_ = sess.Save(c.Request(), c.Response())
					return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
				}
				return echo.NewHTTPError(http.StatusInternalServerError, "authentication failed").SetInternal(err)
			}

			c.Set(UserContextKey, user)
			withLogger(c, FromContext(c.Request().Context()).With("participant_id", user.ParticipantID()))
			return next(c)
		}
	}
}

// SaveToken stores a freshly issued auth token in the cookie session.
func SaveToken(c echo.Context, token string) error {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return err
	}
	sess.Values[sessionTokenKey] = token
	return sess.Save(c.Request(), c.Response())
}

// ClearToken drops the session, logging the user out.
func ClearToken(c echo.Context) error {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return err
	}
	delete(sess.Values, sessionTokenKey)
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// CurrentUser returns the authenticated user placed in the context by Auth.
func CurrentUser(c echo.Context) (*domain.User, bool) {
	user, ok := c.Get(UserContextKey).(*domain.User)
	return user, ok && user != nil
}
