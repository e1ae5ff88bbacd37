package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venturelink/venturelink/internal/database"
	"github.com/venturelink/venturelink/internal/middleware"
)

// newAuthServer wires the auth endpoints the way the real server does:
// session middleware, validator, in-memory user store.
func newAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	// Same options the server sets in production; the library's defaults
	// mark the cookie Secure, which a plain-HTTP test client discards.
	cookieStore := sessions.NewCookieStore([]byte("test-secret"))
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
	}
	e.Use(session.Middleware(cookieStore))

	users := database.NewMemoryUserStore()
	h := NewAuthHandler(users)
	e.POST("/auth/register", h.Register)
	e.POST("/auth/login", h.Login)
	e.POST("/auth/logout", h.Logout)
	e.GET("/auth/me", h.Me, middleware.Auth(users))

	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)
	return ts
}

func newSessionClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url, body string) *http.Response {
	t.Helper()
	resp, err := client.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAuth_RegisterOpensSession(t *testing.T) {
	ts := newAuthServer(t)
	client := newSessionClient(t)

	resp := postJSON(t, client, ts.URL+"/auth/register",
		`{"email":"alice@example.com","name":"Alice","password":"super-secret"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created UserResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "alice@example.com", created.Email)
	assert.Equal(t, "Alice", created.Name)
	assert.NotEmpty(t, created.ID)

	// The session cookie from registration authenticates /auth/me.
	me, err := client.Get(ts.URL + "/auth/me")
	require.NoError(t, err)
	defer me.Body.Close()
	assert.Equal(t, http.StatusOK, me.StatusCode)
}

func TestAuth_RegisterValidation(t *testing.T) {
	ts := newAuthServer(t)
	client := newSessionClient(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing email", `{"password":"super-secret"}`},
		{"malformed email", `{"email":"not-an-email","password":"super-secret"}`},
		{"short password", `{"email":"alice@example.com","password":"short"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, client, ts.URL+"/auth/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestAuth_RegisterDuplicateEmail(t *testing.T) {
	ts := newAuthServer(t)
	client := newSessionClient(t)

	resp := postJSON(t, client, ts.URL+"/auth/register",
		`{"email":"alice@example.com","password":"super-secret"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, newSessionClient(t), ts.URL+"/auth/register",
		`{"email":"alice@example.com","password":"another-secret"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAuth_LoginAndLogout(t *testing.T) {
	ts := newAuthServer(t)

	resp := postJSON(t, newSessionClient(t), ts.URL+"/auth/register",
		`{"email":"alice@example.com","password":"super-secret"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	client := newSessionClient(t)

	t.Run("wrong password is rejected", func(t *testing.T) {
		resp := postJSON(t, client, ts.URL+"/auth/login",
			`{"email":"alice@example.com","password":"wrong"}`)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid login opens a session", func(t *testing.T) {
		resp := postJSON(t, client, ts.URL+"/auth/login",
			`{"email":"alice@example.com","password":"super-secret"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		me, err := client.Get(ts.URL + "/auth/me")
		require.NoError(t, err)
		defer me.Body.Close()
		assert.Equal(t, http.StatusOK, me.StatusCode)
	})

	t.Run("logout closes the session", func(t *testing.T) {
		resp := postJSON(t, client, ts.URL+"/auth/logout", "")
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		me, err := client.Get(ts.URL + "/auth/me")
		require.NoError(t, err)
		defer me.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, me.StatusCode)
	})
}

func TestAuth_MeWithoutSession(t *testing.T) {
	ts := newAuthServer(t)

	resp, err := newSessionClient(t).Get(ts.URL + "/auth/me")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
