package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venturelink/venturelink/internal/database"
	"github.com/venturelink/venturelink/internal/domain"
)

// logRecorder collects every record logged through any handler derived from
// the same capture root, so attributes added via Logger.With are visible.
type logRecorder struct {
	mu      sync.Mutex
	records []map[string]string
}

func (r *logRecorder) add(record map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
}

// find returns the first record carrying the given attribute key.
func (r *logRecorder) find(key string) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if _, ok := record[key]; ok {
			return record
		}
	}
	return nil
}

type captureHandler struct {
	rec  *logRecorder
	with []slog.Attr
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	record := make(map[string]string)
	for _, a := range h.with {
		record[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		record[a.Key] = a.Value.String()
		return true
	})
	h.rec.add(record)
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	combined := append(append([]slog.Attr{}, h.with...), attrs...)
	return &captureHandler{rec: h.rec, with: combined}
}

func (h *captureHandler) WithGroup(string) slog.Handler { return h }

func TestAuth_EnrichesRequestLogger(t *testing.T) {
	recorder := &logRecorder{}
	previous := slog.Default()
	slog.SetDefault(slog.New(&captureHandler{rec: recorder}))
	t.Cleanup(func() { slog.SetDefault(previous) })

	users := database.NewMemoryUserStore()
	token, err := users.SignUp(context.Background(), &domain.User{Email: "alice@example.com"}, "secret-pw")
	require.NoError(t, err)
	alice, err := users.Authenticate(context.Background(), token)
	require.NoError(t, err)

	e := echo.New()
	cookieStore := sessions.NewCookieStore([]byte("test-secret"))
	cookieStore.Options = &sessions.Options{Path: "/", MaxAge: 3600, HttpOnly: true}
	e.Use(session.Middleware(cookieStore))
	e.Use(Logger)

	e.POST("/login", func(c echo.Context) error {
		require.NoError(t, SaveToken(c, token))
		return c.NoContent(http.StatusOK)
	})
	e.GET("/protected", func(c echo.Context) error {
		FromContext(c.Request().Context()).Info("ping")
		return c.NoContent(http.StatusOK)
	}, Auth(users))

	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	resp, err := client.Post(ts.URL+"/login", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(ts.URL + "/protected")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The handler's log line carries the session user resolved by Auth.
	record := recorder.find("participant_id")
	require.NotNil(t, record, "no log record carried participant_id")
	assert.Equal(t, alice.ParticipantID(), record["participant_id"])
}
