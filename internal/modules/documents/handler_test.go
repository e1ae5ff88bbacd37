package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
	"github.com/venturelink/venturelink/internal/domain"
	"github.com/venturelink/venturelink/internal/handlers"
	"github.com/venturelink/venturelink/internal/middleware"
	"github.com/venturelink/venturelink/internal/storage"
)

func testUser(id string) *domain.User {
	rid := surrealmodels.NewRecordID("user", id)
	return &domain.User{ID: &rid, Email: id + "@example.com"}
}

type fixture struct {
	fs       afero.Fs
	blobs    storage.Store
	metadata *MemoryMetadataStore
	handler  *Handler
}

func newFixture() *fixture {
	fs := afero.NewMemMapFs()
	blobs := storage.NewAferoStore(fs)
	metadata := NewMemoryMetadataStore()
	return &fixture{
		fs:       fs,
		blobs:    blobs,
		metadata: metadata,
		handler:  NewHandler(blobs, metadata),
	}
}

func newContext(t *testing.T, req *http.Request, user *domain.User) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = handlers.NewValidator()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		c.Set(middleware.UserContextKey, user)
	}
	return c, rec
}

func multipartUpload(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

// uploadDocument drives the full handler path and returns the created doc.
func uploadDocument(t *testing.T, f *fixture, owner *domain.User, filename, content string) *Document {
	t.Helper()
	c, rec := newContext(t, multipartUpload(t, filename, content), owner)
	require.NoError(t, f.handler.Upload(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var doc Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	return &doc
}

func TestHandler_Upload(t *testing.T) {
	f := newFixture()
	alice := testUser("alice")

	doc := uploadDocument(t, f, alice, "pitch-deck.pdf", "deck bytes")
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, alice.ParticipantID(), doc.OwnerID)
	assert.Equal(t, "pitch-deck.pdf", doc.Filename)
	assert.Equal(t, int64(len("deck bytes")), doc.SizeBytes)
	assert.Empty(t, doc.SharedWith)

	// The blob landed under the owner's directory.
	stored, err := f.metadata.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	exists, err := afero.Exists(f.fs, stored.StoragePath)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestHandler_Upload_StripsPathComponents(t *testing.T) {
	f := newFixture()
	alice := testUser("alice")

	doc := uploadDocument(t, f, alice, "../../etc/passwd", "nope")
	assert.Equal(t, "passwd", doc.Filename)

	stored, err := f.metadata.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.StoragePath, "documents/"+alice.ParticipantID()))
}

func TestHandler_DownloadAccess(t *testing.T) {
	f := newFixture()
	alice := testUser("alice")
	vera := testUser("vera")
	mallory := testUser("mallory")

	doc := uploadDocument(t, f, alice, "financials.xlsx", "numbers")

	download := func(user *domain.User) (*httptest.ResponseRecorder, error) {
		req := httptest.NewRequest(http.MethodGet, "/documents/"+doc.ID+"/download", nil)
		c, rec := newContext(t, req, user)
		c.SetParamNames("id")
		c.SetParamValues(doc.ID)
		return rec, f.handler.Download(c)
	}

	t.Run("owner can download", func(t *testing.T) {
		rec, err := download(alice)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		body, _ := io.ReadAll(rec.Body)
		assert.Equal(t, "numbers", string(body))
	})

	t.Run("stranger gets a 404", func(t *testing.T) {
		_, err := download(mallory)
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusNotFound, httpErr.Code)
	})

	t.Run("shared-with investor can download", func(t *testing.T) {
		shareBody := `{"userId":"` + vera.ParticipantID() + `"}`
		req := httptest.NewRequest(http.MethodPost, "/documents/"+doc.ID+"/share", strings.NewReader(shareBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		c, rec := newContext(t, req, alice)
		c.SetParamNames("id")
		c.SetParamValues(doc.ID)
		require.NoError(t, f.handler.Share(c))
		require.Equal(t, http.StatusOK, rec.Code)

		got, err := download(vera)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, got.Code)
	})
}

func TestHandler_Share_OwnerOnly(t *testing.T) {
	f := newFixture()
	alice := testUser("alice")
	mallory := testUser("mallory")

	doc := uploadDocument(t, f, alice, "deck.pdf", "bytes")

	shareBody := `{"userId":"user:vera"}`
	req := httptest.NewRequest(http.MethodPost, "/documents/"+doc.ID+"/share", strings.NewReader(shareBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, _ := newContext(t, req, mallory)
	c.SetParamNames("id")
	c.SetParamValues(doc.ID)

	err := f.handler.Share(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

func TestHandler_Delete(t *testing.T) {
	f := newFixture()
	alice := testUser("alice")

	doc := uploadDocument(t, f, alice, "deck.pdf", "bytes")
	stored, err := f.metadata.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/documents/"+doc.ID, nil)
	c, rec := newContext(t, req, alice)
	c.SetParamNames("id")
	c.SetParamValues(doc.ID)

	require.NoError(t, f.handler.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err = f.metadata.GetByID(context.Background(), doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	exists, err := afero.Exists(f.fs, stored.StoragePath)
	require.NoError(t, err)
	assert.False(t, exists, "blob must be removed with the metadata")
}

func TestHandler_List_OwnAndShared(t *testing.T) {
	f := newFixture()
	alice := testUser("alice")
	vera := testUser("vera")
	ctx := context.Background()

	mine := uploadDocument(t, f, vera, "notes.txt", "my notes")
	shared := uploadDocument(t, f, alice, "deck.pdf", "deck")
	_ = uploadDocument(t, f, alice, "private.pdf", "private")

	_, err := f.metadata.Share(ctx, shared.ID, vera.ParticipantID())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	c, rec := newContext(t, req, vera)
	require.NoError(t, f.handler.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var docs []Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 2)

	ids := []string{docs[0].ID, docs[1].ID}
	assert.Contains(t, ids, mine.ID)
	assert.Contains(t, ids, shared.ID)
}
