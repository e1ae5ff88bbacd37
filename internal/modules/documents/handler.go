package documents

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/venturelink/venturelink/internal/domain"
	"github.com/venturelink/venturelink/internal/middleware"
	"github.com/venturelink/venturelink/internal/storage"
)

// MaxUploadBytes caps a single document upload.
const MaxUploadBytes = 25 << 20 // 25 MiB

// ShareRequest is the payload of POST /documents/:id/share.
type ShareRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// Handler exposes the document REST surface: founders upload and share,
// investors read what was shared with them.
type Handler struct {
	blobs    storage.Store
	metadata MetadataStore
}

// NewHandler creates a Handler.
func NewHandler(blobs storage.Store, metadata MetadataStore) *Handler {
	return &Handler{blobs: blobs, metadata: metadata}
}

// Upload stores a multipart upload. POST /documents
func (h *Handler) Upload(c echo.Context) error {
	ctx := c.Request().Context()
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file field")
	}
	if fileHeader.Size > MaxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open uploaded file").SetInternal(err)
	}
	defer src.Close()

	// Base strips any path components a client smuggles into the filename.
	filename := filepath.Base(fileHeader.Filename)
	storagePath := filepath.Join("documents", user.ParticipantID(),
		fmt.Sprintf("%d-%s", time.Now().UnixNano(), filename))

	written, err := h.blobs.Save(ctx, storagePath, src)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store file").SetInternal(err)
	}

	doc, err := h.metadata.Create(ctx, &Document{
		OwnerID:     user.ParticipantID(),
		Filename:    filename,
		MimeType:    fileHeader.Header.Get("Content-Type"),
		SizeBytes:   written,
		StoragePath: storagePath,
	})
	if err != nil {
		// Orphaned blobs are worse than a failed upload.
		_ = h.blobs.Delete(ctx, storagePath)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save document metadata").SetInternal(err)
	}

	return c.JSON(http.StatusCreated, doc)
}

// List returns the session user's own and shared-with documents.
// GET /documents
func (h *Handler) List(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	docs, err := h.metadata.ListAccessible(c.Request().Context(), user.ParticipantID())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list documents").SetInternal(err)
	}
	return c.JSON(http.StatusOK, docs)
}

// Download streams a document's bytes. GET /documents/:id/download
func (h *Handler) Download(c echo.Context) error {
	ctx := c.Request().Context()
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	doc, err := h.loadDocument(c)
	if err != nil {
		return err
	}
	if !doc.CanRead(user.ParticipantID()) {
		// A 404 avoids confirming the document exists.
		return echo.NewHTTPError(http.StatusNotFound, "document not found")
	}

	blob, err := h.blobs.Open(ctx, doc.StoragePath)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open document").SetInternal(err)
	}
	defer blob.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, doc.Filename))
	mime := doc.MimeType
	if mime == "" {
		mime = echo.MIMEOctetStream
	}
	return c.Stream(http.StatusOK, mime, blob)
}

// Share grants another participant read access. POST /documents/:id/share
func (h *Handler) Share(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var req ShareRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	doc, err := h.loadDocument(c)
	if err != nil {
		return err
	}
	if doc.OwnerID != user.ParticipantID() {
		return echo.NewHTTPError(http.StatusForbidden, "only the owner can share a document")
	}

	shared, err := h.metadata.Share(c.Request().Context(), doc.ID, req.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to share document").SetInternal(err)
	}
	return c.JSON(http.StatusOK, shared)
}

// Delete removes a document and its blob. DELETE /documents/:id
func (h *Handler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	doc, err := h.loadDocument(c)
	if err != nil {
		return err
	}
	if doc.OwnerID != user.ParticipantID() {
		return echo.NewHTTPError(http.StatusForbidden, "only the owner can delete a document")
	}

	// Remove the blob first; if that fails we still drop the metadata so
	// the document disappears from listings.
	if err := h.blobs.Delete(ctx, doc.StoragePath); err != nil {
		middleware.FromContext(ctx).Warn("Failed to delete blob",
			"path", doc.StoragePath, "error", err)
	}
	if err := h.metadata.Delete(ctx, doc.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete document").SetInternal(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) loadDocument(c echo.Context) (*Document, error) {
	id := c.Param("id")
	if id == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "missing document id")
	}

	doc, err := h.metadata.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "document not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to load document").SetInternal(err)
	}
	return doc, nil
}

// RegisterRoutes mounts the document endpoints on an authenticated group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/documents", h.Upload)
	g.GET("/documents", h.List)
	g.GET("/documents/:id/download", h.Download)
	g.POST("/documents/:id/share", h.Share)
	g.DELETE("/documents/:id", h.Delete)
}
