package documents

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/venturelink/venturelink/internal/database"
	"github.com/venturelink/venturelink/internal/module"
	"github.com/venturelink/venturelink/internal/registry"
	"github.com/venturelink/venturelink/internal/storage"
)

// MetadataKey is the registry key for the document metadata store.
var MetadataKey = registry.Key[MetadataStore]("documents.metadata")

// Module wires document storage: blob bytes through the shared blob store,
// metadata through the database.
type Module struct {
	module.BaseModule
}

// Name returns the unique name for the module.
func (m *Module) Name() string {
	return "documents"
}

// Register selects the metadata backend. The blob store itself is a core
// service registered by the server.
func (m *Module) Register(reg *registry.Registry) error {
	var metadata MetadataStore
	if db, ok := registry.Get(reg, database.ConnKey); ok {
		metadata = NewSurrealMetadataStore(db)
	} else {
		slog.Warn("Using in-memory document metadata store; uploads will not survive a restart")
		metadata = NewMemoryMetadataStore()
	}
	registry.Set(reg, MetadataKey, metadata)
	return nil
}

// Boot registers the REST routes.
func (m *Module) Boot(ctx context.Context, g *echo.Group, reg *registry.Registry) error {
	blobs := registry.MustGet(reg, storage.StoreKey)
	metadata := registry.MustGet(reg, MetadataKey)

	slog.Info("Registering document routes")
	NewHandler(blobs, metadata).RegisterRoutes(g)
	return nil
}
