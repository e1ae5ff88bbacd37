package profiles

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/venturelink/venturelink/internal/database"
	"github.com/venturelink/venturelink/internal/module"
	"github.com/venturelink/venturelink/internal/registry"
)

// StoreKey is the registry key for the profile store. The investments
// module looks it up to resolve founder/investor roles.
var StoreKey = registry.Key[Store]("profiles.store")

// Module wires the profile directory.
type Module struct {
	module.BaseModule
}

// Name returns the unique name for the module.
func (m *Module) Name() string {
	return "profiles"
}

// Register selects the profile store backend. Without a database
// connection the module falls back to the in-memory store.
func (m *Module) Register(reg *registry.Registry) error {
	var store Store
	if db, ok := registry.Get(reg, database.ConnKey); ok {
		store = NewSurrealStore(db)
	} else {
		slog.Warn("Using in-memory profile store; profiles will not survive a restart")
		store = NewMemoryStore()
	}
	registry.Set(reg, StoreKey, store)
	return nil
}

// Boot registers the REST routes.
func (m *Module) Boot(ctx context.Context, g *echo.Group, reg *registry.Registry) error {
	slog.Info("Registering profile routes")
	NewHandler(registry.MustGet(reg, StoreKey)).RegisterRoutes(g)
	return nil
}
