package investments

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/venturelink/venturelink/internal/database"
	"github.com/venturelink/venturelink/internal/module"
	"github.com/venturelink/venturelink/internal/registry"
)

// StoreKey is the registry key for the investment store.
var StoreKey = registry.Key[Store]("investments.store")

// Module wires investment records and their screening rules.
type Module struct {
	module.BaseModule
	screening   *ScreeningEngine
	watchCancel context.CancelFunc
}

// Name returns the unique name for the module.
func (m *Module) Name() string {
	return "investments"
}

// Register selects the store backend and loads the screening rules.
func (m *Module) Register(reg *registry.Registry) error {
	var store Store
	if db, ok := registry.Get(reg, database.ConnKey); ok {
		store = NewSurrealStore(db)
	} else {
		slog.Warn("Using in-memory investment store; records will not survive a restart")
		store = NewMemoryStore()
	}
	registry.Set(reg, StoreKey, store)

	if dir := reg.Config().ScreeningRulesDir; dir != "" {
		m.screening = NewScreeningEngine(dir)
		if err := m.screening.Load(); err != nil {
			return err
		}
	} else {
		slog.Info("SCREENING_RULES_DIR not set; investment screening disabled")
	}
	return nil
}

// Boot starts the rule watcher and registers the REST routes.
func (m *Module) Boot(ctx context.Context, g *echo.Group, reg *registry.Registry) error {
	if m.screening != nil {
		watchCtx, cancel := context.WithCancel(ctx)
		m.watchCancel = cancel
		go func() {
			if err := m.screening.Watch(watchCtx); err != nil {
				slog.Error("Screening rule watcher stopped", "error", err)
			}
		}()
	}

	slog.Info("Registering investment routes")
	NewHandler(registry.MustGet(reg, StoreKey), m.screening).RegisterRoutes(g)
	return nil
}

// Shutdown stops the rule watcher.
func (m *Module) Shutdown(ctx context.Context) error {
	if m.watchCancel != nil {
		m.watchCancel()
	}
	return nil
}
