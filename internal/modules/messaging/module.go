package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/venturelink/venturelink/internal/database"
	"github.com/venturelink/venturelink/internal/module"
	"github.com/venturelink/venturelink/internal/modules/messaging/topics"
	"github.com/venturelink/venturelink/internal/pubsub"
	"github.com/venturelink/venturelink/internal/registry"
	"github.com/venturelink/venturelink/internal/websocket"
)

// StoreKey is the registry key for the selected message store. Other
// modules (none today) and the server's health probe can look it up.
var StoreKey = registry.Key[Store]("messaging.store")

// Module wires the messaging core: store selection, client event routing,
// the delivery coordinator and the REST surface.
type Module struct {
	module.BaseModule
	coordinatorCancel context.CancelFunc
}

// Name returns the unique name for the module.
func (m *Module) Name() string {
	return "messaging"
}

// Register selects the message store backend and whitelists the module's
// client events on the bridge's router.
func (m *Module) Register(reg *registry.Registry) error {
	var store Store
	switch backend := reg.Config().MessagingBackend; backend {
	case "memory":
		slog.Warn("Using in-memory message store; messages will not survive a restart")
		store = NewMemoryStore()
	case "surreal":
		db := registry.MustGet(reg, database.ConnKey)
		store = NewSurrealStore(db)
	default:
		return fmt.Errorf("unknown messaging backend %q", backend)
	}
	registry.Set(reg, StoreKey, store)

	router := registry.MustGet(reg, websocket.RouterKey)
	if err := router.Allow(EventSendMessage, topics.SendRequest); err != nil {
		return err
	}
	return router.Allow(EventReadMessages, topics.ReadRequest)
}

// Boot starts the delivery coordinator and registers the REST routes.
func (m *Module) Boot(ctx context.Context, g *echo.Group, reg *registry.Registry) error {
	store := registry.MustGet(reg, StoreKey)
	bridge := registry.MustGet(reg, websocket.BridgeKey)
	sub := registry.MustGet(reg, pubsub.SubscriberKey)

	coordinatorCtx, cancel := context.WithCancel(ctx)
	m.coordinatorCancel = cancel

	coordinator := NewCoordinator(store, bridge)
	if err := coordinator.Start(coordinatorCtx, sub); err != nil {
		cancel()
		return fmt.Errorf("failed to start delivery coordinator: %w", err)
	}

	slog.Info("Registering messaging routes")
	NewHandler(store).RegisterRoutes(g)
	return nil
}

// Shutdown stops the coordinator's subscriptions.
func (m *Module) Shutdown(ctx context.Context) error {
	if m.coordinatorCancel != nil {
		m.coordinatorCancel()
	}
	return nil
}
