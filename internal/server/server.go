package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/surrealdb/surrealdb.go"
	"github.com/venturelink/venturelink/internal/config"
	"github.com/venturelink/venturelink/internal/database"
	"github.com/venturelink/venturelink/internal/domain"
	"github.com/venturelink/venturelink/internal/handlers"
	"github.com/venturelink/venturelink/internal/logging"
	"github.com/venturelink/venturelink/internal/middleware"
	"github.com/venturelink/venturelink/internal/module"
	"github.com/venturelink/venturelink/internal/presence"
	"github.com/venturelink/venturelink/internal/pubsub"
	"github.com/venturelink/venturelink/internal/registry"
	"github.com/venturelink/venturelink/internal/storage"
	"github.com/venturelink/venturelink/internal/websocket"
)

// Server wires the core services (database, bus, WebSocket bridge, blob
// store, user store) into the registry, then registers and boots the
// application modules on top of them.
type Server struct {
	E   *echo.Echo
	DB  *surrealdb.DB
	Cfg *config.Config
	Reg *registry.Registry

	bus      *pubsub.WatermillBridge
	bridge   *websocket.Bridge
	presence *presence.Service
	users    domain.UserRepository
	auth     *handlers.AuthHandler
	modules  []module.Module

	// cancelCore stops the bridge runner and the bus subscriptions.
	cancelCore context.CancelFunc
	booted     bool
}

// New creates a fully wired Server from the environment.
func New() (*Server, error) {
	logging.New()
	return NewWithConfig(config.New())
}

// NewWithConfig creates a Server from an explicit configuration. Tests use
// it to run with the in-memory backends.
func NewWithConfig(cfg *config.Config) (*Server, error) {
	reg := registry.New(cfg)

	// Core services first; modules discover them through the registry.
	var db *surrealdb.DB
	var users domain.UserRepository
	if cfg.MessagingBackend == "memory" {
		slog.Warn("Running without a database; accounts and data are in-memory only")
		users = database.NewMemoryUserStore()
	} else {
		var err error
		db, err = database.NewDB(context.Background(), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		registry.Set(reg, database.ConnKey, db)
		users = database.NewSurrealUserStore(db, cfg.DBNs, cfg.DBDb)
	}

	bus := pubsub.NewWatermillBridge()
	registry.Set(reg, pubsub.PublisherKey, pubsub.Publisher(bus))
	registry.Set(reg, pubsub.SubscriberKey, pubsub.Subscriber(bus))

	router := websocket.NewEventRouter()
	bridge := websocket.NewBridge(bus, router)
	registry.Set(reg, websocket.RouterKey, router)
	registry.Set(reg, websocket.BridgeKey, bridge)

	registry.Set(reg, storage.StoreKey, storage.Store(storage.NewOSStore(cfg.DocumentsDir)))

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(middleware.Logger)

	cookieStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
	}
	e.Use(session.Middleware(cookieStore))

	s := &Server{
		E:        e,
		DB:       db,
		Cfg:      cfg,
		Reg:      reg,
		bus:      bus,
		bridge:   bridge,
		presence: presence.NewService(bridge),
		users:    users,
		auth:     handlers.NewAuthHandler(users),
		modules:  AppModules(),
	}

	for _, m := range s.modules {
		if err := m.Register(reg); err != nil {
			return nil, fmt.Errorf("failed to register module %s: %w", m.Name(), err)
		}
	}

	return s, nil
}

// Boot starts the core goroutines, mounts the routes and boots the modules.
func (s *Server) Boot(ctx context.Context) error {
	if s.booted {
		return nil
	}

	coreCtx, cancel := context.WithCancel(ctx)
	s.cancelCore = cancel

	go s.bridge.Run(coreCtx)
	if err := s.presence.Start(coreCtx, s.bus); err != nil {
		cancel()
		return fmt.Errorf("failed to start presence service: %w", err)
	}

	authed := s.RegisterRoutes()

	for _, m := range s.modules {
		if err := m.Boot(coreCtx, authed, s.Reg); err != nil {
			cancel()
			return fmt.Errorf("failed to boot module %s: %w", m.Name(), err)
		}
		slog.Info("Module booted", "module", m.Name())
	}

	s.booted = true
	return nil
}

// Shutdown stops the modules, the core goroutines and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, m := range s.modules {
		if err := m.Shutdown(ctx); err != nil {
			slog.Error("Module shutdown failed", "module", m.Name(), "error", err)
		}
	}
	s.presence.Shutdown()
	if s.cancelCore != nil {
		s.cancelCore()
	}
	if err := s.bus.Close(); err != nil {
		slog.Error("Failed to close bus", "error", err)
	}
	if s.DB != nil {
		if err := s.DB.Close(ctx); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}
	return s.E.Shutdown(ctx)
}

// UserStore is a getter for the server's user store, useful for testing.
func (s *Server) UserStore() domain.UserRepository {
	return s.users
}

// Presence is a getter for the presence service, useful for testing.
func (s *Server) Presence() *presence.Service {
	return s.presence
}
