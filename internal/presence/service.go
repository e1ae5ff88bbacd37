package presence

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/venturelink/venturelink/internal/pubsub"
	"github.com/venturelink/venturelink/internal/websocket"
)

const (
	// Room is the shared room presence updates are broadcast to. Clients
	// interested in the online indicator join it after connecting.
	Room = "presence"

	// EventPresenceUpdated carries the full online user list. Sending the
	// whole list on every change keeps late joiners consistent without a
	// separate snapshot request.
	EventPresenceUpdated = "presence_updated"

	// DefaultOfflineDebounce is how long a user keeps their online status
	// after the last connection closes. This absorbs page reloads and brief
	// network drops without the indicator flickering.
	DefaultOfflineDebounce = 5 * time.Second
)

// Notifier is where presence changes are broadcast. The WebSocket bridge
// implements it.
type Notifier interface {
	Deliver(roomID, event string, payload any)
}

// Update is the payload of EventPresenceUpdated.
type Update struct {
	Online []string `json:"online"`
}

// Service tracks which participants currently hold at least one live
// WebSocket connection. It consumes the bridge's lifecycle topics and keeps
// a per-user connection set, so a user with three open tabs goes offline
// only when the last one closes.
type Service struct {
	notifier Notifier
	logger   *slog.Logger

	mu          sync.Mutex
	connections map[string]map[string]bool // userID -> connectionID set

	debounce      time.Duration
	offlineTimers map[string]*time.Timer
}

// Option configures a Service.
type Option func(*Service)

// WithOfflineDebounce overrides the offline delay. Zero disables debouncing,
// which tests use to assert the offline transition synchronously.
func WithOfflineDebounce(d time.Duration) Option {
	return func(s *Service) {
		s.debounce = d
	}
}

// NewService creates a presence service broadcasting to notifier.
func NewService(notifier Notifier, opts ...Option) *Service {
	svc := &Service{
		notifier:      notifier,
		logger:        slog.Default().With("service", "presence"),
		connections:   make(map[string]map[string]bool),
		debounce:      DefaultOfflineDebounce,
		offlineTimers: make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Start subscribes the service to the bridge's lifecycle topics. The
// subscriptions run until ctx is canceled.
func (s *Service) Start(ctx context.Context, sub pubsub.Subscriber) error {
	if err := sub.Subscribe(ctx, websocket.TopicClientConnected, s.handleConnected); err != nil {
		return err
	}
	return sub.Subscribe(ctx, websocket.TopicClientDisconnected, s.handleDisconnected)
}

// lifecycleEvent mirrors the bridge's lifecycle payload.
type lifecycleEvent struct {
	UserID       string `json:"userID"`
	ConnectionID string `json:"connectionID"`
}

func (s *Service) handleConnected(ctx context.Context, msg pubsub.Message) error {
	var event lifecycleEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		s.logger.Error("Failed to unmarshal client connected event", "error", err)
		return nil
	}
	if event.UserID == "" || event.ConnectionID == "" {
		return nil
	}
	s.addConnection(event.UserID, event.ConnectionID)
	return nil
}

func (s *Service) handleDisconnected(ctx context.Context, msg pubsub.Message) error {
	var event lifecycleEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		s.logger.Error("Failed to unmarshal client disconnected event", "error", err)
		return nil
	}
	s.removeConnection(event.UserID, event.ConnectionID)
	return nil
}

func (s *Service) addConnection(userID, connectionID string) {
	s.mu.Lock()

	// A reconnect within the debounce window cancels the pending offline.
	if timer, ok := s.offlineTimers[userID]; ok {
		timer.Stop()
		delete(s.offlineTimers, userID)
	}

	cameOnline := s.connections[userID] == nil
	if cameOnline {
		s.connections[userID] = make(map[string]bool)
	}
	s.connections[userID][connectionID] = true

	online := s.onlineLocked()
	s.mu.Unlock()

	if cameOnline {
		s.logger.Info("User came online", "userID", userID, "connectionID", connectionID)
		s.broadcast(online)
	}
}

func (s *Service) removeConnection(userID, connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.connections[userID]
	if !ok {
		return
	}
	delete(set, connectionID)
	if len(set) > 0 {
		return
	}

	if s.debounce == 0 {
		s.markOfflineLocked(userID)
		return
	}

	// Last connection gone: hold the online status for the debounce window
	// in case this is a page reload.
	if timer, ok := s.offlineTimers[userID]; ok {
		timer.Stop()
	}
	s.offlineTimers[userID] = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.offlineTimers, userID)
		if set, ok := s.connections[userID]; ok && len(set) == 0 {
			s.markOfflineLocked(userID)
		}
	})
}

// markOfflineLocked drops the user and broadcasts. Caller holds s.mu.
func (s *Service) markOfflineLocked(userID string) {
	delete(s.connections, userID)
	online := s.onlineLocked()
	s.logger.Info("User went offline", "userID", userID)
	go s.broadcast(online)
}

// OnlineUsers returns the sorted list of users with at least one live
// connection, including users inside their offline debounce window.
func (s *Service) OnlineUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onlineLocked()
}

// IsOnline reports whether the user currently counts as online.
func (s *Service) IsOnline(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connections[userID] != nil
}

func (s *Service) onlineLocked() []string {
	online := make([]string, 0, len(s.connections))
	for userID := range s.connections {
		online = append(online, userID)
	}
	sort.Strings(online)
	return online
}

func (s *Service) broadcast(online []string) {
	s.notifier.Deliver(Room, EventPresenceUpdated, Update{Online: online})
}

// Shutdown stops pending offline timers.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, timer := range s.offlineTimers {
		timer.Stop()
		delete(s.offlineTimers, userID)
	}
}
