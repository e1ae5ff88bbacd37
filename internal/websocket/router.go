package websocket

import (
	"errors"
	"sync"
)

var (
	// ErrEventAlreadyRouted is returned when trying to route a duplicate event.
	ErrEventAlreadyRouted = errors.New("event already routed")
	// ErrInvalidEvent is returned when an empty event or topic is provided.
	ErrInvalidEvent = errors.New("event and topic cannot be empty")
)

// EventRouter is the whitelist of client events the bridge will forward to
// the bus, and the topic each one maps to. Modules register their events
// during Register so that clients can only publish onto known topics.
type EventRouter struct {
	mu     sync.RWMutex
	routes map[string]string
}

// NewEventRouter creates an empty router.
func NewEventRouter() *EventRouter {
	return &EventRouter{routes: make(map[string]string)}
}

// Allow maps a client event name onto a bus topic.
func (r *EventRouter) Allow(event, topic string) error {
	if event == "" || topic == "" {
		return ErrInvalidEvent
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.routes[event]; exists {
		return ErrEventAlreadyRouted
	}
	r.routes[event] = topic
	return nil
}

// TopicFor resolves the bus topic for a client event.
func (r *EventRouter) TopicFor(event string) (string, bool) {
	if event == "" {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	topic, ok := r.routes[event]
	return topic, ok
}
