package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/venturelink/venturelink/internal/domain"
	"github.com/venturelink/venturelink/internal/middleware"
	"github.com/venturelink/venturelink/internal/pubsub"
)

// Client represents a single connected WebSocket session for one participant.
// A participant may hold several clients at once (multiple open tabs); the
// bridge fans deliveries out to all of them.
type Client struct {
	// ID is the unique identifier for this connection.
	ID string
	// UserID is the opaque participant identifier that owns the connection.
	UserID string

	conn   *websocket.Conn
	send   chan []byte
	bridge *Bridge

	// rooms tracks which rooms this client has joined. Only the bridge's
	// run loop touches it.
	rooms map[string]bool
}

// Envelope is the client-to-server wire frame: an event name plus its payload.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// ServerEvent is the server-to-client wire frame.
type ServerEvent struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// joinPayload is the payload of the reserved "join" event.
type joinPayload struct {
	RoomID string `json:"roomId"`
}

type joinRequest struct {
	client *Client
	roomID string
}

type incomingEvent struct {
	userID   string
	envelope Envelope
}

// Bridge is the connection registry and room manager. It tracks which live
// connections belong to which participant, groups them into rooms (every
// participant has an implicit personal room named by their ID), and routes
// whitelisted client events onto the pub/sub bus.
//
// Delivery is fire-and-forget per connection: a slow client's buffer fills
// up and the frame is dropped for that client only. The durable message
// store is the only record; offline participants fetch history on reconnect.
type Bridge struct {
	publisher pubsub.Publisher
	router    *EventRouter

	mu    sync.RWMutex
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	joins      chan joinRequest
	incoming   chan *incomingEvent
}

// NewBridge initializes a new Bridge, ready to handle connections.
func NewBridge(pub pubsub.Publisher, router *EventRouter) *Bridge {
	return &Bridge{
		publisher:  pub,
		router:     router,
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		joins:      make(chan joinRequest),
		incoming:   make(chan *incomingEvent, 256),
	}
}

// Run starts the main bridge goroutine for client lifecycle and routing.
func (b *Bridge) Run(ctx context.Context) {
	slog.Info("WebSocket bridge runner started")
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-b.register:
			b.joinRoom(client, client.UserID)
			slog.Info("Client registered", "userID", client.UserID, "connectionID", client.ID)
			b.publishLifecycle(TopicClientConnected, client)

		case client := <-b.unregister:
			b.mu.Lock()
			if len(client.rooms) > 0 {
				for roomID := range client.rooms {
					if members := b.rooms[roomID]; members != nil {
						delete(members, client)
						if len(members) == 0 {
							delete(b.rooms, roomID)
						}
					}
				}
				client.rooms = map[string]bool{}
				close(client.send)
				slog.Info("Client unregistered", "userID", client.UserID, "connectionID", client.ID)
				b.mu.Unlock()
				b.publishLifecycle(TopicClientDisconnected, client)
			} else {
				b.mu.Unlock()
			}

		case req := <-b.joins:
			b.joinRoom(req.client, req.roomID)

		case ev := <-b.incoming:
			b.routeIncoming(ev)
		}
	}
}

// joinRoom adds a client to a room. Joining the same room twice is a no-op,
// so a repeated join can never cause duplicate deliveries.
func (b *Bridge) joinRoom(client *Client, roomID string) {
	if roomID == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rooms[roomID] == nil {
		b.rooms[roomID] = make(map[*Client]bool)
	}
	b.rooms[roomID][client] = true
	client.rooms[roomID] = true
}

// routeIncoming maps a whitelisted client event onto its bus topic.
// Unknown events are dropped with a log line; clients cannot publish to
// arbitrary topics.
func (b *Bridge) routeIncoming(ev *incomingEvent) {
	topic, ok := b.router.TopicFor(ev.envelope.Event)
	if !ok {
		slog.Warn("Dropping non-whitelisted client event",
			"event", ev.envelope.Event, "userID", ev.userID)
		return
	}

	msg := pubsub.Message{
		Topic:   topic,
		UserID:  ev.userID,
		Payload: ev.envelope.Payload,
		Metadata: map[string]string{
			"received_at": time.Now().UTC().Format(time.RFC3339Nano),
		},
	}
	if err := b.publisher.Publish(context.Background(), msg); err != nil {
		slog.Error("Failed to publish client event", "event", ev.envelope.Event,
			"userID", ev.userID, "error", err)
	}
}

func (b *Bridge) publishLifecycle(topic string, client *Client) {
	payload, _ := json.Marshal(map[string]string{
		"userID":       client.UserID,
		"connectionID": client.ID,
	})
	msg := pubsub.Message{
		Topic:   topic,
		UserID:  client.UserID,
		Payload: payload,
	}
	if err := b.publisher.Publish(context.Background(), msg); err != nil {
		slog.Error("Failed to publish lifecycle event", "topic", topic, "error", err)
	}
}

// Deliver pushes payload under event to every connection currently joined
// to roomID. If the room has no members the payload is silently dropped:
// there is no queued redelivery for the live channel.
//
// The fan-out runs on the caller's goroutine rather than the run loop. Bus
// handlers call Deliver while the run loop is blocked in a Publish waiting
// for their ack, so routing deliveries through the run loop would deadlock.
func (b *Bridge) Deliver(roomID, event string, payload any) {
	frame, err := json.Marshal(ServerEvent{Event: event, Payload: payload})
	if err != nil {
		slog.Error("Failed to marshal server event", "event", event, "error", err)
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for client := range b.rooms[roomID] {
		select {
		case client.send <- frame:
		default:
			// Drop the frame if the client's send buffer is full.
			slog.Warn("Client send channel full, dropping frame",
				"userID", client.UserID, "room", roomID)
		}
	}
}

// Handler returns an echo.HandlerFunc that upgrades authenticated requests
// to WebSocket connections.
func (b *Bridge) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := c.Get(middleware.UserContextKey).(*domain.User)
		if !ok || user == nil {
			slog.Error("Bridge: could not get user from context for WebSocket connection")
			return c.String(http.StatusUnauthorized, "User not authenticated")
		}

		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			InsecureSkipVerify: true, // In production, check origin.
		})
		if err != nil {
			slog.Error("Failed to upgrade connection to WebSocket", "error", err)
			return err
		}

		client := &Client{
			ID:     uuid.NewString(),
			UserID: user.ParticipantID(),
			conn:   conn,
			send:   make(chan []byte, 256),
			bridge: b,
			rooms:  make(map[string]bool),
		}
		b.register <- client

		go client.writePump()
		go client.readPump()

		return nil
	}
}

// readPump pumps frames from the WebSocket connection into the bridge.
// The reserved "join" event is handled here; everything else goes through
// the event router onto the bus.
func (c *Client) readPump() {
	defer func() {
		c.bridge.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "Client disconnected")
	}()

	for {
		_, frame, err := c.conn.Read(context.Background())
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				slog.Info("WebSocket closed normally by client", "userID", c.UserID)
			} else if err != io.EOF {
				slog.Error("WebSocket read error", "userID", c.UserID, "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			slog.Warn("Dropping malformed client frame", "userID", c.UserID, "error", err)
			continue
		}

		if env.Event == EventJoin {
			var join joinPayload
			if err := json.Unmarshal(env.Payload, &join); err != nil || join.RoomID == "" {
				continue
			}
			c.bridge.joins <- joinRequest{client: c, roomID: join.RoomID}
			continue
		}

		c.bridge.incoming <- &incomingEvent{userID: c.UserID, envelope: env}
	}
}

// writePump pumps frames from the client's send channel to the connection.
func (c *Client) writePump() {
	defer func() {
		c.conn.Close(websocket.StatusNormalClosure, "Server-side cleanup")
	}()

	for {
		frame, ok := <-c.send
		if !ok {
			// The bridge closed the channel.
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.conn.Write(ctx, websocket.MessageText, frame)
		cancel()
		if err != nil {
			slog.Error("WebSocket write error", "userID", c.UserID, "error", err)
			return
		}
	}
}
