package pubsub

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector records every message a subscription handler sees.
type collector struct {
	mu       sync.Mutex
	received []Message
}

func (c *collector) handle(ctx context.Context, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.received = append(c.received, msg)
	return nil
}

func (c *collector) snapshot() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.received))
	copy(out, c.received)
	return out
}

func TestWatermillBridge_PublishSubscribeRoundtrip(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()
	ctx := context.Background()

	var got collector
	require.NoError(t, bridge.Subscribe(ctx, "messaging.send.request", got.handle))

	require.NoError(t, bridge.Publish(ctx, Message{
		Topic:    "messaging.send.request",
		UserID:   "user:alice",
		Payload:  []byte(`{"content":"hello"}`),
		Metadata: map[string]string{"connection_id": "conn-1"},
	}))

	require.Eventually(t, func() bool {
		return len(got.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	msg := got.snapshot()[0]
	assert.Equal(t, "messaging.send.request", msg.Topic)
	assert.Equal(t, "user:alice", msg.UserID)
	assert.JSONEq(t, `{"content":"hello"}`, string(msg.Payload))
	assert.Equal(t, "conn-1", msg.Metadata["connection_id"])

	// Reserved metadata keys never leak into the caller's map.
	assert.NotContains(t, msg.Metadata, "user_id")
	assert.NotContains(t, msg.Metadata, "topic")
}

func TestWatermillBridge_PerTopicOrdering(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()
	ctx := context.Background()

	var got collector
	require.NoError(t, bridge.Subscribe(ctx, "messaging.send.request", got.handle))

	// A large burst: without publish-blocking each message is dispatched on
	// its own goroutine and rapid sends arrive scrambled.
	const n = 500
	for i := 0; i < n; i++ {
		require.NoError(t, bridge.Publish(ctx, Message{
			Topic:   "messaging.send.request",
			UserID:  "user:alice",
			Payload: []byte(fmt.Sprintf("%06d", i)),
		}))
	}

	require.Eventually(t, func() bool {
		return len(got.snapshot()) == n
	}, 5*time.Second, 10*time.Millisecond)

	for i, msg := range got.snapshot() {
		require.Equal(t, fmt.Sprintf("%06d", i), string(msg.Payload),
			"handling order must match publish order")
	}
}

func TestWatermillBridge_PublishWaitsForHandlerAck(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()
	ctx := context.Background()

	var got collector
	slow := func(ctx context.Context, msg Message) error {
		time.Sleep(20 * time.Millisecond)
		return got.handle(ctx, msg)
	}
	require.NoError(t, bridge.Subscribe(ctx, "messaging.send.request", slow))

	// The second Publish cannot overtake the first even though the handler
	// is still sleeping on it.
	require.NoError(t, bridge.Publish(ctx, Message{
		Topic: "messaging.send.request", Payload: []byte("first"),
	}))
	require.NoError(t, bridge.Publish(ctx, Message{
		Topic: "messaging.send.request", Payload: []byte("second"),
	}))

	require.Eventually(t, func() bool {
		return len(got.snapshot()) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "first", string(got.snapshot()[0].Payload))
	assert.Equal(t, "second", string(got.snapshot()[1].Payload))
}

func TestWatermillBridge_TopicsAreIsolated(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()
	ctx := context.Background()

	var send, read collector
	require.NoError(t, bridge.Subscribe(ctx, "messaging.send.request", send.handle))
	require.NoError(t, bridge.Subscribe(ctx, "messaging.read.request", read.handle))

	require.NoError(t, bridge.Publish(ctx, Message{
		Topic: "messaging.send.request", Payload: []byte("for send"),
	}))

	require.Eventually(t, func() bool {
		return len(send.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, read.snapshot())
}

func TestWatermillBridge_SubscriptionStopsOnContextCancel(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var got collector
	require.NoError(t, bridge.Subscribe(ctx, "messaging.send.request", got.handle))
	cancel()

	// Give the subscription loop a moment to wind down, then publish.
	time.Sleep(50 * time.Millisecond)
	_ = bridge.Publish(context.Background(), Message{
		Topic: "messaging.send.request", Payload: []byte("late"),
	})

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, got.snapshot())
}
