package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venturelink/venturelink/internal/pubsub"
)

// recordingNotifier captures Deliver calls for assertions.
type recordingNotifier struct {
	mu         sync.Mutex
	deliveries []delivery
}

type delivery struct {
	roomID  string
	event   string
	payload any
}

func (r *recordingNotifier) Deliver(roomID, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, delivery{roomID: roomID, event: event, payload: payload})
}

func (r *recordingNotifier) byEvent(event string) []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []delivery
	for _, d := range r.deliveries {
		if d.event == event {
			out = append(out, d)
		}
	}
	return out
}

// failingStore rejects every append with a non-validation error.
type failingStore struct {
	Store
}

func (failingStore) Append(ctx context.Context, senderID, receiverID, content string) (*Message, error) {
	return nil, ErrUnavailable
}

func sendRequestMessage(t *testing.T, userID string, req SendRequest) pubsub.Message {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)
	return pubsub.Message{UserID: userID, Payload: payload}
}

func readRequestMessage(t *testing.T, userID string, req ReadRequest) pubsub.Message {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)
	return pubsub.Message{UserID: userID, Payload: payload}
}

func TestCoordinator_HandleSend_PersistsThenFansOut(t *testing.T) {
	store := NewMemoryStore()
	notifier := &recordingNotifier{}
	co := NewCoordinator(store, notifier)

	msg := sendRequestMessage(t, "user:alice", SendRequest{
		SenderID:   "user:alice",
		ReceiverID: "user:bob",
		Content:    "hello",
	})
	require.NoError(t, co.handleSend(context.Background(), msg))

	// Exactly one ack to the sender and one delivery to the receiver.
	acks := notifier.byEvent(EventMessageSent)
	require.Len(t, acks, 1)
	assert.Equal(t, "user:alice", acks[0].roomID)

	received := notifier.byEvent(EventReceiveMessage)
	require.Len(t, received, 1)
	assert.Equal(t, "user:bob", received[0].roomID)

	// Both carry the same persisted record.
	persisted, ok := received[0].payload.(*Message)
	require.True(t, ok)
	assert.Equal(t, "hello", persisted.Content)
	assert.NotEmpty(t, persisted.ID)
	assert.Same(t, acks[0].payload, received[0].payload)

	// And the record is actually in the store.
	history, err := store.ListConversation(context.Background(), "user:alice", "user:bob")
	require.NoError(t, err)
	require.Len(t, history, 1)

	assert.Empty(t, notifier.byEvent(EventSendFailed))
}

func TestCoordinator_HandleSend_InvalidMessageFailsOnlyToSender(t *testing.T) {
	store := NewMemoryStore()
	notifier := &recordingNotifier{}
	co := NewCoordinator(store, notifier)

	msg := sendRequestMessage(t, "user:alice", SendRequest{
		SenderID:   "user:alice",
		ReceiverID: "user:bob",
		Content:    "   ",
	})
	require.NoError(t, co.handleSend(context.Background(), msg))

	failures := notifier.byEvent(EventSendFailed)
	require.Len(t, failures, 1)
	assert.Equal(t, "user:alice", failures[0].roomID)
	failure, ok := failures[0].payload.(SendFailure)
	require.True(t, ok)
	assert.Equal(t, ReasonInvalidMessage, failure.Reason)
	assert.Equal(t, "user:bob", failure.ReceiverID)

	// Nothing persisted, nothing broadcast to the receiver.
	assert.Empty(t, notifier.byEvent(EventMessageSent))
	assert.Empty(t, notifier.byEvent(EventReceiveMessage))
	history, err := store.ListConversation(context.Background(), "user:alice", "user:bob")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCoordinator_HandleSend_StorageFailureIsNotRetried(t *testing.T) {
	notifier := &recordingNotifier{}
	co := NewCoordinator(failingStore{}, notifier)

	msg := sendRequestMessage(t, "user:alice", SendRequest{
		SenderID:   "user:alice",
		ReceiverID: "user:bob",
		Content:    "hello",
	})
	// A nil return consumes the request; the bus never redelivers it.
	require.NoError(t, co.handleSend(context.Background(), msg))

	failures := notifier.byEvent(EventSendFailed)
	require.Len(t, failures, 1)
	assert.Equal(t, "user:alice", failures[0].roomID)
	failure, ok := failures[0].payload.(SendFailure)
	require.True(t, ok)
	assert.Equal(t, ReasonStorageUnavailable, failure.Reason)

	assert.Empty(t, notifier.byEvent(EventReceiveMessage))
}

func TestCoordinator_HandleSend_SessionMismatchRejected(t *testing.T) {
	store := NewMemoryStore()
	notifier := &recordingNotifier{}
	co := NewCoordinator(store, notifier)

	// The payload claims a different sender than the authenticated session.
	msg := sendRequestMessage(t, "user:mallory", SendRequest{
		SenderID:   "user:alice",
		ReceiverID: "user:bob",
		Content:    "hello",
	})
	require.NoError(t, co.handleSend(context.Background(), msg))

	failures := notifier.byEvent(EventSendFailed)
	require.Len(t, failures, 1)
	assert.Equal(t, "user:mallory", failures[0].roomID, "failure goes to the session, not the claimed sender")

	history, err := store.ListConversation(context.Background(), "user:alice", "user:bob")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCoordinator_HandleSend_MalformedPayloadDropped(t *testing.T) {
	notifier := &recordingNotifier{}
	co := NewCoordinator(NewMemoryStore(), notifier)

	msg := pubsub.Message{UserID: "user:alice", Payload: []byte("{not json")}
	require.NoError(t, co.handleSend(context.Background(), msg))
	assert.Empty(t, notifier.deliveries)
}

func TestCoordinator_HandleRead_SingleReceiptToOtherParty(t *testing.T) {
	store := NewMemoryStore()
	notifier := &recordingNotifier{}
	co := NewCoordinator(store, notifier)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Append(ctx, "user:alice", "user:bob", "hi")
		require.NoError(t, err)
	}

	msg := readRequestMessage(t, "user:bob", ReadRequest{
		UserID:    "user:bob",
		ContactID: "user:alice",
	})
	require.NoError(t, co.handleRead(ctx, msg))

	// One receipt regardless of how many messages were flipped.
	receipts := notifier.byEvent(EventMessagesRead)
	require.Len(t, receipts, 1)
	assert.Equal(t, "user:alice", receipts[0].roomID)
	receipt, ok := receipts[0].payload.(ReadReceipt)
	require.True(t, ok)
	assert.Equal(t, "user:bob", receipt.ByUserID)
	assert.Equal(t, "user:alice", receipt.ForUserID)

	count, err := store.CountUnread(ctx, "user:bob")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCoordinator_HandleRead_SessionMismatchIgnored(t *testing.T) {
	store := NewMemoryStore()
	notifier := &recordingNotifier{}
	co := NewCoordinator(store, notifier)
	ctx := context.Background()

	_, err := store.Append(ctx, "user:alice", "user:bob", "hi")
	require.NoError(t, err)

	msg := readRequestMessage(t, "user:mallory", ReadRequest{
		UserID:    "user:bob",
		ContactID: "user:alice",
	})
	require.NoError(t, co.handleRead(ctx, msg))

	assert.Empty(t, notifier.deliveries)
	count, err := store.CountUnread(ctx, "user:bob")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
