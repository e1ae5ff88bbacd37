package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/venturelink/venturelink/internal/modules/messaging/topics"
	"github.com/venturelink/venturelink/internal/pubsub"
)

// Notifier is the fan-out target the coordinator pushes events to. The
// WebSocket bridge implements it; tests substitute a recorder.
type Notifier interface {
	// Deliver pushes payload under event to every live connection in the
	// room. An empty room is a silent drop, not an error.
	Deliver(roomID, event string, payload any)
}

// Coordinator drives the per-message state machine: a send request is
// persisted first, then fanned out to the sender's and receiver's rooms on
// the same execution path. Because persistence is synchronous and the bus
// hands one conversation's requests to the coordinator in publish order,
// a live receiver sees messages in persistence order.
//
// A failed send never broadcasts: the store either persisted the record or
// it didn't, and on failure only the originating sender learns about it via
// a send_failed event.
type Coordinator struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(store Store, notifier Notifier) *Coordinator {
	return &Coordinator{
		store:    store,
		notifier: notifier,
		logger:   slog.Default().With("service", "messaging"),
	}
}

// Start subscribes the coordinator to the messaging bus topics. The
// subscriptions run until ctx is canceled.
func (co *Coordinator) Start(ctx context.Context, sub pubsub.Subscriber) error {
	if err := sub.Subscribe(ctx, topics.SendRequest, co.handleSend); err != nil {
		return err
	}
	return sub.Subscribe(ctx, topics.ReadRequest, co.handleRead)
}

// handleSend processes one send_message request: validate, persist, fan out.
func (co *Coordinator) handleSend(ctx context.Context, msg pubsub.Message) error {
	var req SendRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		co.logger.Warn("Dropping malformed send request", "userID", msg.UserID, "error", err)
		return nil
	}

	// The sender's personal room is where failures are reported; trust the
	// authenticated session identity over the payload.
	senderRoom := msg.UserID
	if senderRoom == "" {
		senderRoom = req.SenderID
	}

	if msg.UserID != "" && req.SenderID != msg.UserID {
		co.logger.Warn("Send request sender does not match session",
			"sessionUserID", msg.UserID, "senderId", req.SenderID)
		co.notifier.Deliver(senderRoom, EventSendFailed, SendFailure{
			Reason:     ReasonInvalidMessage,
			ReceiverID: req.ReceiverID,
		})
		return nil
	}

	persisted, err := co.store.Append(ctx, req.SenderID, req.ReceiverID, req.Content)
	if err != nil {
		reason := ReasonStorageUnavailable
		if errors.Is(err, ErrValidation) {
			reason = ReasonInvalidMessage
		} else {
			co.logger.Error("Failed to persist message",
				"senderId", req.SenderID, "receiverId", req.ReceiverID, "error", err)
		}
		co.notifier.Deliver(senderRoom, EventSendFailed, SendFailure{
			Reason:     reason,
			ReceiverID: req.ReceiverID,
		})
		// The request is consumed either way: sends are never retried
		// automatically, the client decides whether to resend.
		return nil
	}

	co.notifier.Deliver(persisted.SenderID, EventMessageSent, persisted)
	co.notifier.Deliver(persisted.ReceiverID, EventReceiveMessage, persisted)
	return nil
}

// handleRead processes one read_messages request: bulk-flip, then emit a
// single receipt to the other party.
func (co *Coordinator) handleRead(ctx context.Context, msg pubsub.Message) error {
	var req ReadRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		co.logger.Warn("Dropping malformed read request", "userID", msg.UserID, "error", err)
		return nil
	}

	if msg.UserID != "" && req.UserID != msg.UserID {
		co.logger.Warn("Read request reader does not match session",
			"sessionUserID", msg.UserID, "userId", req.UserID)
		return nil
	}

	flipped, err := co.store.MarkConversationRead(ctx, req.UserID, req.ContactID)
	if err != nil {
		co.logger.Error("Failed to mark conversation read",
			"userId", req.UserID, "contactId", req.ContactID, "error", err)
		return nil
	}

	co.logger.Debug("Conversation marked read",
		"userId", req.UserID, "contactId", req.ContactID, "flipped", flipped)

	co.notifier.Deliver(req.ContactID, EventMessagesRead, ReadReceipt{
		ByUserID:  req.UserID,
		ForUserID: req.ContactID,
	})
	return nil
}
