package messaging

import (
	"context"
	"errors"
)

// Sentinel errors for the message store. Callers check them with errors.Is.
var (
	// ErrValidation marks a send rejected before persistence: empty
	// content or sender equal to receiver. Never retried automatically.
	ErrValidation = errors.New("message failed validation")

	// ErrNotFound marks an operation referencing a nonexistent message.
	ErrNotFound = errors.New("message not found")

	// ErrUnavailable marks a durable store that cannot be reached. The
	// coordinator must not fabricate a success acknowledgment in this case.
	ErrUnavailable = errors.New("message store unavailable")
)

// Store is durable CRUD over the Message entity. Two implementations exist:
// MemoryStore for tests and development, SurrealStore for production. They
// are selected at startup; nothing downstream may branch on the backend.
//
// The store is the only shared mutable resource of the messaging core. It
// is written exclusively by the delivery coordinator (Append, MarkRead,
// MarkConversationRead) and read by the history and badge endpoints.
type Store interface {
	// Append validates and persists a new message. On success the returned
	// record carries the assigned ID and creation timestamp, with Read=false.
	// A message is either fully persisted with all fields or not at all.
	Append(ctx context.Context, senderID, receiverID, content string) (*Message, error)

	// ListConversation returns all messages exchanged between the two
	// participants, in either direction, ascending by creation order.
	// The pair is unordered: argument order does not affect the result.
	// An empty conversation yields an empty slice, not an error.
	ListConversation(ctx context.Context, participantA, participantB string) ([]Message, error)

	// MarkRead flips a single message to read. The reader must be the
	// message's receiver; otherwise (or if no such message exists) it
	// fails with ErrNotFound. Marking an already-read message is a no-op
	// that returns the current record.
	MarkRead(ctx context.Context, messageID, readerID string) (*Message, error)

	// MarkConversationRead flips every unread message sent by otherPartyID
	// to readerID, returning how many were flipped.
	MarkConversationRead(ctx context.Context, readerID, otherPartyID string) (int, error)

	// CountUnread counts unread messages addressed to the participant
	// across all conversations, for badge counts.
	CountUnread(ctx context.Context, participantID string) (int, error)
}
