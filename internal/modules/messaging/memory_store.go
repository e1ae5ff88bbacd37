package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is the in-memory Store implementation used in tests and
// development. Messages live in insertion order in a single slice, so
// conversation listings fall out of a filter without any re-sorting.
type MemoryStore struct {
	mu        sync.RWMutex
	messages  []*Message
	byID      map[string]*Message
	lastStamp time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*Message)}
}

// Append validates and stores a new message.
func (s *MemoryStore) Append(ctx context.Context, senderID, receiverID, content string) (*Message, error) {
	if err := validateSend(senderID, receiverID, content); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg := &Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Read:       false,
		CreatedAt:  s.nextStampLocked(),
	}
	s.messages = append(s.messages, msg)
	s.byID[msg.ID] = msg

	out := *msg
	return &out, nil
}

// nextStampLocked returns a strictly increasing timestamp so display order
// never depends on wall-clock precision.
func (s *MemoryStore) nextStampLocked() time.Time {
	now := time.Now().UTC()
	if !now.After(s.lastStamp) {
		now = s.lastStamp.Add(time.Microsecond)
	}
	s.lastStamp = now
	return now
}

// ListConversation returns the messages of the unordered pair in creation order.
func (s *MemoryStore) ListConversation(ctx context.Context, participantA, participantB string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Message, 0)
	for _, msg := range s.messages {
		if (msg.SenderID == participantA && msg.ReceiverID == participantB) ||
			(msg.SenderID == participantB && msg.ReceiverID == participantA) {
			result = append(result, *msg)
		}
	}
	return result, nil
}

// MarkRead flips one message to read, idempotently.
func (s *MemoryStore) MarkRead(ctx context.Context, messageID, readerID string) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.byID[messageID]
	if !ok || msg.ReceiverID != readerID {
		return nil, ErrNotFound
	}
	msg.Read = true

	out := *msg
	return &out, nil
}

// MarkConversationRead flips every unread message from otherPartyID to readerID.
func (s *MemoryStore) MarkConversationRead(ctx context.Context, readerID, otherPartyID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flipped := 0
	for _, msg := range s.messages {
		if msg.ReceiverID == readerID && msg.SenderID == otherPartyID && !msg.Read {
			msg.Read = true
			flipped++
		}
	}
	return flipped, nil
}

// CountUnread counts unread messages addressed to the participant.
func (s *MemoryStore) CountUnread(ctx context.Context, participantID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, msg := range s.messages {
		if msg.ReceiverID == participantID && !msg.Read {
			count++
		}
	}
	return count, nil
}
