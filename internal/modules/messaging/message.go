package messaging

import (
	"fmt"
	"strings"
	"time"
)

// Message is the only durable entity of the messaging core. A conversation
// is derived, never stored: it is the unordered pair {SenderID, ReceiverID}
// and retrieval always re-filters on the pair.
//
// Once created, SenderID, ReceiverID, Content and CreatedAt are immutable.
// The Read flag is monotone: false to true, never back.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"createdAt"`
}

// validateSend checks the append invariants: both participants present,
// distinct, and non-empty content. Violations are reported as ErrValidation
// before anything is persisted.
func validateSend(senderID, receiverID, content string) error {
	if senderID == "" || receiverID == "" {
		return fmt.Errorf("%w: sender and receiver are required", ErrValidation)
	}
	if senderID == receiverID {
		return fmt.Errorf("%w: sender and receiver must differ", ErrValidation)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: content must not be empty", ErrValidation)
	}
	return nil
}
