package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
	"github.com/venturelink/venturelink/internal/database"
)

// messageRecord is the SurrealDB row shape. Timestamps travel as
// RFC3339Nano strings; the record ID is converted to the opaque string
// identifier the rest of the core uses.
type messageRecord struct {
	ID         *surrealmodels.RecordID `json:"id,omitempty"`
	SenderID   string                  `json:"senderId"`
	ReceiverID string                  `json:"receiverId"`
	Content    string                  `json:"content"`
	Read       bool                    `json:"read"`
	CreatedAt  string                  `json:"createdAt"`
}

func (r *messageRecord) toMessage() Message {
	createdAt, _ := time.Parse(time.RFC3339Nano, r.CreatedAt)
	id := ""
	if r.ID != nil {
		id = r.ID.String()
	}
	return Message{
		ID:         id,
		SenderID:   r.SenderID,
		ReceiverID: r.ReceiverID,
		Content:    r.Content,
		Read:       r.Read,
		CreatedAt:  createdAt,
	}
}

// SurrealStore is the durable Store implementation backed by SurrealDB.
type SurrealStore struct {
	db *surrealdb.DB

	// stampMu guards the monotonic timestamp. The coordinator is the only
	// writer, but REST fallbacks share the store too.
	stampMu   sync.Mutex
	lastStamp time.Time
}

var _ Store = (*SurrealStore)(nil)

// NewSurrealStore creates a new SurrealStore.
func NewSurrealStore(db *surrealdb.DB) *SurrealStore {
	return &SurrealStore{db: db}
}

func (s *SurrealStore) nextStamp() time.Time {
	s.stampMu.Lock()
	defer s.stampMu.Unlock()
	now := time.Now().UTC()
	if !now.After(s.lastStamp) {
		now = s.lastStamp.Add(time.Microsecond)
	}
	s.lastStamp = now
	return now
}

// Append validates and persists a new message. CREATE is a single atomic
// insert: the record exists with all fields or not at all.
func (s *SurrealStore) Append(ctx context.Context, senderID, receiverID, content string) (*Message, error) {
	if err := validateSend(senderID, receiverID, content); err != nil {
		return nil, err
	}

	query := `
		CREATE message CONTENT {
			senderId: $senderId,
			receiverId: $receiverId,
			content: $content,
			read: false,
			createdAt: $createdAt
		}
	`
	params := map[string]any{
		"senderId":   senderID,
		"receiverId": receiverID,
		"content":    content,
		"createdAt":  s.nextStamp().Format(time.RFC3339Nano),
	}

	records, err := database.Query[messageRecord](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: create returned no record", ErrUnavailable)
	}

	msg := records[0].toMessage()
	return &msg, nil
}

// ListConversation returns the unordered pair's messages in creation order.
func (s *SurrealStore) ListConversation(ctx context.Context, participantA, participantB string) ([]Message, error) {
	query := `
		SELECT * FROM message
		WHERE (senderId = $a AND receiverId = $b)
		   OR (senderId = $b AND receiverId = $a)
		ORDER BY createdAt ASC
	`
	params := map[string]any{"a": participantA, "b": participantB}

	records, err := database.Query[messageRecord](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	messages := make([]Message, 0, len(records))
	for i := range records {
		messages = append(messages, records[i].toMessage())
	}
	return messages, nil
}

// MarkRead flips one message to read. The reader must be the receiver.
func (s *SurrealStore) MarkRead(ctx context.Context, messageID, readerID string) (*Message, error) {
	query := "SELECT * FROM message WHERE id = <record> $id AND receiverId = $reader"
	params := map[string]any{"id": messageID, "reader": readerID}

	record, err := database.QueryOne[messageRecord](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if record == nil {
		return nil, ErrNotFound
	}
	if record.Read {
		msg := record.toMessage()
		return &msg, nil
	}

	update := "UPDATE message SET read = true WHERE id = <record> $id RETURN AFTER"
	updated, err := database.QueryOne[messageRecord](ctx, s.db, update, map[string]any{"id": messageID})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if updated == nil {
		return nil, ErrNotFound
	}

	msg := updated.toMessage()
	return &msg, nil
}

// MarkConversationRead bulk-flips the unread messages of one direction.
func (s *SurrealStore) MarkConversationRead(ctx context.Context, readerID, otherPartyID string) (int, error) {
	query := `
		UPDATE message SET read = true
		WHERE receiverId = $reader AND senderId = $other AND read = false
		RETURN AFTER
	`
	params := map[string]any{"reader": readerID, "other": otherPartyID}

	records, err := database.Query[messageRecord](ctx, s.db, query, params)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return len(records), nil
}

// CountUnread counts unread messages addressed to the participant.
func (s *SurrealStore) CountUnread(ctx context.Context, participantID string) (int, error) {
	type countRow struct {
		Count int `json:"count"`
	}

	query := "SELECT count() AS count FROM message WHERE receiverId = $p AND read = false GROUP ALL"
	params := map[string]any{"p": participantID}

	row, err := database.QueryOne[countRow](ctx, s.db, query, params)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if row == nil {
		return 0, nil
	}
	return row.Count, nil
}
