package messaging

// Wire event names shared with the client. The client-to-server events are
// whitelisted on the bridge's event router; the server-to-client events are
// delivered to participant rooms.
const (
	// EventSendMessage is the client request to send a message.
	EventSendMessage = "send_message"
	// EventReadMessages is the client request to mark a conversation read.
	EventReadMessages = "read_messages"

	// EventMessageSent acknowledges a persisted message to the sender's
	// own rooms, so all of the sender's open sessions stay in sync.
	EventMessageSent = "message_sent"
	// EventReceiveMessage delivers a persisted message to the receiver's rooms.
	EventReceiveMessage = "receive_message"
	// EventMessagesRead notifies the other party of a bulk read.
	EventMessagesRead = "messages_read"
	// EventSendFailed tells the originating sender that a send was rejected.
	EventSendFailed = "send_failed"
)

// Failure reasons carried by EventSendFailed.
const (
	ReasonInvalidMessage     = "invalid_message"
	ReasonStorageUnavailable = "storage_unavailable"
)

// SendRequest is the payload of EventSendMessage.
type SendRequest struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

// ReadRequest is the payload of EventReadMessages: the reader asks to mark
// everything contactId sent them as read.
type ReadRequest struct {
	UserID    string `json:"userId"`
	ContactID string `json:"contactId"`
}

// ReadReceipt is the payload of EventMessagesRead. It deliberately carries
// no message IDs: the other party flips all of its sent messages in the
// conversation at once.
type ReadReceipt struct {
	ByUserID  string `json:"byUserId"`
	ForUserID string `json:"forUserId"`
}

// SendFailure is the payload of EventSendFailed.
type SendFailure struct {
	Reason     string `json:"reason"`
	ReceiverID string `json:"receiverId,omitempty"`
}
