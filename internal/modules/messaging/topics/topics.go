// Package topics defines the bus topics of the messaging module. The
// WebSocket bridge routes whitelisted client events onto these topics; the
// delivery coordinator subscribes to them.
package topics

const (
	// SendRequest carries a client's send_message request:
	// {senderId, receiverId, content}.
	SendRequest = "messaging.send.request"

	// ReadRequest carries a client's read_messages request:
	// {userId, contactId}.
	ReadRequest = "messaging.read.request"
)
