package websocket

// Lifecycle topics published by the bridge. The presence service subscribes
// to these to maintain the online indicator.
const (
	// TopicClientConnected is published when a client connects and joins
	// its personal room. Payload: {userID, connectionID}.
	TopicClientConnected = "ws.client.connected"

	// TopicClientDisconnected is published when a client disconnects.
	// Payload: {userID, connectionID}.
	TopicClientDisconnected = "ws.client.disconnected"
)

// EventJoin is the reserved client event that subscribes the connection to
// an additional room. Every connection is joined to its personal room
// (named by the participant ID) automatically.
const EventJoin = "join"
