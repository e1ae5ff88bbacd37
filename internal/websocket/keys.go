package websocket

import "github.com/venturelink/venturelink/internal/registry"

// Registry keys for the bridge and its event router. Modules use the router
// key during Register to whitelist their client events, and the bridge key
// during Boot to fan events out.
var (
	BridgeKey = registry.Key[*Bridge]("websocket.bridge")
	RouterKey = registry.Key[*EventRouter]("websocket.router")
)
