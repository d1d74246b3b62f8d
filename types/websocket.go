package types

import "encoding/json"

const (
	TypeWebsocketPing    = "ping"
	TypeWebsocketPong    = "pong"
	TypeWebsocketQuery   = "query"
	TypeWebsocketSources = "sources"
	TypeWebsocketDelta   = "delta"
	TypeWebsocketDone    = "done"
	TypeWebsocketError   = "error"
)

type WebsocketRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type WebsocketResponse struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// StreamHandler receives completion deltas as they arrive
type StreamHandler func(delta string)
