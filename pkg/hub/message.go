// Package hub is a websocket broadcast hub for web clients, using the
// channel-based fan-out pattern.
package hub

import "github.com/teslashibe/go-nain/pkg/protocol"

// MessageType indicates the websocket message format
type MessageType int

const (
	// JSONMessage is a JSON-encoded message
	JSONMessage MessageType = iota
	// BinaryMessage is raw binary data
	BinaryMessage
)

// Message is one frame queued for clients
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage creates a JSON message from pre-encoded bytes
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage creates a binary message
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}

// Handler receives messages sent by clients.
type Handler func(clientID string, msg *protocol.Message)
