// Package protocol defines the WebSocket messages exchanged between the
// navigation server and its web clients.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Client → server
	TypeLocation   MessageType = "location"   // position fix or geolocation error
	TypeFrame      MessageType = "frame"      // camera frame
	TypeTranscript MessageType = "transcript" // recognized speech text

	// Server → client
	TypeSpeech       MessageType = "speech"        // text for client speech synthesis
	TypeAudio        MessageType = "audio"         // synthesized audio clip
	TypeSpeechCancel MessageType = "speech_cancel" // stop an utterance
	TypeBeep         MessageType = "beep"          // proximity beep
	TypeState        MessageType = "state"         // navigation state snapshot
	TypeLog          MessageType = "log"           // activity log line

	// Bidirectional
	TypePing MessageType = "ping"
	TypePong MessageType = "pong"
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data any) (*Message, error) {
	var raw json.RawMessage
	if data != nil {
		var err error
		raw, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal %s data: %w", msgType, err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      raw,
	}, nil
}

// ParseData unmarshals the message data into v.
func (m *Message) ParseData(v any) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("parse message: missing type")
	}
	return &msg, nil
}

// Geolocation error codes reported by clients.
const (
	LocationPermissionDenied = "permission_denied"
	LocationUnavailable      = "unavailable"
	LocationTimeout          = "timeout"
)

// LocationData is a position fix, or an error when Error is set.
type LocationData struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Accuracy float64 `json:"accuracy,omitempty"` // meters
	Heading  float64 `json:"heading,omitempty"`  // degrees from north
	Error    string  `json:"error,omitempty"`
}

// FrameData contains one camera frame
type FrameData struct {
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Format  string `json:"format"` // "jpeg"
	Data    string `json:"data"`   // base64 encoded
	FrameID uint64 `json:"frame_id,omitempty"`
}

// TranscriptData is recognized speech from the client.
type TranscriptData struct {
	Text string `json:"text"`
}

// BeepData asks the client to beep once.
type BeepData struct {
	IntervalMs int64 `json:"interval_ms,omitempty"`
}

// LogData is one activity log line.
type LogData struct {
	Level   string `json:"level"` // info, speech, warn, error
	Message string `json:"message"`
}

// PingData contains ping information
type PingData struct {
	ID string `json:"id"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
