package protocol

import (
	"encoding/base64"
)

// NewFrameMessage creates a frame message from raw JPEG data
func NewFrameMessage(width, height int, jpegData []byte, frameID uint64) (*Message, error) {
	return NewMessage(TypeFrame, FrameData{
		Width:   width,
		Height:  height,
		Format:  "jpeg",
		Data:    base64.StdEncoding.EncodeToString(jpegData),
		FrameID: frameID,
	})
}

// NewLocationMessage creates a location fix message
func NewLocationMessage(lat, lon, accuracy float64) (*Message, error) {
	return NewMessage(TypeLocation, LocationData{Lat: lat, Lon: lon, Accuracy: accuracy})
}

// NewBeepMessage creates a beep message
func NewBeepMessage(intervalMs int64) (*Message, error) {
	return NewMessage(TypeBeep, BeepData{IntervalMs: intervalMs})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// GetLocationData extracts location data from a message
func (m *Message) GetLocationData() (*LocationData, error) {
	var data LocationData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetFrameData extracts frame data from a message
func (m *Message) GetFrameData() (*FrameData, error) {
	var data FrameData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// DecodeFrameData decodes the base64 image data
func (f *FrameData) DecodeFrameData() ([]byte, error) {
	return base64.StdEncoding.DecodeString(f.Data)
}

// GetTranscriptData extracts transcript data from a message
func (m *Message) GetTranscriptData() (*TranscriptData, error) {
	var data TranscriptData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
