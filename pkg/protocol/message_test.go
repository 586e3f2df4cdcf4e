package protocol

import (
	"testing"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    any
	}{
		{"location", TypeLocation, LocationData{Lat: 40.7, Lon: -74}},
		{"beep", TypeBeep, BeepData{IntervalMs: 350}},
		{"nil data", TypePing, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if err != nil {
				t.Fatalf("NewMessage() error = %v", err)
			}
			if msg.Type != tt.msgType {
				t.Errorf("type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("timestamp should be set")
			}
			if tt.data == nil && msg.Data != nil {
				t.Errorf("data = %s, want nil", msg.Data)
			}
		})
	}
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    MessageType
		wantErr bool
	}{
		{"location", `{"type":"location","data":{"lat":1,"lon":2}}`, TypeLocation, false},
		{"no type", `{"data":{}}`, "", true},
		{"garbage", `not json`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseMessage([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && msg.Type != tt.want {
				t.Errorf("type = %v, want %v", msg.Type, tt.want)
			}
		})
	}
}

func TestLocationError(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"type":"location","data":{"error":"permission_denied"}}`))
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	loc, err := msg.GetLocationData()
	if err != nil {
		t.Fatalf("GetLocationData() error = %v", err)
	}
	if loc.Error != LocationPermissionDenied {
		t.Errorf("error = %q, want %q", loc.Error, LocationPermissionDenied)
	}
}

func TestFrameMessage(t *testing.T) {
	jpegData := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}

	msg, err := NewFrameMessage(640, 480, jpegData, 1)
	if err != nil {
		t.Fatalf("NewFrameMessage() error = %v", err)
	}

	raw, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	parsed, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}

	frame, err := parsed.GetFrameData()
	if err != nil {
		t.Fatalf("GetFrameData() error = %v", err)
	}
	if frame.Width != 640 || frame.Format != "jpeg" {
		t.Errorf("frame = %+v", frame)
	}

	decoded, err := frame.DecodeFrameData()
	if err != nil {
		t.Fatalf("DecodeFrameData() error = %v", err)
	}
	if len(decoded) != len(jpegData) {
		t.Errorf("decoded length = %v, want %v", len(decoded), len(jpegData))
	}
}

func TestPongMessage(t *testing.T) {
	msg, err := NewPongMessage("abc", 1000, 1025)
	if err != nil {
		t.Fatalf("NewPongMessage() error = %v", err)
	}
	var pong PongData
	if err := msg.ParseData(&pong); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if pong.LatencyMs != 25 || pong.ID != "abc" {
		t.Errorf("pong = %+v", pong)
	}
}
