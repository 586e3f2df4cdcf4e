package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWhisperTranscribe(t *testing.T) {
	var gotName string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		f, hdr, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		gotName = hdr.Filename
		gotBody, _ = io.ReadAll(f)
		json.NewEncoder(w).Encode(map[string]any{
			"transcription": "  take me to the library ",
			"language":      "en",
			"success":       true,
		})
	}))
	defer srv.Close()

	w := NewWhisper(Config{BaseURL: srv.URL + "/"})
	text, err := w.Transcribe(context.Background(), []byte("RIFFdata"), "clip.wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "take me to the library" {
		t.Errorf("text = %q", text)
	}
	if gotName != "clip.wav" {
		t.Errorf("filename = %q", gotName)
	}
	if string(gotBody) != "RIFFdata" {
		t.Errorf("body = %q", gotBody)
	}
}

func TestWhisperErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{name: "empty transcription", status: 200, body: `{"transcription":"","success":true}`, wantErr: ErrNoSpeech},
		{name: "bad request", status: 400, body: `{"error":"No audio file provided"}`, wantMsg: "No audio file provided"},
		{name: "server error", status: 500, body: `{"error":"Transcription failed","details":"ffmpeg"}`, wantMsg: "Transcription failed: ffmpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewWhisper(Config{BaseURL: srv.URL}).Transcribe(context.Background(), []byte("x"), "")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want *APIError", err)
			}
			if apiErr.StatusCode != tt.status || apiErr.Message != tt.wantMsg {
				t.Errorf("got %d %q", apiErr.StatusCode, apiErr.Message)
			}
		})
	}
}

func TestWhisperEmptyAudio(t *testing.T) {
	_, err := NewWhisper(DefaultConfig()).Transcribe(context.Background(), nil, "a.webm")
	if !errors.Is(err, ErrEmptyAudio) {
		t.Errorf("err = %v, want ErrEmptyAudio", err)
	}
}

func TestWhisperHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		io.WriteString(w, `{"status":"healthy"}`)
	}))
	defer srv.Close()

	if err := NewWhisper(Config{BaseURL: srv.URL}).Health(context.Background()); err != nil {
		t.Errorf("Health: %v", err)
	}
}

func TestMock(t *testing.T) {
	m := NewMock("next")
	text, err := m.Transcribe(context.Background(), []byte("a"), "a.webm")
	if err != nil || text != "next" {
		t.Fatalf("got %q, %v", text, err)
	}
	if m.CallCount() != 1 {
		t.Errorf("CallCount = %d", m.CallCount())
	}
}
