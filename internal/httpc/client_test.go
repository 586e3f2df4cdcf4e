package httpc

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != UserAgent {
			t.Errorf("User-Agent: got %q, want %q", r.Header.Get("User-Agent"), UserAgent)
		}
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"name":"library"}`)
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	t.Run("decodes body", func(t *testing.T) {
		var out struct {
			Name string `json:"name"`
		}
		if err := GetJSON(context.Background(), srv.Client(), srv.URL+"/ok", &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Name != "library" {
			t.Errorf("Name: got %q, want library", out.Name)
		}
	})

	t.Run("status error", func(t *testing.T) {
		var out map[string]any
		err := GetJSON(context.Background(), srv.Client(), srv.URL+"/missing", &out)
		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("expected *StatusError, got %v", err)
		}
		if se.StatusCode != http.StatusNotFound {
			t.Errorf("StatusCode: got %d, want 404", se.StatusCode)
		}
	})
}

func TestPostSendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if string(b) != "payload" {
			t.Errorf("body: got %q, want payload", b)
		}
		if ct := r.Header.Get("Content-Type"); ct != "text/plain" {
			t.Errorf("Content-Type: got %q, want text/plain", ct)
		}
	}))
	defer srv.Close()

	resp, err := Post(context.Background(), srv.URL, "text/plain", []byte("payload"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
}
