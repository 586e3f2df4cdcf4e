package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-nain/pkg/protocol"
)

const (
	wsHandshakeTimeout = 10 * time.Second
	wsMinBackoff       = time.Second
	wsMaxBackoff       = 30 * time.Second
)

// WSSource reads fixes from a companion GPS device that streams location
// messages over a websocket, and pushes them into a Feed.
type WSSource struct {
	url    string
	feed   *Feed
	dialer *websocket.Dialer
	logger *slog.Logger
}

// NewWSSource creates a source for url.
func NewWSSource(url string, feed *Feed, logger *slog.Logger) *WSSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSSource{
		url:    url,
		feed:   feed,
		dialer: &websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout},
		logger: logger.With("component", "location.ws"),
	}
}

// Run connects and reads until ctx is done, reconnecting with backoff.
func (s *WSSource) Run(ctx context.Context) {
	backoff := wsMinBackoff
	for {
		start := time.Now()
		err := s.session(ctx)
		if ctx.Err() != nil {
			return
		}

		if time.Since(start) > wsMaxBackoff {
			backoff = wsMinBackoff
		}
		s.logger.Warn("gps stream disconnected", "error", err, "retry_in", backoff)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, wsMaxBackoff)
	}
}

func (s *WSSource) session(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.url, err)
	}
	defer conn.Close()

	s.logger.Info("gps stream connected", "url", s.url)

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		s.handle(data)
	}
}

func (s *WSSource) handle(data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		s.logger.Debug("ignoring malformed message", "error", err)
		return
	}
	if msg.Type != protocol.TypeLocation {
		return
	}

	ld, err := msg.GetLocationData()
	if err != nil {
		s.logger.Debug("ignoring bad location data", "error", err)
		return
	}

	at := time.Now()
	if msg.Timestamp > 0 {
		at = time.UnixMilli(msg.Timestamp)
	}

	sample, err := FromData(*ld, at)
	switch {
	case err == nil:
		s.feed.Put(sample)
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrUnavailable), errors.Is(err, ErrTimeout):
		s.feed.Fail(err)
	default:
		s.logger.Debug("ignoring fix", "error", err)
	}
}
