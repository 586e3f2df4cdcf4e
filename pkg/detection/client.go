package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	// FramePath is the service endpoint tuned for video frames.
	FramePath = "/detect-video-frame"

	// ImagePath is the full-resolution endpoint.
	ImagePath = "/detect"
)

// ClientConfig configures the HTTP detection client.
type ClientConfig struct {
	BaseURL string
	Path    string
	Timeout time.Duration
	Logger  *slog.Logger
}

// DefaultClientConfig returns defaults matching a local YOLO service.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL: "http://localhost:5002",
		Path:    FramePath,
		Timeout: 5 * time.Second,
		Logger:  slog.Default(),
	}
}

// Client calls a YOLO detection service.
type Client struct {
	cfg    ClientConfig
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a detection service client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Path == "" {
		cfg.Path = FramePath
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: cfg.Logger.With("component", "detection.client"),
	}
}

type detectResponse struct {
	Detections []struct {
		ClassName  string    `json:"class_name"`
		Confidence float64   `json:"confidence"`
		BBox       []float64 `json:"bbox"`
	} `json:"detections"`
	Count int    `json:"count"`
	Error string `json:"error"`
}

// Detect uploads the frame as multipart field "image".
func (c *Client) Detect(ctx context.Context, jpeg []byte) ([]Detection, error) {
	if len(jpeg) == 0 {
		return nil, ErrEmptyFrame
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("detection: create form: %w", err)
	}
	if _, err := part.Write(jpeg); err != nil {
		return nil, fmt.Errorf("detection: write form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("detection: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+c.cfg.Path, &body)
	if err != nil {
		return nil, fmt.Errorf("detection: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, c.classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var out detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("detection: decode response: %w", err)
	}

	dets := make([]Detection, 0, len(out.Detections))
	for _, d := range out.Detections {
		if len(d.BBox) != 4 {
			continue
		}
		dets = append(dets, Detection{
			ClassName:  d.ClassName,
			Confidence: d.Confidence,
			Box:        Box{X: d.BBox[0], Y: d.BBox[1], W: d.BBox[2], H: d.BBox[3]},
		})
	}

	c.logger.Debug("frame detected", "count", len(dets), "latency_ms", time.Since(start).Milliseconds())
	return dets, nil
}

// Health checks that the service is up.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return c.classify(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// classify maps transport failures to ErrUnavailable.
func (c *Client) classify(err error) error {
	var netErr net.Error
	var opErr *net.OpError
	if errors.As(err, &opErr) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return fmt.Errorf("detection: %w", err)
}

func (c *Client) parseError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	msg := strings.TrimSpace(string(b))
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &e) == nil && e.Error != "" {
		msg = e.Error
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: msg}
	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %w", ErrUnavailable, apiErr)
	}
	return apiErr
}

var _ Detector = (*Client)(nil)
