package camera

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// Device captures frames from a local camera with OpenCV.
type Device struct {
	cfg    Config
	logger *slog.Logger

	mu  sync.Mutex
	cap *gocv.VideoCapture
	img gocv.Mat
}

// OpenDevice opens the camera described by cfg.
func OpenDevice(cfg Config, logger *slog.Logger) (*Device, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera: invalid config: %s", strings.Join(errs, "; "))
	}
	if logger == nil {
		logger = slog.Default()
	}

	vc, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("camera: open device %d: %w", cfg.Device, err)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))

	d := &Device{
		cfg:    cfg,
		logger: logger.With("component", "camera.device"),
		cap:    vc,
		img:    gocv.NewMat(),
	}
	d.logger.Info("camera opened", "device", cfg.Device, "width", cfg.Width, "height", cfg.Height)
	return d, nil
}

// Frame captures one frame and encodes it as JPEG at the configured size.
func (d *Device) Frame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cap == nil {
		return nil, ErrNoFrame
	}
	if ok := d.cap.Read(&d.img); !ok || d.img.Empty() {
		return nil, ErrNoFrame
	}

	out := d.img
	if d.img.Cols() != d.cfg.Width || d.img.Rows() != d.cfg.Height {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(d.img, &resized, image.Pt(d.cfg.Width, d.cfg.Height), 0, 0, gocv.InterpolationLinear)
		out = resized
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, out, []int{gocv.IMWriteJpegQuality, d.cfg.Quality})
	if err != nil {
		return nil, fmt.Errorf("camera: encode jpeg: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases C memory that Close frees.
	return append([]byte(nil), buf.GetBytes()...), nil
}

// Close releases the device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cap == nil {
		return nil
	}
	d.img.Close()
	err := d.cap.Close()
	d.cap = nil
	return err
}

var _ Source = (*Device)(nil)
