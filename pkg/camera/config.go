package camera

import "fmt"

// Config configures a local capture device.
type Config struct {
	Device  int `json:"device" yaml:"device"`   // video device index
	Width   int `json:"width" yaml:"width"`     // output frame width in pixels
	Height  int `json:"height" yaml:"height"`   // output frame height in pixels
	Quality int `json:"quality" yaml:"quality"` // JPEG quality 1-100
}

// DefaultConfig matches the frame size the detector expects.
func DefaultConfig() Config {
	return Config{
		Device:  0,
		Width:   640,
		Height:  480,
		Quality: 80,
	}
}

// Validate returns a list of problems, empty when the config is usable.
func (c Config) Validate() []string {
	var errs []string
	if c.Device < 0 {
		errs = append(errs, fmt.Sprintf("device must be >= 0, got %d", c.Device))
	}
	if c.Width < 160 || c.Width > 1920 {
		errs = append(errs, fmt.Sprintf("width must be 160-1920, got %d", c.Width))
	}
	if c.Height < 120 || c.Height > 1080 {
		errs = append(errs, fmt.Sprintf("height must be 120-1080, got %d", c.Height))
	}
	if c.Quality < 1 || c.Quality > 100 {
		errs = append(errs, fmt.Sprintf("quality must be 1-100, got %d", c.Quality))
	}
	return errs
}
