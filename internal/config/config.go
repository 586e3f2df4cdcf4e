// Package config loads go-nain configuration from defaults, an optional
// YAML tunables file, a .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default service endpoints.
const (
	DefaultPort         = "8080"
	DefaultRoutingURL   = "https://router.project-osrm.org"
	DefaultGeocoderURL  = "https://nominatim.openstreetmap.org"
	DefaultPlacesURL    = "https://overpass-api.de/api/interpreter"
	DefaultDetectionURL = "http://localhost:5002"
	DefaultWhisperURL   = "http://localhost:5001"
	DefaultLLMBaseURL   = "https://api.openai.com/v1"
	DefaultLLMModel     = "gpt-4o-mini"
)

// Config holds all runtime configuration.
type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	Services   Services   `yaml:"services"`
	Navigation Navigation `yaml:"navigation"`
	Detection  Detection  `yaml:"detection"`

	// TTSMode selects spoken output: "browser" broadcasts text to web
	// clients, "openai" synthesizes server-side.
	TTSMode  string `yaml:"tts_mode"`
	TTSVoice string `yaml:"tts_voice"`

	// Secrets only come from the environment.
	LLMAPIKey   string `yaml:"-"`
	DatabaseURL string `yaml:"-"`
}

// Services lists collaborator endpoints.
type Services struct {
	RoutingURL       string `yaml:"routing_url"`
	GeocoderURL      string `yaml:"geocoder_url"`
	GeocodeCachePath string `yaml:"geocode_cache_path"`
	PlacesURL        string `yaml:"places_url"`
	DetectionURL     string `yaml:"detection_url"`
	WhisperURL       string `yaml:"whisper_url"`
	LLMBaseURL       string `yaml:"llm_base_url"`
	LLMModel         string `yaml:"llm_model"`
	LocationWSURL    string `yaml:"location_ws_url"`
}

// Navigation holds session timing tunables.
type Navigation struct {
	DetectionInterval time.Duration `yaml:"detection_interval"`
	GuidanceInterval  time.Duration `yaml:"guidance_interval"`
	GuidanceCooldown  time.Duration `yaml:"guidance_cooldown"`
	InsightsDelay     time.Duration `yaml:"insights_delay"`
	FirstStepDelay    time.Duration `yaml:"first_step_delay"`
	FirstStepLate     time.Duration `yaml:"first_step_delay_with_insights"`
	LocationTimeout   time.Duration `yaml:"location_timeout"`
	PlacesRadius      float64       `yaml:"places_radius_meters"`
}

// Detection configures the object detection backend.
type Detection struct {
	// Backend is "http" (YOLO service) or "local" (gocv ONNX model).
	Backend   string   `yaml:"backend"`
	ModelPath string   `yaml:"model_path"`
	Camera    string   `yaml:"camera"`
	Obstacles []string `yaml:"obstacles"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:     DefaultPort,
		LogLevel: "info",
		Services: Services{
			RoutingURL:       DefaultRoutingURL,
			GeocoderURL:      DefaultGeocoderURL,
			GeocodeCachePath: "geocode_cache.db",
			PlacesURL:        DefaultPlacesURL,
			DetectionURL:     DefaultDetectionURL,
			WhisperURL:       DefaultWhisperURL,
			LLMBaseURL:       DefaultLLMBaseURL,
			LLMModel:         DefaultLLMModel,
		},
		Navigation: Navigation{
			DetectionInterval: 2 * time.Second,
			GuidanceInterval:  30 * time.Second,
			GuidanceCooldown:  25 * time.Second,
			InsightsDelay:     3 * time.Second,
			FirstStepDelay:    5 * time.Second,
			FirstStepLate:     10 * time.Second,
			LocationTimeout:   10 * time.Second,
			PlacesRadius:      1500,
		},
		Detection: Detection{
			Backend:   "http",
			ModelPath: "yolov8n.onnx",
		},
		TTSMode: "browser",
	}
}

// Load builds the configuration. path may be empty; a missing .env is ignored.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return cfg, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	cfg.LoadEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile overlays values from a YAML file.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// LoadEnv applies environment overrides.
func (c *Config) LoadEnv() {
	setString(&c.Port, "NAIN_PORT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.TTSMode, "TTS_MODE")
	setString(&c.TTSVoice, "TTS_VOICE")

	setString(&c.Services.RoutingURL, "ROUTING_URL")
	setString(&c.Services.GeocoderURL, "GEOCODER_URL")
	setString(&c.Services.GeocodeCachePath, "GEOCODE_CACHE_PATH")
	setString(&c.Services.PlacesURL, "PLACES_URL")
	setString(&c.Services.DetectionURL, "DETECTION_URL")
	setString(&c.Services.WhisperURL, "WHISPER_URL")
	setString(&c.Services.LLMBaseURL, "LLM_BASE_URL")
	setString(&c.Services.LLMModel, "LLM_MODEL")
	setString(&c.Services.LocationWSURL, "LOCATION_WS_URL")

	setString(&c.Detection.Backend, "DETECTION_BACKEND")
	setString(&c.Detection.ModelPath, "YOLO_MODEL_PATH")
	setString(&c.Detection.Camera, "CAMERA_DEVICE")
	if v := os.Getenv("OBSTACLE_CLASSES"); v != "" {
		c.Detection.Obstacles = splitList(v)
	}

	setDuration(&c.Navigation.DetectionInterval, "DETECTION_INTERVAL")
	setDuration(&c.Navigation.GuidanceInterval, "GUIDANCE_INTERVAL")
	setDuration(&c.Navigation.GuidanceCooldown, "GUIDANCE_COOLDOWN")
	if v := os.Getenv("PLACES_RADIUS_METERS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Navigation.PlacesRadius = f
		}
	}

	c.LLMAPIKey = os.Getenv("LLM_API_KEY")
	if c.LLMAPIKey == "" {
		c.LLMAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	c.DatabaseURL = os.Getenv("DATABASE_URL")
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Port == "" {
		return &ConfigError{Field: "Port", Message: "port must not be empty"}
	}
	switch c.TTSMode {
	case "browser":
	case "openai":
		if c.LLMAPIKey == "" {
			return &ConfigError{Field: "LLMAPIKey", Message: "OPENAI_API_KEY is required for openai TTS"}
		}
	default:
		return &ConfigError{Field: "TTSMode", Message: fmt.Sprintf("unknown tts mode %q", c.TTSMode)}
	}
	switch c.Detection.Backend {
	case "http", "local", "none":
	default:
		return &ConfigError{Field: "Detection.Backend", Message: fmt.Sprintf("unknown detection backend %q", c.Detection.Backend)}
	}
	if c.Navigation.DetectionInterval <= 0 || c.Navigation.GuidanceInterval <= 0 {
		return &ConfigError{Field: "Navigation", Message: "polling intervals must be positive"}
	}
	return nil
}

// Addr returns the listen address for the web server.
func (c *Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
