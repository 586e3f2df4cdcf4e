package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Navigation.GuidanceInterval != 30*time.Second {
		t.Errorf("GuidanceInterval: got %v, want 30s", cfg.Navigation.GuidanceInterval)
	}
	if cfg.Navigation.GuidanceCooldown != 25*time.Second {
		t.Errorf("GuidanceCooldown: got %v, want 25s", cfg.Navigation.GuidanceCooldown)
	}
	if cfg.Navigation.DetectionInterval != 2*time.Second {
		t.Errorf("DetectionInterval: got %v, want 2s", cfg.Navigation.DetectionInterval)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nain.yaml")
	data := `
port: "9090"
navigation:
  detection_interval: 500ms
  guidance_cooldown: 40s
detection:
  backend: local
  obstacles: [person, bicycle]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port: got %q, want 9090", cfg.Port)
	}
	if cfg.Navigation.DetectionInterval != 500*time.Millisecond {
		t.Errorf("DetectionInterval: got %v, want 500ms", cfg.Navigation.DetectionInterval)
	}
	if cfg.Navigation.GuidanceCooldown != 40*time.Second {
		t.Errorf("GuidanceCooldown: got %v, want 40s", cfg.Navigation.GuidanceCooldown)
	}
	if cfg.Navigation.GuidanceInterval != 30*time.Second {
		t.Errorf("GuidanceInterval should keep default, got %v", cfg.Navigation.GuidanceInterval)
	}
	if cfg.Detection.Backend != "local" {
		t.Errorf("Backend: got %q, want local", cfg.Detection.Backend)
	}
	if len(cfg.Detection.Obstacles) != 2 {
		t.Errorf("Obstacles: got %v", cfg.Detection.Obstacles)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("NAIN_PORT", "7000")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DETECTION_INTERVAL", "3s")
	t.Setenv("OBSTACLE_CLASSES", "person, car ,")

	cfg := DefaultConfig()
	cfg.LoadEnv()

	if cfg.Port != "7000" {
		t.Errorf("Port: got %q, want 7000", cfg.Port)
	}
	if cfg.LLMAPIKey != "sk-test" {
		t.Errorf("LLMAPIKey: got %q, want sk-test", cfg.LLMAPIKey)
	}
	if cfg.Navigation.DetectionInterval != 3*time.Second {
		t.Errorf("DetectionInterval: got %v, want 3s", cfg.Navigation.DetectionInterval)
	}
	if len(cfg.Detection.Obstacles) != 2 || cfg.Detection.Obstacles[1] != "car" {
		t.Errorf("Obstacles: got %v", cfg.Detection.Obstacles)
	}
	if cfg.Addr() != ":7000" {
		t.Errorf("Addr: got %q, want :7000", cfg.Addr())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown tts", func(c *Config) { c.TTSMode = "robot" }, "TTSMode"},
		{"openai without key", func(c *Config) { c.TTSMode = "openai" }, "LLMAPIKey"},
		{"bad backend", func(c *Config) { c.Detection.Backend = "cloud" }, "Detection.Backend"},
		{"zero interval", func(c *Config) { c.Navigation.DetectionInterval = 0 }, "Navigation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field: got %q, want %q", ce.Field, tt.field)
			}
		})
	}
}
