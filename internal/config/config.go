package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderConfig describes which capture provider to use.
// Type selects a concrete implementation (e.g., "simulated").
type ProviderConfig struct {
	Type        string             `yaml:"type"`                  // e.g., "simulated"
	Resolutions []ResolutionConfig `yaml:"resolutions,omitempty"` // advertised options; empty = provider defaults
	WithPose    bool               `yaml:"with_pose"`             // synthetic frames carry location data
	LatencyMs   int                `yaml:"latency_ms"`            // artificial async latency (ms)
}

// ResolutionConfig is one capture resolution option in pixels.
type ResolutionConfig struct {
	WidthPx  int `yaml:"width_px"`  // e.g., 1920
	HeightPx int `yaml:"height_px"` // e.g., 1080
}

// PrefabConfig describes the surface template photos land on.
type PrefabConfig struct {
	Name  string `yaml:"name"`  // prefab name, e.g. "PhotoQuad"
	Child string `yaml:"child"` // child render target name, e.g. "Quad"

	// Default world position instances start with (used when a frame
	// carries no location data).
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// ShutterConfig describes the shutter cue hardware.
type ShutterConfig struct {
	Enabled bool `yaml:"enabled"`  // play an audible cue per photo
	Pin     int  `yaml:"pin"`      // GPIO pin for the buzzer SIGNAL line
	PulseMs int  `yaml:"pulse_ms"` // buzzer hold time (ms)
	// Note: GND is physically connected to Raspberry Pi ground
}

// PrefsConfig locates the preference record.
type PrefsConfig struct {
	Path string `yaml:"path"` // backing file, created on first use
}

// DefaultsConfig contains generic parameters (vignette, debug, etc.).
type DefaultsConfig struct {
	VignetteScale float64 `yaml:"vignette_scale"` // scalar bound on photo materials (0-1)
	DebugLevel    int     `yaml:"debug_level"`    // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	MockGPIO      bool    `yaml:"mock_gpio"`      // use mock GPIO (true=dev/test, false=real Raspberry Pi)
}

// Config aggregates all application configuration.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Prefab   PrefabConfig   `yaml:"prefab"`
	Shutter  ShutterConfig  `yaml:"shutter"`
	Prefs    PrefsConfig    `yaml:"prefs"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	// Basic validation
	if cfg.Provider.Type == "" {
		return nil, fmt.Errorf("provider.type is required")
	}
	for i, r := range cfg.Provider.Resolutions {
		if r.WidthPx <= 0 || r.HeightPx <= 0 {
			return nil, fmt.Errorf("provider.resolutions[%d]: width_px and height_px must be > 0", i)
		}
	}
	if cfg.Provider.LatencyMs < 0 {
		return nil, fmt.Errorf("provider.latency_ms must be >= 0, got %d", cfg.Provider.LatencyMs)
	}
	if cfg.Defaults.VignetteScale < 0 || cfg.Defaults.VignetteScale > 1 {
		return nil, fmt.Errorf("vignette_scale must be between 0 and 1, got %.2f", cfg.Defaults.VignetteScale)
	}
	if cfg.Shutter.Enabled && cfg.Shutter.Pin <= 0 {
		return nil, fmt.Errorf("shutter.pin is required when shutter.enabled is set")
	}

	// Default values
	if cfg.Prefab.Name == "" {
		cfg.Prefab.Name = "PhotoQuad"
	}
	if cfg.Prefab.Child == "" {
		cfg.Prefab.Child = "Quad"
	}
	if cfg.Defaults.VignetteScale == 0 {
		cfg.Defaults.VignetteScale = 0.6 // matches the blend shader default
	}
	if cfg.Prefs.Path == "" {
		cfg.Prefs.Path = "snapgo_prefs.yaml"
	}
	if cfg.Shutter.PulseMs <= 0 {
		cfg.Shutter.PulseMs = 50 // short audible click
	}

	return &cfg, nil
}

// Latency returns the simulated provider's artificial delay.
func (c *Config) Latency() time.Duration {
	return time.Duration(c.Provider.LatencyMs) * time.Millisecond
}

// ShutterPulse returns the buzzer hold duration per cue.
func (c *Config) ShutterPulse() time.Duration {
	return time.Duration(c.Shutter.PulseMs) * time.Millisecond
}
