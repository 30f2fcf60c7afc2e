// Package config loads and validates the YAML configuration for the
// fastmixerd demo binary: sink selection, the fixed-cycle frame
// geometry, and the set of fixture tracks to mix.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the complete fastmixerd configuration.
type Config struct {
	InstanceID string       `yaml:"instance_id"`
	Cycle      CycleConfig  `yaml:"cycle"`
	Sink       SinkConfig   `yaml:"sink"`
	Tracks     []TrackEntry `yaml:"tracks"`
}

// CycleConfig fixes the render cycle's frame geometry.
type CycleConfig struct {
	FrameCount int `yaml:"frame_count"`
	SampleRate int `yaml:"sample_rate"`
}

// SinkConfig selects and configures the output sink.
type SinkConfig struct {
	// Kind is one of "speaker" (realtime oto output) or "wav" (file
	// capture).
	Kind string `yaml:"kind"`
	// Path is the output file path when Kind is "wav".
	Path string `yaml:"path,omitempty"`
}

// TrackEntry describes one fixture track to add at startup.
type TrackEntry struct {
	// Kind is one of "sine" or "wav".
	Kind string `yaml:"kind"`
	// FreqHz and AmplitudeDB apply when Kind is "sine".
	FreqHz      float64 `yaml:"freq_hz,omitempty"`
	AmplitudeDB float64 `yaml:"amplitude_db,omitempty"`
	// Path applies when Kind is "wav".
	Path string `yaml:"path,omitempty"`
	// VolumeL and VolumeR are packed-scale channel gains
	// (core.UnityVolume is unity); both default to unity if omitted.
	VolumeL uint16 `yaml:"volume_l,omitempty"`
	VolumeR uint16 `yaml:"volume_r,omitempty"`
}

// Load reads and parses path, then validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
