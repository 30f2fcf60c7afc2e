package config

import (
	"fmt"
	"regexp"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/core"
)

var instanceIDPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

// Validate checks cfg for internal consistency and fills in defaults.
// Bad configuration should never reach the worker loop.
func Validate(cfg *Config) error {
	if cfg.InstanceID == "" {
		return fmt.Errorf("instance_id is required")
	}
	if !instanceIDPattern.MatchString(cfg.InstanceID) {
		return fmt.Errorf("instance_id must match pattern [a-z0-9-]+")
	}

	if cfg.Cycle.FrameCount <= 0 {
		return fmt.Errorf("cycle.frame_count must be > 0")
	}
	if cfg.Cycle.SampleRate <= 0 {
		return fmt.Errorf("cycle.sample_rate must be > 0")
	}

	switch cfg.Sink.Kind {
	case "speaker":
	case "wav":
		if cfg.Sink.Path == "" {
			return fmt.Errorf("sink.path is required when sink.kind is 'wav'")
		}
	case "":
		return fmt.Errorf("sink.kind is required")
	default:
		return fmt.Errorf("sink.kind %q: must be 'speaker' or 'wav'", cfg.Sink.Kind)
	}

	if len(cfg.Tracks) > core.MaxTracks {
		return fmt.Errorf("tracks: %d entries exceeds the %d-track limit", len(cfg.Tracks), core.MaxTracks)
	}

	for i, t := range cfg.Tracks {
		switch t.Kind {
		case "sine":
			if t.FreqHz <= 0 {
				return fmt.Errorf("tracks[%d]: freq_hz must be > 0 for a sine track", i)
			}
		case "wav":
			if t.Path == "" {
				return fmt.Errorf("tracks[%d]: path is required for a wav track", i)
			}
		default:
			return fmt.Errorf("tracks[%d]: kind %q: must be 'sine' or 'wav'", i, t.Kind)
		}
		if t.VolumeL == 0 {
			t.VolumeL = core.UnityVolume
		}
		if t.VolumeR == 0 {
			t.VolumeR = core.UnityVolume
		}
		cfg.Tracks[i] = t
	}

	return nil
}
