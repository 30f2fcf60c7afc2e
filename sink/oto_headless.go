//go:build headless

package sink

import "github.com/STS-Dev-Team/platform-frameworks-av/internal/core"

// Oto is the headless stand-in used when built with -tags headless
// (CI, containers with no audio device): it discards everything
// written to it instead of opening a real oto context.
type Oto struct {
	format core.Format
}

// NewOto returns a headless Oto that reports sampleRate but never
// opens a device.
func NewOto(sampleRate int) (*Oto, error) {
	return &Oto{format: core.Format{SampleRate: sampleRate, ChannelCount: 2}}, nil
}

func (s *Oto) Format() (core.Format, error) { return s.format, nil }

func (s *Oto) Write(buf []int16, frames int) int { return frames }

func (s *Oto) Close() error { return nil }
