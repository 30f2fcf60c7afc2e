// Package track ships core.BufferProvider and core.VolumeProvider
// fixtures for driving and testing a Worker without a full decoder
// pipeline: a sine oscillator, a WAV file reader, and static/ramped
// volume providers.
package track

import "math"

// Sine is a core.BufferProvider generating a stereo sine wave. Not
// safe for concurrent use; a single track's GetBuffer is always called
// from the worker's single rendering goroutine.
type Sine struct {
	sampleRate int
	freqHz     float64
	amplitude  float64
	phase      float64

	buf []int16
}

// NewSine returns a Sine oscillator at freqHz, scaled to amplitude
// (0..1] of full scale, sampled at sampleRate.
func NewSine(sampleRate int, freqHz, amplitude float64) *Sine {
	return &Sine{sampleRate: sampleRate, freqHz: freqHz, amplitude: amplitude}
}

// GetBuffer implements core.BufferProvider, writing frameCount stereo
// frames (both channels identical) and advancing the oscillator's
// phase across calls.
func (s *Sine) GetBuffer(frameCount int) []int16 {
	if cap(s.buf) < frameCount*2 {
		s.buf = make([]int16, frameCount*2)
	}
	s.buf = s.buf[:frameCount*2]

	step := 2 * math.Pi * s.freqHz / float64(s.sampleRate)
	scale := s.amplitude * 32767.0
	for i := 0; i < frameCount; i++ {
		v := int16(scale * math.Sin(s.phase))
		s.buf[2*i] = v
		s.buf[2*i+1] = v

		s.phase += step
		if s.phase > 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
	}
	return s.buf
}
