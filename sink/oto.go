//go:build !headless

// Package sink ships concrete core.Sink implementations: a realtime
// speaker output backed by oto/v3, and a file-backed WAV writer.
package sink

import (
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/core"
)

// ringBufferFrames sizes the buffer between Write (called from the
// render phase) and oto's pull-model Read callback (called from oto's
// own player goroutine) at roughly 100ms of stereo int16 audio.
const ringBufferFrames = 4800

// Oto is a core.Sink backed by an oto/v3 player. Write copies frames
// into a small ring buffer; oto's player goroutine drains it on its
// own schedule via Read. A full ring drops the newest frames rather
// than blocking the render phase.
type Oto struct {
	format core.Format

	ctx    *oto.Context
	player *oto.Player

	mu       sync.Mutex
	ring     []int16
	head     int
	tail     int
	count    int
	overflow bool
}

// NewOto opens an oto context at sampleRate (stereo, 16-bit) and
// starts a player pulling from its internal ring buffer.
func NewOto(sampleRate int) (*Oto, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   0,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	s := &Oto{
		format: core.Format{SampleRate: sampleRate, ChannelCount: 2},
		ctx:    ctx,
		ring:   make([]int16, ringBufferFrames*2),
	}
	s.player = ctx.NewPlayer(s)
	s.player.Play()
	return s, nil
}

// Format implements core.Sink.
func (s *Oto) Format() (core.Format, error) {
	return s.format, nil
}

// Write implements core.Sink. It never blocks: a ring buffer that is
// already full silently drops the overrun and reports fewer frames
// written than requested.
func (s *Oto) Write(buf []int16, frames int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	samples := frames * 2
	if samples > len(buf) {
		samples = len(buf)
	}

	free := len(s.ring) - s.count
	if samples > free {
		samples = free
		s.overflow = true
	}
	written := samples / 2

	for i := 0; i < samples; i++ {
		s.ring[s.tail] = buf[i]
		s.tail = (s.tail + 1) % len(s.ring)
	}
	s.count += samples

	return written
}

// Read implements io.Reader for oto's player, draining the ring buffer
// as interleaved little-endian int16 bytes and padding with silence
// once it runs dry.
func (s *Oto) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wantSamples := len(p) / 2
	n := 0
	for n < wantSamples && s.count > 0 {
		v := s.ring[s.head]
		s.head = (s.head + 1) % len(s.ring)
		s.count--

		p[2*n] = byte(v)
		p[2*n+1] = byte(v >> 8)
		n++
	}
	for i := 2 * n; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

// Close stops playback and releases the underlying oto player.
func (s *Oto) Close() error {
	s.player.Close()
	return nil
}
