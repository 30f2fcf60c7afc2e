package sink

import (
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/core"
)

// Wav is a core.Sink that appends every Write to a 16-bit stereo WAV
// file. Intended for offline capture and golden-output testing rather
// than realtime playback.
type Wav struct {
	format  core.Format
	file    *os.File
	encoder *wav.Encoder
	buf     *audio.IntBuffer
}

// NewWav creates (truncating if it exists) a WAV file at path encoded
// at sampleRate, 16-bit stereo PCM.
func NewWav(path string, sampleRate int) (*Wav, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 2, 1)
	return &Wav{
		format:  core.Format{SampleRate: sampleRate, ChannelCount: 2},
		file:    f,
		encoder: enc,
		buf: &audio.IntBuffer{
			Format: &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		},
	}, nil
}

// Format implements core.Sink.
func (s *Wav) Format() (core.Format, error) {
	return s.format, nil
}

// Write implements core.Sink, returning frames on success or a
// negative value if the encoder rejects the buffer.
func (s *Wav) Write(buf []int16, frames int) int {
	samples := frames * 2
	if samples > len(buf) {
		samples = len(buf)
	}
	if cap(s.buf.Data) < samples {
		s.buf.Data = make([]int, samples)
	}
	s.buf.Data = s.buf.Data[:samples]
	for i := 0; i < samples; i++ {
		s.buf.Data[i] = int(buf[i])
	}

	if err := s.encoder.Write(s.buf); err != nil {
		return -1
	}
	return samples / 2
}

// Close flushes the WAV header and closes the underlying file.
func (s *Wav) Close() error {
	if err := s.encoder.Close(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
