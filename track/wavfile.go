package track

import (
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WavFile is a core.BufferProvider that plays a 16-bit WAV file once
// and then reports exhaustion by returning a shorter-than-requested
// (and eventually empty) buffer, per the BufferProvider contract.
type WavFile struct {
	file    *os.File
	decoder *wav.Decoder
	intBuf  *audio.IntBuffer
	out     []int16
	done    bool
}

// OpenWavFile opens path and prepares it for sequential GetBuffer
// reads. The caller must call Close when the track is retired.
func OpenWavFile(path string) (*WavFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, err
	}
	return &WavFile{
		file:    f,
		decoder: dec,
		intBuf: &audio.IntBuffer{
			Format: &audio.Format{NumChannels: 2, SampleRate: int(dec.SampleRate)},
		},
	}, nil
}

// GetBuffer implements core.BufferProvider. Once the file is
// exhausted it returns an empty slice on every subsequent call.
func (w *WavFile) GetBuffer(frameCount int) []int16 {
	if w.done {
		return nil
	}

	samples := frameCount * 2
	if cap(w.intBuf.Data) < samples {
		w.intBuf.Data = make([]int, samples)
	}
	w.intBuf.Data = w.intBuf.Data[:samples]

	n, err := w.decoder.PCMBuffer(w.intBuf)
	if err != nil && err != io.EOF {
		w.done = true
		return nil
	}
	if n == 0 || err == io.EOF {
		w.done = true
	}

	if cap(w.out) < n {
		w.out = make([]int16, n)
	}
	w.out = w.out[:n]
	for i := 0; i < n; i++ {
		w.out[i] = int16(w.intBuf.Data[i])
	}
	return w.out
}

// Close releases the underlying file.
func (w *WavFile) Close() error {
	return w.file.Close()
}
