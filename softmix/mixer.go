// Package softmix ships a pure-Go core.Mixer: a reference DSP engine
// that sums each enabled track's buffer, scaled by its last-pushed
// volume, into the worker's mix buffer. It exists so fastmixerd can
// run end-to-end without a cgo-backed DSP engine.
package softmix

import (
	"fmt"
	"unsafe"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/core"
)

type trackState struct {
	provider core.BufferProvider
	enabled  bool
	volL     uint16
	volR     uint16
	dst      []int16
}

// Mixer is a software implementation of core.Mixer. It is driven from
// exactly one goroutine (the real-time worker) and is not safe for
// concurrent use, matching every other collaborator on the render
// path.
type Mixer struct {
	frameCount int
	tracks     []*trackState
	free       []int32
}

// New returns a MixerFactory suitable for fastmixer.New, building
// software Mixers sized to whatever frameCount/sampleRate/maxTracks
// the worker requests.
func New() core.MixerFactory {
	return func(frameCount, sampleRate, maxTracks int) (core.Mixer, error) {
		m := &Mixer{
			frameCount: frameCount,
			tracks:     make([]*trackState, maxTracks),
			free:       make([]int32, maxTracks),
		}
		for i := 0; i < maxTracks; i++ {
			m.free[i] = int32(maxTracks - 1 - i)
		}
		return m, nil
	}
}

func (m *Mixer) track(name int32) *trackState {
	if name < 0 || int(name) >= len(m.tracks) {
		return nil
	}
	return m.tracks[name]
}

// GetTrackName implements core.Mixer.
func (m *Mixer) GetTrackName() int32 {
	if len(m.free) == 0 {
		return -1
	}
	name := m.free[len(m.free)-1]
	m.free = m.free[:len(m.free)-1]
	m.tracks[name] = &trackState{volL: core.UnityVolume, volR: core.UnityVolume}
	return name
}

// DeleteTrackName implements core.Mixer.
func (m *Mixer) DeleteTrackName(name int32) {
	if m.track(name) == nil {
		return
	}
	m.tracks[name] = nil
	m.free = append(m.free, name)
}

// SetBufferProvider implements core.Mixer.
func (m *Mixer) SetBufferProvider(name int32, provider core.BufferProvider) {
	if t := m.track(name); t != nil {
		t.provider = provider
	}
}

// SetParameter implements core.Mixer. ParamFieldMainBuffer's opaque
// value is the worker's mix buffer address, recovered via
// unsafe.Pointer; ParamFieldVolume0/1 are packed per-channel gains on
// the same 0x1000-is-unity scale as core.UnityVolume.
func (m *Mixer) SetParameter(name int32, group core.ParamGroup, field core.ParamField, opaque uint64) error {
	t := m.track(name)
	if t == nil {
		return fmt.Errorf("softmix: unknown track name %d", name)
	}
	switch {
	case group == core.ParamGroupTrack && field == core.ParamFieldMainBuffer:
		t.dst = bufferFromAddr(opaque, m.frameCount*2)
	case group == core.ParamGroupVolume && field == core.ParamFieldVolume0:
		t.volL = uint16(opaque)
	case group == core.ParamGroupVolume && field == core.ParamFieldVolume1:
		t.volR = uint16(opaque)
	default:
		return fmt.Errorf("softmix: unsupported parameter group=%d field=%d", group, field)
	}
	return nil
}

// Enable implements core.Mixer.
func (m *Mixer) Enable(name int32) {
	if t := m.track(name); t != nil {
		t.enabled = true
	}
}

// Process implements core.Mixer: it zeros each distinct destination
// buffer exactly once, then additively mixes every enabled track's
// current GetBuffer output into it, clamping on overflow.
func (m *Mixer) Process(pts int64) error {
	zeroed := make(map[*int16]bool, len(m.tracks))

	for _, t := range m.tracks {
		if t == nil || !t.enabled || t.provider == nil || len(t.dst) == 0 {
			continue
		}
		if !zeroed[&t.dst[0]] {
			for i := range t.dst {
				t.dst[i] = 0
			}
			zeroed[&t.dst[0]] = true
		}

		src := t.provider.GetBuffer(m.frameCount)
		n := len(src)
		if n > len(t.dst) {
			n = len(t.dst)
		}
		for i := 0; i < n; i += 2 {
			t.dst[i] = clampInt16(int32(t.dst[i]) + int32(src[i])*int32(t.volL)/int32(core.UnityVolume))
			if i+1 < n {
				t.dst[i+1] = clampInt16(int32(t.dst[i+1]) + int32(src[i+1])*int32(t.volR)/int32(core.UnityVolume))
			}
		}
	}
	return nil
}

func clampInt16(v int32) int16 {
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	default:
		return int16(v)
	}
}

// bufferFromAddr reconstructs the worker's mix buffer from the opaque
// address engine.bufferAddr derived from it. Valid only within the
// same process and only while the worker still owns that buffer.
func bufferFromAddr(addr uint64, length int) []int16 {
	if addr == 0 || length <= 0 {
		return nil
	}
	return unsafe.Slice((*int16)(unsafe.Pointer(uintptr(addr))), length)
}
