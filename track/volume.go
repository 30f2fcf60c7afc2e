package track

import "github.com/STS-Dev-Team/platform-frameworks-av/internal/core"

// StaticVolume is a core.VolumeProvider that always reports the same
// packed stereo volume.
type StaticVolume struct {
	packed uint32
}

// NewStaticVolume packs l and r (each a channel gain in the same
// 0x1000-is-unity scale as core.UnityVolume) into a StaticVolume.
func NewStaticVolume(l, r uint16) StaticVolume {
	return StaticVolume{packed: uint32(l) | uint32(r)<<16}
}

// GetVolumeLR implements core.VolumeProvider.
func (v StaticVolume) GetVolumeLR() uint32 { return v.packed }

// Ramp is a core.VolumeProvider that linearly interpolates from a
// starting to an ending packed volume over a fixed number of render
// cycles, then holds at the ending value. Used for click-free
// fade-in/fade-out on track add and remove.
type Ramp struct {
	fromL, fromR uint16
	toL, toR     uint16
	steps        int
	step         int
}

// NewRamp returns a Ramp that reaches (toL, toR) after steps calls to
// GetVolumeLR, starting from (fromL, fromR).
func NewRamp(fromL, fromR, toL, toR uint16, steps int) *Ramp {
	if steps < 1 {
		steps = 1
	}
	return &Ramp{fromL: fromL, fromR: fromR, toL: toL, toR: toR, steps: steps}
}

// GetVolumeLR implements core.VolumeProvider, advancing the ramp by
// one render cycle on each call.
func (r *Ramp) GetVolumeLR() uint32 {
	if r.step >= r.steps {
		return uint32(r.toL) | uint32(r.toR)<<16
	}

	frac := float64(r.step) / float64(r.steps)
	l := uint16(float64(r.fromL) + frac*float64(int(r.toL)-int(r.fromL)))
	rr := uint16(float64(r.fromR) + frac*float64(int(r.toR)-int(r.fromR)))
	r.step++
	return uint32(l) | uint32(rr)<<16
}

var _ core.VolumeProvider = StaticVolume{}
var _ core.VolumeProvider = (*Ramp)(nil)
