package core

// This file defines the external-collaborator seams core depends on.
// Concrete implementations live outside core: sink/ ships a realtime
// oto-backed Sink and a file-backed wav Sink; track/ ships
// BufferProvider and VolumeProvider fixtures. core itself never
// depends on them, so the render path stays allocation-free and
// swappable.

// Format describes a sink's output format. ChannelCount is
// asserted to equal 2 (stereo).
type Format struct {
	SampleRate   int
	ChannelCount int
}

// Sink is the non-blocking destination for rendered frames.
// Implementations must not block for unbounded time.
type Sink interface {
	// Format returns the sink's current output format.
	Format() (Format, error)
	// Write writes up to frames interleaved stereo frames from buf and
	// returns the number of frames actually written, or a negative
	// value on error.
	Write(buf []int16, frames int) int
}

// BufferProvider supplies a track's input samples to the Mixer. It
// is consumed by the Mixer, not called directly by the worker;
// the worker's only job is to bind and rebind it via
// Mixer.SetBufferProvider.
type BufferProvider interface {
	// GetBuffer returns up to frameCount interleaved stereo int16
	// samples for the current cycle. A short (or empty) return signals
	// exhaustion; concealment policy is the Mixer's concern, out of
	// scope here.
	GetBuffer(frameCount int) []int16
}

// VolumeProvider supplies a track's per-cycle volume.
type VolumeProvider interface {
	// GetVolumeLR packs stereo volume: L in the low 16 bits, R in the
	// high 16 bits. UnityVolume (0x1000) per channel denotes unity.
	GetVolumeLR() uint32
}

// ParamGroup selects the parameter group in Mixer.SetParameter.
type ParamGroup int

const (
	// ParamGroupTrack carries per-track routing parameters.
	ParamGroupTrack ParamGroup = iota
	// ParamGroupVolume carries per-track volume parameters.
	ParamGroupVolume
)

// ParamField selects the field within a ParamGroup.
type ParamField int

const (
	// ParamFieldMainBuffer, with ParamGroupTrack, points a track's main
	// output at the worker's mix buffer.
	ParamFieldMainBuffer ParamField = iota
	// ParamFieldVolume0, with ParamGroupVolume, sets channel 0 (L).
	ParamFieldVolume0
	// ParamFieldVolume1, with ParamGroupVolume, sets channel 1 (R).
	ParamFieldVolume1
)

// InvalidPTS is the presentation timestamp sentinel passed to
// Mixer.Process when the worker has no meaningful timeline.
const InvalidPTS int64 = -1

// Mixer is the external DSP engine the worker drives. The
// core never implements DSP itself; it only sequences calls against
// this interface. Mixer is created lazily by a MixerFactory.
type Mixer interface {
	// GetTrackName allocates an opaque track name. A negative return
	// is a fatal allocation failure.
	GetTrackName() int32
	// DeleteTrackName releases a previously allocated name.
	DeleteTrackName(name int32)
	// SetBufferProvider binds (or rebinds) a track's sample source.
	SetBufferProvider(name int32, provider BufferProvider)
	// SetParameter sets a routing or volume parameter. opaque carries
	// a pointer-sized value (mix buffer identity) for
	// ParamFieldMainBuffer or a packed scalar for the volume fields.
	SetParameter(name int32, group ParamGroup, field ParamField, opaque uint64) error
	// Enable marks a track as eligible to be mixed.
	Enable(name int32)
	// Process renders one cycle's worth of frames into the bound mix
	// buffer(s) at presentation timestamp pts (InvalidPTS if none).
	Process(pts int64) error
}

// MixerFactory lazily constructs a Mixer on first non-idle cycle with
// a valid format, and again on format/frameCount change.
type MixerFactory func(frameCount, sampleRate, maxTracks int) (Mixer, error)

// Clock is a monotonic, nanosecond-resolution clock.
type Clock interface {
	// Now returns nanoseconds on a monotonic timeline. ok is false if
	// the read failed.
	Now() (ns int64, ok bool)
}

// Futex is the address-based wait/wake primitive cold-idle parking
// uses. Wait blocks only while *addr == expected; Wake
// releases any goroutine parked on addr. See internal/futex for the
// Linux implementation and the portable condition-variable fallback.
type Futex interface {
	Wait(addr *uint32, expected uint32)
	Wake(addr *uint32)
}
