package fastmixer

import "github.com/STS-Dev-Team/platform-frameworks-av/internal/core"

// This file re-exports the external-collaborator seams: Sink, Mixer,
// BufferProvider, VolumeProvider, Clock and Futex. The definitions
// live in internal/core so every internal package can
// depend on them without importing this root package; see
// internal/core for the doc comments. Concrete implementations live in
// sink/ and track/.

// Format describes a sink's output format.
type Format = core.Format

// Sink is the non-blocking destination for rendered frames.
type Sink = core.Sink

// BufferProvider supplies a track's input samples to the Mixer.
type BufferProvider = core.BufferProvider

// VolumeProvider supplies a track's per-cycle volume.
type VolumeProvider = core.VolumeProvider

// ParamGroup selects the parameter group in Mixer.SetParameter.
type ParamGroup = core.ParamGroup

const (
	ParamGroupTrack  = core.ParamGroupTrack
	ParamGroupVolume = core.ParamGroupVolume
)

// ParamField selects the field within a ParamGroup.
type ParamField = core.ParamField

const (
	ParamFieldMainBuffer = core.ParamFieldMainBuffer
	ParamFieldVolume0    = core.ParamFieldVolume0
	ParamFieldVolume1    = core.ParamFieldVolume1
)

// InvalidPTS is the presentation timestamp sentinel passed to
// Mixer.Process when the worker has no meaningful timeline.
const InvalidPTS = core.InvalidPTS

// Mixer is the external DSP engine the worker drives.
type Mixer = core.Mixer

// MixerFactory lazily constructs a Mixer.
type MixerFactory = core.MixerFactory

// Clock is a monotonic, nanosecond-resolution clock.
type Clock = core.Clock

// Futex is the address-based wait/wake primitive cold-idle parking
// uses.
type Futex = core.Futex
