// Package core holds the data model and external-collaborator
// interfaces shared by every internal package. It exists
// so internal/cmdmachine, internal/registry, internal/scheduler,
// internal/engine and internal/futex can all depend on a single
// definition of Command/StateSnapshot/Mixer/Sink/etc. without any of
// them depending on the root package — the root package is instead a
// thin re-export shim over this one, mirroring the teacher's
// internal-implementation/public-alias split.
package core

import (
	"math/bits"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/dumpstate"
)

// Command is the worker's per-cycle instruction, published by the
// controller as part of a StateSnapshot. The domain is closed: any
// value outside the named constants is a fatal condition for the
// worker.
type Command uint32

const (
	// CmdInitial is the worker's state before the controller has
	// published anything meaningful. Idle.
	CmdInitial Command = 1 << iota
	// CmdHotIdle is a low-latency idle: the worker sleeps briefly and
	// re-polls the SSQ.
	CmdHotIdle
	// CmdColdIdle is a deep idle: the worker parks on a futex word
	// until the controller wakes it.
	CmdColdIdle
	// CmdMix requests the render phase mix the active tracks into the
	// mix buffer.
	CmdMix
	// CmdWrite requests the render phase write the mix buffer to the
	// sink.
	CmdWrite
	// CmdExit tears down the Mixer and mix buffer and terminates the
	// worker loop for good; the worker never restarts after CmdExit.
	CmdExit
)

// CmdMixWrite is the bitwise composition of CmdMix and CmdWrite. The
// worker always tests each bit independently; this constant exists
// because MIX_WRITE is itself a distinct value in the closed command
// domain.
const CmdMixWrite = CmdMix | CmdWrite

// idleMask is the set of bits that make a command "idle":
// INITIAL, HOT_IDLE and COLD_IDLE, and none of the non-idle commands.
const idleMask = CmdInitial | CmdHotIdle | CmdColdIdle

// IsIdle reports whether cmd is one of the idle commands.
func (c Command) IsIdle() bool { return c&idleMask != 0 }

// Valid reports whether c is one of the seven commands in the closed
// domain. Any other value is a fatal condition for the command
// machine.
func (c Command) Valid() bool {
	switch c {
	case CmdInitial, CmdHotIdle, CmdColdIdle, CmdMix, CmdWrite, CmdMixWrite, CmdExit:
		return true
	default:
		return false
	}
}

func (c Command) String() string {
	switch c {
	case CmdInitial:
		return "INITIAL"
	case CmdHotIdle:
		return "HOT_IDLE"
	case CmdColdIdle:
		return "COLD_IDLE"
	case CmdMix:
		return "MIX"
	case CmdWrite:
		return "WRITE"
	case CmdMixWrite:
		return "MIX_WRITE"
	case CmdExit:
		return "EXIT"
	default:
		return "UNKNOWN"
	}
}

// MaxTracks is the fixed width of the track bitmask.
const MaxTracks = 32

// UnityVolume is the packed per-channel volume value that denotes
// unity gain: 0x1000.
const UnityVolume uint16 = 0x1000

// FastTrack is the per-slot record carried inside a StateSnapshot. Only
// slots with their bit set in StateSnapshot.TrackMask are meaningful.
type FastTrack struct {
	// BufferProvider supplies input samples. Non-nil whenever the slot
	// is active.
	BufferProvider BufferProvider
	// VolumeProvider supplies per-cycle volume. Nil means unity gain on
	// both channels.
	VolumeProvider VolumeProvider
	// Generation is a slot-scoped version. A change signals "same
	// slot, replaced providers" to the TrackRegistry.
	Generation uint64
}

// StateSnapshot is the immutable unit the controller publishes through
// the StateQueue. Once published, a StateSnapshot is never mutated;
// the worker only ever reads it.
type StateSnapshot struct {
	// Command selects the worker's behavior this cycle.
	Command Command
	// FrameCount is the number of output frames rendered per cycle.
	// Must be >0 whenever Command is not idle.
	FrameCount int
	// TrackMask has bit i set iff slot i is active. popcount(TrackMask)
	// never exceeds MaxTracks.
	TrackMask uint32
	// Tracks holds the per-slot records; only indices with TrackMask's
	// corresponding bit set are meaningful.
	Tracks [MaxTracks]FastTrack
	// FastTracksGen strictly advances whenever TrackMask changes or any
	// included track's Generation changes.
	FastTracksGen uint64
	// OutputSink is the current sink. May be nil while idle.
	OutputSink Sink
	// OutputSinkGen strictly advances whenever OutputSink is replaced.
	OutputSinkGen uint64
	// ColdGen is incremented by the controller on each intended
	// cold-idle transition; the worker must re-park only when it
	// observes a new ColdGen.
	ColdGen uint64
	// ColdFutexAddr is the shared atomic word the worker parks on
	// during cold idle. The controller wakes the worker by
	// incrementing it and issuing a wake on its address.
	ColdFutexAddr *uint32
	// Dump is a pointer to a DumpState owned elsewhere (nullable); the
	// worker writes its counters into it every cycle.
	Dump *dumpstate.State
}

// NewDumpState allocates a zeroed DumpState ready to be attached to a
// StateSnapshot's Dump field.
func NewDumpState() *dumpstate.State { return dumpstate.New() }

// Popcount32 returns the number of set bits in v.
func Popcount32(v uint32) int { return bits.OnesCount32(v) }
