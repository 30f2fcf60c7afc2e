package fastmixer

import (
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/core"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/dumpstate"
)

// Command is the worker's per-cycle instruction. See
// internal/core for the implementation; this file only re-exports it,
// mirroring the teacher's internal-implementation/public-alias split.
type Command = core.Command

const (
	CmdInitial  = core.CmdInitial
	CmdHotIdle  = core.CmdHotIdle
	CmdColdIdle = core.CmdColdIdle
	CmdMix      = core.CmdMix
	CmdWrite    = core.CmdWrite
	CmdMixWrite = core.CmdMixWrite
	CmdExit     = core.CmdExit
)

// MaxTracks is the fixed width of the track bitmask.
const MaxTracks = core.MaxTracks

// UnityVolume is the packed per-channel volume value that denotes
// unity gain: 0x1000.
const UnityVolume = core.UnityVolume

// FastTrack is the per-slot record carried inside a StateSnapshot.
type FastTrack = core.FastTrack

// StateSnapshot is the immutable unit the controller publishes through
// the StateQueue.
type StateSnapshot = core.StateSnapshot

// DumpState is the worker-writable counters and statistics published
// for observers. Readers must use WriteSequence's parity
// to detect torn reads of FramesWritten and the other counters written
// in the same update.
type DumpState = dumpstate.State

// NewDumpState allocates a zeroed DumpState ready to be attached to a
// StateSnapshot's Dump field.
func NewDumpState() *DumpState { return core.NewDumpState() }
