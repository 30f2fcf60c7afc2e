// Package dumpstate implements the worker-writable counters and
// statistics published for observers. The worker is the
// sole writer; readers use WriteSequence's parity to detect torn reads
// of the fields written alongside a write call.
package dumpstate

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
)

// statsWindow is the number of cycle-time samples accumulated before
// the rolling mean/min/max/stddev statistics are published.
const statsWindow = 1000

// State holds the counters and optional cycle-time statistics a worker
// publishes every cycle. All fields are accessed through atomics so a
// concurrent reader never observes a partially written counter; the
// WriteSequence field additionally lets a reader detect a torn read of
// the (WriteSequence, FramesWritten) pair across a single write call.
type State struct {
	command atomic.Uint32

	writeSequence atomic.Uint32
	framesWritten atomic.Uint32
	numTracks     atomic.Uint32
	writeErrors   atomic.Uint32
	underruns     atomic.Uint32
	overruns      atomic.Uint32

	statsValid atomic.Bool
	mean       atomic.Uint64 // math.Float64bits
	min        atomic.Uint64
	max        atomic.Uint64
	stddev     atomic.Uint64

	// accumulator state; owned by the worker goroutine only, never read
	// concurrently, so plain fields suffice here.
	// accMean and accM2 are Welford's running mean and sum of squared
	// deviations, which stay exact for a constant input.
	sampleCount int
	accMean     float64
	accM2       float64
	sampleMin   float64
	sampleMax   float64
}

// New allocates a zeroed State.
func New() *State {
	return &State{}
}

// CommandName returns the short ASCII name of the last published
// command, falling back to its numeric value.
func (s *State) CommandName() string { return commandString(s.command.Load()) }

// SetCommand records the command active this cycle. cmd is the raw
// numeric encoding; callers pass fastmixer.Command converted to uint32
// to avoid an import cycle between the root package and this one.
func (s *State) SetCommand(cmd uint32) { s.command.Store(cmd) }

// BeginWrite marks a write as in progress: writeSequence becomes odd.
// Callers must pair every BeginWrite with exactly one EndWrite.
func (s *State) BeginWrite() { s.writeSequence.Add(1) }

// EndWrite marks a write as complete: writeSequence becomes even again.
func (s *State) EndWrite() { s.writeSequence.Add(1) }

// WriteSequence returns the current sequence counter. An even value
// observed before and after reading FramesWritten means the pair was
// not torn by a concurrent write.
func (s *State) WriteSequence() uint32 { return s.writeSequence.Load() }

// AddFramesWritten accumulates successfully written frames.
func (s *State) AddFramesWritten(n uint32) { s.framesWritten.Add(n) }

// FramesWritten returns the cumulative frame count written so far.
func (s *State) FramesWritten() uint32 { return s.framesWritten.Load() }

// SetNumTracks publishes the active track count after reconciliation.
func (s *State) SetNumTracks(n uint32) { s.numTracks.Store(n) }

// NumTracks returns the last published active track count.
func (s *State) NumTracks() uint32 { return s.numTracks.Load() }

// IncWriteErrors counts one failed sink write.
func (s *State) IncWriteErrors() { s.writeErrors.Add(1) }

// WriteErrors returns the cumulative write-error count.
func (s *State) WriteErrors() uint32 { return s.writeErrors.Load() }

// IncUnderruns counts one cycle that overran underrunNs.
func (s *State) IncUnderruns() { s.underruns.Add(1) }

// Underruns returns the cumulative underrun count.
func (s *State) Underruns() uint32 { return s.underruns.Load() }

// IncOverruns counts one cycle that undershot overrunNs.
func (s *State) IncOverruns() { s.overruns.Add(1) }

// Overruns returns the cumulative overrun count.
func (s *State) Overruns() uint32 { return s.overruns.Load() }

// ObserveCycleSeconds feeds one cycle-time sample into the rolling
// mean/min/max/stddev window. Every statsWindow samples it publishes the
// accumulated statistics and resets. Called only from the
// worker goroutine; the accumulator fields are not shared.
func (s *State) ObserveCycleSeconds(delta float64) {
	if s.sampleCount == 0 {
		s.sampleMin, s.sampleMax = delta, delta
	} else {
		if delta < s.sampleMin {
			s.sampleMin = delta
		}
		if delta > s.sampleMax {
			s.sampleMax = delta
		}
	}
	s.sampleCount++
	d := delta - s.accMean
	s.accMean += d / float64(s.sampleCount)
	s.accM2 += d * (delta - s.accMean)

	if s.sampleCount < statsWindow {
		return
	}

	mean := s.accMean
	variance := s.accM2 / float64(s.sampleCount)
	if variance < 0 {
		variance = 0
	}
	stddev := math.Sqrt(variance)

	s.mean.Store(math.Float64bits(mean))
	s.min.Store(math.Float64bits(s.sampleMin))
	s.max.Store(math.Float64bits(s.sampleMax))
	s.stddev.Store(math.Float64bits(stddev))
	s.statsValid.Store(true)

	s.sampleCount, s.accMean, s.accM2 = 0, 0, 0
}

// Stats returns the last published mean/min/max/stddev of cycle time in
// seconds, and whether a statistics window has completed at least once.
func (s *State) Stats() (mean, min, max, stddev float64, ok bool) {
	if !s.statsValid.Load() {
		return 0, 0, 0, 0, false
	}
	return math.Float64frombits(s.mean.Load()),
		math.Float64frombits(s.min.Load()),
		math.Float64frombits(s.max.Load()),
		math.Float64frombits(s.stddev.Load()),
		true
}

// String renders the fixed human-readable dump: two required lines (the
// command line, and the counters line) plus an optional statistics line
// when a window has completed. Field order and units (ms for
// timing, counts for counters) are fixed; exact spacing is not.
func (s *State) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "command=%s writeSequence=%d\n", s.CommandName(), s.WriteSequence())
	fmt.Fprintf(&b, "framesWritten=%d numTracks=%d writeErrors=%d underruns=%d overruns=%d\n",
		s.FramesWritten(), s.NumTracks(), s.WriteErrors(), s.Underruns(), s.Overruns())
	if mean, min, max, stddev, ok := s.Stats(); ok {
		fmt.Fprintf(&b, "cycleMs mean=%.3f min=%.3f max=%.3f stddev=%.3f\n",
			mean*1e3, min*1e3, max*1e3, stddev*1e3)
	}
	return b.String()
}

// jsonState mirrors State's fields for MarshalJSON.
type jsonState struct {
	Command       string   `json:"command"`
	WriteSequence uint32   `json:"writeSequence"`
	FramesWritten uint32   `json:"framesWritten"`
	NumTracks     uint32   `json:"numTracks"`
	WriteErrors   uint32   `json:"writeErrors"`
	Underruns     uint32   `json:"underruns"`
	Overruns      uint32   `json:"overruns"`
	Mean          *float64 `json:"mean,omitempty"`
	Min           *float64 `json:"min,omitempty"`
	Max           *float64 `json:"max,omitempty"`
	Stddev        *float64 `json:"stddev,omitempty"`
}

// MarshalJSON implements json.Marshaler, grounded on the teacher's
// HealthStatus JSON-health pattern.
func (s *State) MarshalJSON() ([]byte, error) {
	js := jsonState{
		Command:       s.CommandName(),
		WriteSequence: s.WriteSequence(),
		FramesWritten: s.FramesWritten(),
		NumTracks:     s.NumTracks(),
		WriteErrors:   s.WriteErrors(),
		Underruns:     s.Underruns(),
		Overruns:      s.Overruns(),
	}
	if mean, min, max, stddev, ok := s.Stats(); ok {
		js.Mean, js.Min, js.Max, js.Stddev = &mean, &min, &max, &stddev
	}
	return json.Marshal(js)
}

// commandString maps the closed command domain's numeric encoding to
// its short ASCII name, falling back to the numeric value for anything
// else. The bit values mirror the root package's Command
// constants; duplicated here to avoid an import cycle.
func commandString(cmd uint32) string {
	const (
		cmdInitial uint32 = 1 << iota
		cmdHotIdle
		cmdColdIdle
		cmdMix
		cmdWrite
		cmdExit
	)
	switch cmd {
	case cmdInitial:
		return "INITIAL"
	case cmdHotIdle:
		return "HOT_IDLE"
	case cmdColdIdle:
		return "COLD_IDLE"
	case cmdMix:
		return "MIX"
	case cmdWrite:
		return "WRITE"
	case cmdMix | cmdWrite:
		return "MIX_WRITE"
	case cmdExit:
		return "EXIT"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", cmd)
	}
}
