// Package scheduler implements the CycleScheduler: it computes the
// next sleep duration from measured cycle time, period, and
// under/overrun thresholds, self-correcting for clock anomalies.
package scheduler

import (
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/core"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/dumpstate"
)

// Sleep mode sentinels WorkerLoop interprets: -1 busy-wait
// (no sleep before the next top-of-loop check), 0 yield the CPU once,
// >0 (strictly less than 1s) an uninterruptible nanosleep request.
const (
	SleepBusyWait int64 = -1
	SleepYield    int64 = 0
)

// Thresholds are the cycle-time envelope derived from frameCount and
// sampleRate.
type Thresholds struct {
	PeriodNs   int64
	UnderrunNs int64
	OverrunNs  int64
}

// NewThresholds computes periodNs/underrunNs/overrunNs from a frame
// count and sample rate.
func NewThresholds(frameCount, sampleRate int) Thresholds {
	fc := float64(frameCount)
	sr := float64(sampleRate)
	return Thresholds{
		PeriodNs:   int64(fc * 1e9 / sr),
		UnderrunNs: int64(fc * 1.75e9 / sr),
		OverrunNs:  int64(fc * 0.25e9 / sr),
	}
}

// Scheduler holds the cycle-to-cycle clock baseline and the
// ignoreNextOverrun arming bit. Used from exactly one goroutine (the
// real-time worker); not safe for concurrent use.
type Scheduler struct {
	clock core.Clock

	thresholds Thresholds

	haveBaseline bool
	lastNs       int64

	ignoreNextOverrun bool
}

// New returns a Scheduler reading time from clock.
func New(clock core.Clock) *Scheduler {
	return &Scheduler{clock: clock}
}

// SetThresholds installs new envelope thresholds, typically after a
// format or frameCount change.
func (s *Scheduler) SetThresholds(t Thresholds) {
	s.thresholds = t
}

// ResetBaseline drops the clock baseline, forcing the next Update call
// to treat this cycle as the first.
func (s *Scheduler) ResetBaseline() {
	s.haveBaseline = false
}

// ArmIgnoreNextOverrun arms the flag that suppresses exactly one
// overrun count on the next short cycle.
func (s *Scheduler) ArmIgnoreNextOverrun() {
	s.ignoreNextOverrun = true
}

// Update reads the clock and returns the next sleep mode. dump, if
// non-nil, receives underrun/overrun counts and periodic
// mean/min/max/stddev statistics.
func (s *Scheduler) Update(dump *dumpstate.State) int64 {
	now, ok := s.clock.Now()
	if !ok {
		s.haveBaseline = false
		return s.thresholds.PeriodNs
	}

	if !s.haveBaseline {
		s.lastNs = now
		s.haveBaseline = true
		s.ignoreNextOverrun = true
		return s.thresholds.PeriodNs
	}

	delta := now - s.lastNs
	s.lastNs = now

	if dump != nil {
		dump.ObserveCycleSeconds(float64(delta) / 1e9)
	}

	switch {
	case delta > s.thresholds.UnderrunNs:
		if dump != nil {
			dump.IncUnderruns()
		}
		s.ignoreNextOverrun = true
		return SleepBusyWait

	case delta < s.thresholds.OverrunNs:
		if s.ignoreNextOverrun {
			s.ignoreNextOverrun = false
		} else if dump != nil {
			dump.IncOverruns()
		}
		return s.thresholds.PeriodNs - s.thresholds.OverrunNs

	default:
		s.ignoreNextOverrun = false
		return SleepBusyWait
	}
}
