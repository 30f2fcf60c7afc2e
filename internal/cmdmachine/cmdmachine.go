// Package cmdmachine implements the CommandMachine: the state machine
// over {INITIAL, HOT_IDLE, COLD_IDLE, MIX, WRITE, MIX_WRITE, EXIT} and
// the idle-transition bookkeeping that keeps the last non-idle
// snapshot addressable across arbitrarily many idle publications.
package cmdmachine

import (
	"sync/atomic"
	"time"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/core"
)

// Transition classifies how command idleness changed between the
// previous cycle's diff anchor and the current cycle's snapshot.
type Transition int

const (
	// NonIdleToNonIdle: previous := current, a cheap pointer swap.
	NonIdleToNonIdle Transition = iota
	// NonIdleToIdle: the last non-idle snapshot (the current diff
	// anchor) is durably copied and the copy becomes previous; the idle
	// snapshot itself never becomes previous.
	NonIdleToIdle
	// IdleToIdle: previous is left untouched.
	IdleToIdle
	// IdleToNonIdle: previous is left untouched, keeping the last
	// non-idle snapshot as the diff anchor.
	IdleToNonIdle
)

// idleSleepNs is the 1ms sleep INITIAL and HOT_IDLE use, and a
// COLD_IDLE cycle that has already consumed its park for the observed
// coldGen.
const idleSleepNs = int64(time.Millisecond)

// Sleep mode sentinels shared with internal/scheduler's encoding:
// -1 busy-wait, 0 yield, >0 nanosleep duration.
const (
	SleepBusyWait int64 = -1
	SleepYield    int64 = 0
)

// Step is the outcome of processing one StateSnapshot.
type Step struct {
	// Previous is the diff anchor the caller should use for track
	// reconciliation this cycle.
	Previous *core.StateSnapshot
	// Transition classifies the idle/non-idle edge taken this cycle.
	Transition Transition
	// ResetBaseline tells the scheduler to drop its cycle-time
	// baseline (armed on a non-idle→idle transition).
	ResetBaseline bool
	// ArmIgnoreNextOverrun tells the scheduler to arm
	// ignoreNextOverrun.
	ArmIgnoreNextOverrun bool
	// ShouldRender is true for MIX, WRITE and MIX_WRITE: the caller
	// must run the render phase and then the scheduler.
	ShouldRender bool
	// ShouldExit is true for EXIT: the caller must tear down the
	// Mixer and mix buffer and stop the loop for good.
	ShouldExit bool
	// SleepNs is meaningful only when !ShouldRender && !ShouldExit: an
	// idle cycle's fixed sleep request.
	SleepNs int64
}

// Machine holds the CommandMachine's cycle-to-cycle state: the diff
// anchor and the cold-idle park bookkeeping. A Machine is used from
// exactly one goroutine (the real-time worker) and is not safe for
// concurrent use.
type Machine struct {
	fx core.Futex

	previous    *core.StateSnapshot
	havePrev    bool
	prevWasIdle bool
	haveColdGen bool
	coldGen     uint64
}

// New returns a Machine that parks on fx during COLD_IDLE.
func New(fx core.Futex) *Machine {
	return &Machine{fx: fx}
}

// Step advances the machine by one cycle. current must be non-nil.
func (m *Machine) Step(current *core.StateSnapshot) (Step, error) {
	if !current.Command.Valid() {
		return Step{}, &core.FatalError{Kind: core.FatalUnknownCommand}
	}

	transition, prev := m.diff(current)

	step := Step{
		Previous:             prev,
		Transition:           transition,
		ResetBaseline:        transition == NonIdleToIdle,
		ArmIgnoreNextOverrun: transition == NonIdleToIdle,
	}

	switch {
	case current.Command == core.CmdInitial || current.Command == core.CmdHotIdle:
		step.SleepNs = idleSleepNs

	case current.Command == core.CmdColdIdle:
		step.SleepNs = m.stepColdIdle(current)

	case current.Command == core.CmdExit:
		step.ShouldExit = true

	case current.Command&(core.CmdMix|core.CmdWrite) != 0:
		step.ShouldRender = true

	default:
		return Step{}, &core.FatalError{Kind: core.FatalUnknownCommand}
	}

	return step, nil
}

// diff classifies the idle/non-idle transition and returns the diff
// anchor to use this cycle.
func (m *Machine) diff(current *core.StateSnapshot) (Transition, *core.StateSnapshot) {
	isIdle := current.Command.IsIdle()

	if !m.havePrev {
		// First cycle ever: no baseline to diff against. Treat like a
		// cheap adoption, matching non-idle→non-idle.
		m.previous = current
		m.havePrev = true
		m.prevWasIdle = isIdle
		return NonIdleToNonIdle, current
	}

	// previous is the durable last-non-idle anchor, so its Command is
	// permanently non-idle once any idle cycle has occurred; it can't
	// tell us whether the immediately preceding cycle was idle. Track
	// that separately.
	wasIdle := m.prevWasIdle
	m.prevWasIdle = isIdle

	switch {
	case !wasIdle && !isIdle:
		m.previous = current
		return NonIdleToNonIdle, current

	case !wasIdle && isIdle:
		cp := *m.previous
		m.previous = &cp
		return NonIdleToIdle, m.previous

	case wasIdle && isIdle:
		return IdleToIdle, m.previous

	default: // wasIdle && !isIdle
		return IdleToNonIdle, m.previous
	}
}

// stepColdIdle parks at most once per coldGen: decrementing the
// shared futex word and blocking only when the pre-decrement value
// was <= 0.
func (m *Machine) stepColdIdle(current *core.StateSnapshot) int64 {
	if m.haveColdGen && m.coldGen == current.ColdGen {
		// Already consumed this coldGen's park; degrade to hot-idle
		// sleep so the loop doesn't busy-spin forever.
		return idleSleepNs
	}

	m.coldGen = current.ColdGen
	m.haveColdGen = true

	if current.ColdFutexAddr == nil {
		return idleSleepNs
	}

	post := atomic.AddUint32(current.ColdFutexAddr, ^uint32(0)) // decrement by 1
	pre := post + 1
	if int32(pre) <= 0 {
		m.fx.Wait(current.ColdFutexAddr, post)
		return SleepBusyWait
	}
	return idleSleepNs
}
