// Package engine implements the WorkerLoop: it composes the SSQ,
// CommandMachine, TrackRegistry, render phase and CycleScheduler into
// the real-time loop.
package engine

import (
	"context"
	"log/slog"
	"time"
	"unsafe"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/cmdmachine"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/core"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/dumpstate"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/registry"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/scheduler"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/ssq"
)

// mixBufState tracks whether the mix buffer holds zeros, mixed
// samples, or nothing meaningful yet.
type mixBufState int

const (
	bufUndefined mixBufState = iota
	bufZeroed
	bufMixed
)

// Worker runs the fast-path mixer's real-time loop. Run must be called
// from exactly one goroutine; Publish is safe for a separate producer
// goroutine.
type Worker struct {
	queue *ssq.Queue[core.StateSnapshot]
	cmd   *cmdmachine.Machine
	reg   *registry.Registry
	sched *scheduler.Scheduler

	mixerFactory core.MixerFactory
	logger       *slog.Logger

	current *core.StateSnapshot

	mixer    core.Mixer
	mixBuf   []int16
	bufState mixBufState

	// sinkSampleRate/haveSinkFormat track what the current OutputSink
	// last reported. mixerFrameCount/mixerSampleRate/haveFormat track
	// what the live Mixer was actually built with; the two fall out of
	// sync exactly when a reconfiguration is pending.
	sinkSampleRate int
	haveSinkFormat bool

	mixerFrameCount int
	mixerSampleRate int
	haveFormat      bool

	observedSinkGen uint64
	haveSinkGen     bool

	loggedSinkWriteErr bool
	loggedMixErr       bool
}

// New returns a Worker that parks cold-idle cycles on fx and lazily
// constructs Mixers via mixerFactory. logger receives non-realtime log
// lines only (setup, teardown, fatal aborts); nil selects slog's
// default logger.
func New(mixerFactory core.MixerFactory, clock core.Clock, fx core.Futex, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		queue:        ssq.New[core.StateSnapshot](),
		cmd:          cmdmachine.New(fx),
		reg:          registry.New(),
		sched:        scheduler.New(clock),
		mixerFactory: mixerFactory,
		logger:       logger,
	}
}

// Publish makes snapshot the newest StateSnapshot the worker will
// observe. Safe for exactly one controller goroutine.
func (w *Worker) Publish(snapshot *core.StateSnapshot) {
	w.queue.Publish(snapshot)
}

// Run executes the WorkerLoop until a published EXIT command or ctx
// is cancelled. It returns nil on a clean EXIT and a non-nil error —
// a *core.FatalError for an unrecoverable invariant violation, or
// ctx.Err() on cancellation — otherwise. Either return means the
// caller must not restart Run.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			w.teardown()
			return err
		}

		current := w.queue.Latest()
		if current == nil {
			w.applySleep(idleSleepNs)
			continue
		}
		w.current = current
		if current.Dump != nil {
			current.Dump.SetCommand(uint32(current.Command))
		}

		step, err := w.cmd.Step(current)
		if err != nil {
			w.logger.Error("fastmixer: fatal command machine error", "error", err)
			w.teardown()
			return err
		}

		if step.ResetBaseline {
			w.sched.ResetBaseline()
		}
		if step.ArmIgnoreNextOverrun {
			w.sched.ArmIgnoreNextOverrun()
		}

		switch {
		case step.ShouldExit:
			w.logger.Info("fastmixer: exit command observed, tearing down")
			w.teardown()
			return nil

		case step.ShouldRender:
			if err := w.prepareRender(current); err != nil {
				w.logger.Error("fastmixer: fatal render setup error", "error", err)
				w.teardown()
				return err
			}
			w.render(current)
			w.applySleep(w.sched.Update(current.Dump))

		default:
			w.applySleep(step.SleepNs)
		}
	}
}

// idleSleepNs matches cmdmachine's 1ms idle sleep for the "nothing
// published yet" bootstrap case.
const idleSleepNs = int64(time.Millisecond)

// Dump returns the DumpState most recently attached to a published
// StateSnapshot, or nil if none has been published yet or the
// snapshot carried no DumpState.
func (w *Worker) Dump() *dumpstate.State {
	if w.current == nil {
		return nil
	}
	return w.current.Dump
}

// bufferAddr converts buf's backing array address to an opaque handle
// suitable for Mixer.SetParameter's ParamFieldMainBuffer. Mixer implementations that need the real address (e.g. a
// cgo-backed DSP engine) recover it with unsafe.Pointer on their side;
// a pure-Go Mixer can instead treat this as an opaque per-buffer token
// and ignore its bit pattern.
func bufferAddr(buf []int16) uint64 {
	if len(buf) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(&buf[0])))
}
