package fastmixer

import (
	"context"
	"log/slog"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/engine"
)

// Worker runs the fast-path mixer's real-time loop. Run must be called
// from exactly one goroutine; Publish is safe for a separate producer
// goroutine.
type Worker struct {
	w *engine.Worker
}

// New returns a Worker that lazily constructs Mixers via mixerFactory
// and parks cold-idle cycles on fx. logger receives non-realtime log
// lines only (setup, teardown, fatal aborts); nil selects slog's
// default logger.
func New(mixerFactory MixerFactory, clock Clock, fx Futex, logger *slog.Logger) *Worker {
	return &Worker{w: engine.New(mixerFactory, clock, fx, logger)}
}

// Publish makes snapshot the newest StateSnapshot the worker will
// observe. Safe for exactly one controller goroutine.
func (w *Worker) Publish(snapshot *StateSnapshot) { w.w.Publish(snapshot) }

// Run executes the worker loop until a published EXIT command or ctx
// is cancelled. See internal/engine.Worker.Run for the return-value
// contract.
func (w *Worker) Run(ctx context.Context) error { return w.w.Run(ctx) }

// Dump returns the DumpState most recently attached to a published
// StateSnapshot, or nil if none has been published yet or the
// snapshot carried no DumpState.
func (w *Worker) Dump() *DumpState { return w.w.Dump() }
