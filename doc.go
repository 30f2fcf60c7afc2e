// Package fastmixer implements the fast-path audio mixer worker: a single
// high-priority goroutine that, on a fixed period derived from the output
// device's frame count and sample rate, renders a small set of low-latency
// tracks into an output buffer and writes it to a non-blocking sink.
//
// # Philosophy
//
// "Audio priority must never block on the controller."
//
// The worker never takes a lock on its render path. State changes from the
// controller (track add/remove, volume changes, sink swaps, idle/exit
// transitions) cross a wait-free single-producer/single-consumer queue
// (internal/ssq) as immutable StateSnapshot values. The worker polls,
// never blocks, and diffs against the previous snapshot to do only the
// work a given cycle's change requires.
//
// # Architecture
//
//	Controller  →  StateQueue (SSQ)  →  WorkerLoop (engine.Worker)
//	(goroutine)    latest-wins,           CommandMachine → TrackRegistry →
//	               wait-free poll         render phase → CycleScheduler
//
// # Basic usage
//
//	w := fastmixer.New(mixerFactory, clock, fx, nil)
//	go func() {
//	    if err := w.Run(ctx); err != nil {
//	        log.Fatal(err)
//	    }
//	}()
//
//	w.Publish(&fastmixer.StateSnapshot{
//	    Command:    fastmixer.CmdMixWrite,
//	    FrameCount: 192,
//	    TrackMask:  0x1,
//	    Tracks:     [32]fastmixer.FastTrack{{BufferProvider: myProvider}},
//	    OutputSink: mySink,
//	})
//
// # Monitoring
//
// Worker.Dump() returns the worker-writable counters and statistics
// published for observers. DumpState.String() renders a fixed
// two-line-plus-optional-statistics human text, and DumpState also
// marshals to JSON for embedding in a health endpoint.
//
// # Thread safety
//
// Publish is safe for concurrent callers but is designed for exactly one
// controller goroutine (single-producer contract). Run must be called
// from exactly one goroutine and owns the render path exclusively.
package fastmixer
