package engine

import (
	"math/bits"
	"runtime"
	"time"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/core"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/scheduler"
)

// prepareRender brings the Mixer, mix buffer and CycleScheduler
// thresholds in line with current before the render phase runs. It
// refreshes the sink's reported format first, then decides
// independently whether the live Mixer needs rebuilding, and finally
// reconciles the track registry against the (possibly fresh) Mixer.
func (w *Worker) prepareRender(current *core.StateSnapshot) error {
	if current.OutputSink == nil {
		return &core.FatalError{Kind: core.FatalNilBufferProvider, Detail: "nil output sink on render cycle"}
	}

	if !w.haveSinkGen || current.OutputSinkGen != w.observedSinkGen {
		format, err := current.OutputSink.Format()
		if err != nil {
			return err
		}
		if format.ChannelCount != 2 {
			return &core.FatalError{Kind: core.FatalBadChannelCount}
		}
		w.sinkSampleRate = format.SampleRate
		w.haveSinkFormat = true
		w.observedSinkGen = current.OutputSinkGen
		w.haveSinkGen = true
	}

	needsMixer := !w.haveFormat || w.mixer == nil ||
		w.mixerFrameCount != current.FrameCount ||
		w.mixerSampleRate != w.sinkSampleRate

	if needsMixer {
		if w.mixer != nil {
			w.reg.ReleaseAll(w.mixer)
		}

		mixer, err := w.mixerFactory(current.FrameCount, w.sinkSampleRate, core.MaxTracks)
		if err != nil {
			return err
		}

		w.mixer = mixer
		w.mixBuf = make([]int16, current.FrameCount*2)
		w.bufState = bufUndefined
		w.mixerFrameCount = current.FrameCount
		w.mixerSampleRate = w.sinkSampleRate
		w.haveFormat = true

		w.reg.Invalidate()
		w.sched.SetThresholds(scheduler.NewThresholds(current.FrameCount, w.sinkSampleRate))
	}

	return w.reg.Reconcile(w.mixer, current, bufferAddr(w.mixBuf))
}

// render runs the MIX and/or WRITE phases for the current cycle. MIX
// pushes each active track's live volume then asks the
// Mixer to render into the mix buffer; WRITE zero-fills the buffer
// first if nothing mixed it this cycle, then writes it to the sink
// bracketed by the DumpState write sequence.
func (w *Worker) render(current *core.StateSnapshot) {
	cmd := current.Command
	dump := current.Dump
	if dump != nil {
		dump.SetNumTracks(uint32(w.reg.NumTracks()))
	}

	if cmd&core.CmdMix == 0 && w.bufState == bufMixed {
		w.bufState = bufUndefined
	}

	if cmd&core.CmdMix != 0 {
		w.pushLiveVolumes(current)

		if err := w.mixer.Process(core.InvalidPTS); err != nil {
			if !w.loggedMixErr {
				w.logger.Error("fastmixer: mixer process error", "error", err)
				w.loggedMixErr = true
			}
		} else {
			w.loggedMixErr = false
		}
		w.bufState = bufMixed
	}

	if cmd&core.CmdWrite != 0 {
		if w.bufState == bufUndefined {
			for i := range w.mixBuf {
				w.mixBuf[i] = 0
			}
			w.bufState = bufZeroed
		}

		if dump != nil {
			dump.BeginWrite()
		}

		written := current.OutputSink.Write(w.mixBuf, current.FrameCount)
		if written < 0 {
			if dump != nil {
				dump.IncWriteErrors()
			}
			if !w.loggedSinkWriteErr {
				w.logger.Error("fastmixer: sink write error")
				w.loggedSinkWriteErr = true
			}
		} else {
			w.loggedSinkWriteErr = false
			if dump != nil {
				dump.AddFramesWritten(uint32(written))
			}
		}

		if dump != nil {
			dump.EndWrite()
		}
	}
}

// pushLiveVolumes pushes every active slot's current volume into the
// Mixer. Slots with no VolumeProvider keep whatever volume
// the TrackRegistry last set (unity, unless rebound).
func (w *Worker) pushLiveVolumes(current *core.StateSnapshot) {
	mask := current.TrackMask
	for mask != 0 {
		slot := bits.TrailingZeros32(mask)
		mask &^= 1 << uint(slot)

		track := current.Tracks[slot]
		if track.VolumeProvider == nil {
			continue
		}
		name, ok := w.reg.NameForSlot(slot)
		if !ok {
			continue
		}
		_ = core.PushVolume(w.mixer, name, track.VolumeProvider.GetVolumeLR())
	}
}

// teardown releases every track name and the Mixer itself, leaving the
// Worker ready to be discarded.
func (w *Worker) teardown() {
	if w.mixer != nil {
		w.reg.ReleaseAll(w.mixer)
	}
	w.mixer = nil
	w.mixBuf = nil
	w.bufState = bufUndefined
	w.haveFormat = false
	w.haveSinkFormat = false
}

// applySleep carries out the CycleScheduler's sleep-mode decision:
// negative means the cycle already parked (cold-idle futex wait) or
// should busy-spin, zero yields the processor once, and positive
// sleeps for that many nanoseconds.
func (w *Worker) applySleep(mode int64) {
	switch {
	case mode < 0:
		return
	case mode == 0:
		runtime.Gosched()
	default:
		time.Sleep(time.Duration(mode))
	}
}
