package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/core"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/dumpstate"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock advances exactly period ns per call, starting at 0. This
// keeps every post-baseline cycle exactly on the scheduling envelope's
// "normal" branch (neither an underrun nor an overrun).
type fakeClock struct {
	n      int64
	period int64
}

func (c *fakeClock) Now() (int64, bool) {
	v := c.n * c.period
	c.n++
	return v, true
}

type fakeFutex struct{}

func (fakeFutex) Wait(addr *uint32, expected uint32) {}
func (fakeFutex) Wake(addr *uint32)                  {}

type engineMixer struct {
	nextName    int32
	getCalls    int
	deleteCalls []int32
	volumeL     map[int32]uint64
	volumeR     map[int32]uint64
	processErr  error
	processN    int
}

func newEngineMixer() *engineMixer {
	return &engineMixer{
		volumeL: map[int32]uint64{},
		volumeR: map[int32]uint64{},
	}
}

func (m *engineMixer) GetTrackName() int32 {
	m.getCalls++
	n := m.nextName
	m.nextName++
	return n
}
func (m *engineMixer) DeleteTrackName(name int32) {
	m.deleteCalls = append(m.deleteCalls, name)
}
func (m *engineMixer) SetBufferProvider(name int32, provider core.BufferProvider) {}
func (m *engineMixer) SetParameter(name int32, group core.ParamGroup, field core.ParamField, opaque uint64) error {
	if group == core.ParamGroupVolume {
		switch field {
		case core.ParamFieldVolume0:
			m.volumeL[name] = opaque
		case core.ParamFieldVolume1:
			m.volumeR[name] = opaque
		}
	}
	return nil
}
func (m *engineMixer) Enable(name int32) {}
func (m *engineMixer) Process(pts int64) error {
	m.processN++
	return m.processErr
}

type countingSink struct {
	sampleRate int
	frames     int
	limit      int
	cancel     func()
}

func (s *countingSink) Format() (core.Format, error) {
	return core.Format{SampleRate: s.sampleRate, ChannelCount: 2}, nil
}
func (s *countingSink) Write(buf []int16, frames int) int {
	s.frames += frames
	if s.limit > 0 && s.frames >= s.limit && s.cancel != nil {
		s.cancel()
	}
	return frames
}

type fakeBuffer struct{}

func (fakeBuffer) GetBuffer(n int) []int16 { return make([]int16, n*2) }

type fakeVolume struct{ packed uint32 }

func (v fakeVolume) GetVolumeLR() uint32 { return v.packed }

func mixWriteSnapshot(frameCount, sampleRate int, sink core.Sink, sinkGen uint64, gen uint64, dump *dumpstate.State) *core.StateSnapshot {
	s := &core.StateSnapshot{
		Command:       core.CmdMixWrite,
		FrameCount:    frameCount,
		TrackMask:     0b1,
		FastTracksGen: gen,
		OutputSink:    sink,
		OutputSinkGen: sinkGen,
		Dump:          dump,
	}
	s.Tracks[0] = core.FastTrack{BufferProvider: fakeBuffer{}}
	return s
}

// TestSteadyMixWrite is scenario S1: 192 frames at 48000Hz, held at
// MIX_WRITE for 100 cycles, produces exactly 19200 written frames with
// no underruns, overruns or write errors, and a single reconciled
// track.
func TestSteadyMixWrite(t *testing.T) {
	const frameCount = 192
	const sampleRate = 48000
	const cycles = 100

	periodNs := int64(frameCount) * 1e9 / int64(sampleRate)
	clock := &fakeClock{period: periodNs}
	mixer := newEngineMixer()

	ctx, cancel := context.WithCancel(context.Background())
	sink := &countingSink{sampleRate: sampleRate, limit: frameCount * cycles, cancel: cancel}

	w := New(func(fc, sr, maxTracks int) (core.Mixer, error) { return mixer, nil }, clock, fakeFutex{}, discardLogger())

	dump := dumpstate.New()
	w.Publish(mixWriteSnapshot(frameCount, sampleRate, sink, 1, 1, dump))

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return within timeout")
	}

	if got := dump.FramesWritten(); got != uint32(frameCount*cycles) {
		t.Errorf("FramesWritten = %d, want %d", got, frameCount*cycles)
	}
	if got := dump.Underruns(); got != 0 {
		t.Errorf("Underruns = %d, want 0", got)
	}
	if got := dump.WriteErrors(); got != 0 {
		t.Errorf("WriteErrors = %d, want 0", got)
	}
	if got := dump.NumTracks(); got != 1 {
		t.Errorf("NumTracks = %d, want 1", got)
	}
	if seq := dump.WriteSequence(); seq%2 != 0 {
		t.Errorf("WriteSequence = %d, want an even (settled) value", seq)
	}
}

// TestExitTearsDownMixer is scenario S4: an EXIT command, observed
// after the worker has already built a Mixer and reconciled a track,
// tears the Mixer down (releasing every bound name) and Run returns
// nil.
func TestExitTearsDownMixer(t *testing.T) {
	const frameCount = 192
	const sampleRate = 48000

	clock := &fakeClock{period: int64(frameCount) * 1e9 / int64(sampleRate)}
	mixer := newEngineMixer()
	sink := &countingSink{sampleRate: sampleRate}

	w := New(func(fc, sr, maxTracks int) (core.Mixer, error) { return mixer, nil }, clock, fakeFutex{}, discardLogger())

	dump := dumpstate.New()
	w.Publish(mixWriteSnapshot(frameCount, sampleRate, sink, 1, 1, dump))

	done := make(chan error, 1)
	ctx := context.Background()
	go func() { done <- w.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for dump.FramesWritten() == 0 {
		select {
		case <-deadline:
			t.Fatal("worker never wrote a frame")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	w.Publish(&core.StateSnapshot{Command: core.CmdExit, FastTracksGen: 2, Dump: dump})

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after EXIT")
	}

	if len(mixer.deleteCalls) == 0 {
		t.Error("expected teardown to delete at least one track name")
	}
}

// TestReconfigureMidRun is scenario S5: a frameCount change mid-run
// tears down and recreates the Mixer, forcing a full track re-add.
func TestReconfigureMidRun(t *testing.T) {
	const sampleRate = 48000

	clock := &fakeClock{period: 4_000_000}
	var mu sync.Mutex
	var mixers []*engineMixer
	factory := func(fc, sr, maxTracks int) (core.Mixer, error) {
		m := newEngineMixer()
		mu.Lock()
		mixers = append(mixers, m)
		mu.Unlock()
		return m, nil
	}
	numMixers := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(mixers)
	}
	mixerAt := func(i int) *engineMixer {
		mu.Lock()
		defer mu.Unlock()
		return mixers[i]
	}
	sink := &countingSink{sampleRate: sampleRate}

	w := New(factory, clock, fakeFutex{}, discardLogger())

	dump := dumpstate.New()
	w.Publish(mixWriteSnapshot(192, sampleRate, sink, 1, 1, dump))

	done := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { done <- w.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for dump.FramesWritten() == 0 {
		select {
		case <-deadline:
			t.Fatal("worker never wrote a frame with the initial format")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	written192 := dump.FramesWritten()
	w.Publish(mixWriteSnapshot(240, sampleRate, sink, 1, 2, dump))

	deadline = time.After(5 * time.Second)
	for numMixers() < 2 {
		select {
		case <-deadline:
			t.Fatal("reconfiguration never rebuilt the mixer")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	cancel()
	<-done

	if written192 == 0 {
		t.Fatal("expected some frames written before reconfiguration")
	}
	first, second := mixerAt(0), mixerAt(1)
	if first.getCalls == 0 {
		t.Error("expected the first mixer to have had a track added")
	}
	if len(first.deleteCalls) == 0 {
		t.Error("expected the first mixer's track to be released on reconfiguration")
	}
	if second.getCalls == 0 {
		t.Error("expected the second mixer to have had the track re-added")
	}
}

// TestLiveVolumePush is scenario S6: a VolumeProvider's packed value is
// split and pushed to the Mixer's two volume fields every render
// cycle.
func TestLiveVolumePush(t *testing.T) {
	const frameCount = 192
	const sampleRate = 48000

	clock := &fakeClock{period: int64(frameCount) * 1e9 / int64(sampleRate)}
	mixer := newEngineMixer()
	ctx, cancel := context.WithCancel(context.Background())
	sink := &countingSink{sampleRate: sampleRate, limit: frameCount * 3, cancel: cancel}

	w := New(func(fc, sr, maxTracks int) (core.Mixer, error) { return mixer, nil }, clock, fakeFutex{}, discardLogger())

	dump := dumpstate.New()
	snapshot := mixWriteSnapshot(frameCount, sampleRate, sink, 1, 1, dump)
	snapshot.Tracks[0].VolumeProvider = fakeVolume{packed: 0x2000_1000}
	w.Publish(snapshot)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return within timeout")
	}

	if len(mixer.volumeL) == 0 {
		t.Fatal("expected at least one volume push")
	}
	for name, l := range mixer.volumeL {
		if l != 0x1000 {
			t.Errorf("name %d: L = %#x, want 0x1000", name, l)
		}
		if r := mixer.volumeR[name]; r != 0x2000 {
			t.Errorf("name %d: R = %#x, want 0x2000", name, r)
		}
	}
}
