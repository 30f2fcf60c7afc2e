package softmix

import (
	"testing"
	"unsafe"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/core"
)

type constBuffer struct {
	frame []int16
}

func (b constBuffer) GetBuffer(frameCount int) []int16 {
	out := make([]int16, frameCount*2)
	for i := range out {
		out[i] = b.frame[i%len(b.frame)]
	}
	return out
}

// heapBufs keeps every buffer passed to addr reachable from a package
// variable, so the compiler allocates it on the heap. A buffer on a
// goroutine stack can move when the stack grows, leaving the address
// the Mixer holds pointing at stale memory.
var heapBufs [][]int16

func addr(buf []int16) uint64 {
	heapBufs = append(heapBufs, buf)
	return uint64(uintptr(unsafe.Pointer(&buf[0])))
}

func TestProcessSumsTwoTracksAtUnityVolume(t *testing.T) {
	factory := New()
	mixer, err := factory(2, 48000, core.MaxTracks)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}

	mixBuf := make([]int16, 4)
	a := mixer.GetTrackName()
	b := mixer.GetTrackName()
	if a < 0 || b < 0 {
		t.Fatalf("GetTrackName returned negative name: a=%d b=%d", a, b)
	}

	mixer.SetBufferProvider(a, constBuffer{frame: []int16{1000, 1000}})
	mixer.SetBufferProvider(b, constBuffer{frame: []int16{2000, 2000}})
	for _, name := range []int32{a, b} {
		if err := mixer.SetParameter(name, core.ParamGroupTrack, core.ParamFieldMainBuffer, addr(mixBuf)); err != nil {
			t.Fatalf("SetParameter main buffer: %v", err)
		}
		if err := mixer.SetParameter(name, core.ParamGroupVolume, core.ParamFieldVolume0, uint64(core.UnityVolume)); err != nil {
			t.Fatalf("SetParameter volume0: %v", err)
		}
		if err := mixer.SetParameter(name, core.ParamGroupVolume, core.ParamFieldVolume1, uint64(core.UnityVolume)); err != nil {
			t.Fatalf("SetParameter volume1: %v", err)
		}
		mixer.Enable(name)
	}

	if err := mixer.Process(core.InvalidPTS); err != nil {
		t.Fatalf("Process: %v", err)
	}

	for i, v := range mixBuf {
		if v != 3000 {
			t.Errorf("mixBuf[%d] = %d, want 3000", i, v)
		}
	}
}

func TestProcessScalesByPushedVolume(t *testing.T) {
	factory := New()
	mixer, err := factory(1, 48000, core.MaxTracks)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}

	mixBuf := make([]int16, 2)
	name := mixer.GetTrackName()
	mixer.SetBufferProvider(name, constBuffer{frame: []int16{4096, 4096}})
	mixer.SetParameter(name, core.ParamGroupTrack, core.ParamFieldMainBuffer, addr(mixBuf))
	mixer.SetParameter(name, core.ParamGroupVolume, core.ParamFieldVolume0, uint64(core.UnityVolume)/2)
	mixer.SetParameter(name, core.ParamGroupVolume, core.ParamFieldVolume1, uint64(core.UnityVolume)/2)
	mixer.Enable(name)

	if err := mixer.Process(core.InvalidPTS); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if mixBuf[0] != 2048 || mixBuf[1] != 2048 {
		t.Errorf("mixBuf = %v, want [2048 2048] (half volume)", mixBuf)
	}
}

func TestProcessClearsBufferBeforeEachCycle(t *testing.T) {
	factory := New()
	mixer, err := factory(1, 48000, core.MaxTracks)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}

	mixBuf := make([]int16, 2)
	name := mixer.GetTrackName()
	mixer.SetBufferProvider(name, constBuffer{frame: []int16{100, 100}})
	mixer.SetParameter(name, core.ParamGroupTrack, core.ParamFieldMainBuffer, addr(mixBuf))
	mixer.SetParameter(name, core.ParamGroupVolume, core.ParamFieldVolume0, uint64(core.UnityVolume))
	mixer.SetParameter(name, core.ParamGroupVolume, core.ParamFieldVolume1, uint64(core.UnityVolume))
	mixer.Enable(name)

	for i := 0; i < 3; i++ {
		if err := mixer.Process(core.InvalidPTS); err != nil {
			t.Fatalf("Process cycle %d: %v", i, err)
		}
	}
	if mixBuf[0] != 100 || mixBuf[1] != 100 {
		t.Errorf("mixBuf after 3 cycles = %v, want [100 100] (no accumulation)", mixBuf)
	}
}

func TestDeleteTrackNameFreesSlotForReuse(t *testing.T) {
	factory := New()
	mixer, err := factory(1, 48000, 2)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}

	a := mixer.GetTrackName()
	b := mixer.GetTrackName()
	if mixer.GetTrackName() >= 0 {
		t.Fatalf("expected GetTrackName to report exhaustion at maxTracks=2")
	}
	mixer.DeleteTrackName(a)
	if mixer.GetTrackName() < 0 {
		t.Fatalf("expected a reused name after DeleteTrackName")
	}
	_ = b
}
