package dumpstate

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestWriteSequenceParity(t *testing.T) {
	s := New()
	if s.WriteSequence()%2 != 0 {
		t.Fatalf("initial writeSequence must be even, got %d", s.WriteSequence())
	}
	s.BeginWrite()
	if s.WriteSequence()%2 == 0 {
		t.Fatalf("writeSequence must be odd during a write, got %d", s.WriteSequence())
	}
	s.AddFramesWritten(192)
	s.EndWrite()
	if s.WriteSequence()%2 != 0 {
		t.Fatalf("writeSequence must be even after a write, got %d", s.WriteSequence())
	}
	if got := s.FramesWritten(); got != 192 {
		t.Fatalf("FramesWritten = %d, want 192", got)
	}
}

func TestCountersAccumulate(t *testing.T) {
	s := New()
	s.IncUnderruns()
	s.IncUnderruns()
	s.IncOverruns()
	s.IncWriteErrors()
	s.SetNumTracks(3)

	if s.Underruns() != 2 {
		t.Errorf("Underruns = %d, want 2", s.Underruns())
	}
	if s.Overruns() != 1 {
		t.Errorf("Overruns = %d, want 1", s.Overruns())
	}
	if s.WriteErrors() != 1 {
		t.Errorf("WriteErrors = %d, want 1", s.WriteErrors())
	}
	if s.NumTracks() != 3 {
		t.Errorf("NumTracks = %d, want 3", s.NumTracks())
	}
}

func TestStatsWindowPublishesAtN(t *testing.T) {
	s := New()
	if _, _, _, _, ok := s.Stats(); ok {
		t.Fatalf("Stats should not be valid before any window completes")
	}
	for i := 0; i < statsWindow-1; i++ {
		s.ObserveCycleSeconds(0.004)
	}
	if _, _, _, _, ok := s.Stats(); ok {
		t.Fatalf("Stats became valid before statsWindow samples were observed")
	}
	s.ObserveCycleSeconds(0.004)
	mean, min, max, stddev, ok := s.Stats()
	if !ok {
		t.Fatalf("Stats should be valid after statsWindow samples")
	}
	if mean != 0.004 || min != 0.004 || max != 0.004 || stddev != 0 {
		t.Errorf("got mean=%v min=%v max=%v stddev=%v, want all 0.004/stddev 0", mean, min, max, stddev)
	}
}

func TestStringHasRequiredLines(t *testing.T) {
	s := New()
	s.SetCommand(1 << 3) // cmdMix bit position per this package's local encoding
	out := s.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("String() without completed stats window should have exactly 2 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "command=") || !strings.Contains(lines[0], "writeSequence=") {
		t.Errorf("first line missing required fields: %q", lines[0])
	}
	if !strings.Contains(lines[1], "framesWritten=") || !strings.Contains(lines[1], "numTracks=") {
		t.Errorf("second line missing required fields: %q", lines[1])
	}
}

func TestMarshalJSONOmitsStatsWhenInvalid(t *testing.T) {
	s := New()
	s.AddFramesWritten(10)
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, present := m["mean"]; present {
		t.Errorf("mean should be omitted before a stats window completes, got %s", b)
	}
	if m["framesWritten"].(float64) != 10 {
		t.Errorf("framesWritten = %v, want 10", m["framesWritten"])
	}
}
