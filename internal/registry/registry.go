// Package registry implements the TrackRegistry: it maps the 32-slot
// track bitmask to opaque names inside the external Mixer, diffing
// consecutive StateSnapshots and reconciling in a fixed order
// (removals, then additions, then generation-only rebinds).
package registry

import (
	"math/bits"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/core"
)

// Registry tracks which Mixer name backs each of the 32 track slots.
// Used from exactly one goroutine (the real-time worker); not safe for
// concurrent use.
type Registry struct {
	names      [core.MaxTracks]int32
	haveName   [core.MaxTracks]bool
	generation [core.MaxTracks]uint64

	previousMask uint32
	observedGen  uint64
	haveObserved bool
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{}
}

// NumTracks returns popcount(currentMask) as of the last Reconcile
// call, or 0 before the first call.
func (r *Registry) NumTracks() int {
	return bits.OnesCount32(r.previousMask)
}

// Reconcile brings the Mixer's track set in line with current.
// mixBufferAddr identifies the mix buffer to bind newly
// added tracks' main output to (opaque, passed through to
// Mixer.SetParameter). It is a no-op if current.FastTracksGen matches
// the last observed generation.
func (r *Registry) Reconcile(mixer core.Mixer, current *core.StateSnapshot, mixBufferAddr uint64) error {
	if r.haveObserved && current.FastTracksGen == r.observedGen {
		return nil
	}

	currentMask := current.TrackMask
	removed := r.previousMask &^ currentMask
	added := currentMask &^ r.previousMask
	kept := currentMask & r.previousMask

	for removed != 0 {
		slot := bits.TrailingZeros32(removed)
		removed &^= 1 << uint(slot)
		if r.haveName[slot] {
			mixer.DeleteTrackName(r.names[slot])
			r.haveName[slot] = false
		}
	}

	for added != 0 {
		slot := bits.TrailingZeros32(added)
		added &^= 1 << uint(slot)

		track := current.Tracks[slot]
		if track.BufferProvider == nil {
			return &core.FatalError{Kind: core.FatalNilBufferProvider}
		}

		name := mixer.GetTrackName()
		if name < 0 {
			return &core.FatalError{Kind: core.FatalNegativeTrackName}
		}
		r.names[slot] = name
		r.haveName[slot] = true
		r.generation[slot] = track.Generation

		mixer.SetBufferProvider(name, track.BufferProvider)
		if err := mixer.SetParameter(name, core.ParamGroupTrack, core.ParamFieldMainBuffer, mixBufferAddr); err != nil {
			return err
		}
		// New names default to unity volume regardless of whether the
		// track carries a VolumeProvider; the render phase pushes its
		// actual value on the next cycle.
		if err := core.PushVolume(mixer, name, core.UnityVolumeLR); err != nil {
			return err
		}
		mixer.Enable(name)
	}

	for kept != 0 {
		slot := bits.TrailingZeros32(kept)
		kept &^= 1 << uint(slot)

		track := current.Tracks[slot]
		if track.BufferProvider == nil {
			return &core.FatalError{Kind: core.FatalNilBufferProvider}
		}
		if track.Generation == r.generation[slot] {
			continue
		}
		if !r.haveName[slot] {
			continue
		}
		name := r.names[slot]
		r.generation[slot] = track.Generation

		mixer.SetBufferProvider(name, track.BufferProvider)
		// A rebind with no VolumeProvider resets to unity; one that
		// still has a provider is left alone — the render phase keeps
		// pushing its live value every cycle.
		if track.VolumeProvider == nil {
			if err := core.PushVolume(mixer, name, core.UnityVolumeLR); err != nil {
				return err
			}
		}
	}

	r.previousMask = currentMask
	r.observedGen = current.FastTracksGen
	r.haveObserved = true
	return nil
}

// NameForSlot returns the Mixer name bound to slot, if any. Used by the
// render phase to push per-cycle live volume without keeping its own
// copy of the slot→name mapping.
func (r *Registry) NameForSlot(slot int) (int32, bool) {
	return r.names[slot], r.haveName[slot]
}

// ReleaseAll deletes every currently bound name from mixer and resets
// the Registry to empty. Used on teardown and ahead of a mixer
// reconfiguration.
func (r *Registry) ReleaseAll(mixer core.Mixer) {
	mask := r.previousMask
	for mask != 0 {
		slot := bits.TrailingZeros32(mask)
		mask &^= 1 << uint(slot)
		if r.haveName[slot] {
			mixer.DeleteTrackName(r.names[slot])
		}
	}
	*r = Registry{}
}

// Invalidate forces the next Reconcile call to do a full re-add of
// every currently active slot, by resetting the Registry to empty: no
// observed generation, no previous mask and no name bindings, since a
// reconfiguration invalidates the Mixer's name mappings.
func (r *Registry) Invalidate() {
	*r = Registry{}
}
