package fastmixer

import "github.com/STS-Dev-Team/platform-frameworks-av/internal/core"

// FatalError signals an unresolvable condition: an unknown command or
// a broken controller invariant. A worker that
// returns a FatalError from Run must not be restarted.
type FatalError = core.FatalError

// FatalKind classifies a FatalError.
type FatalKind = core.FatalKind

const (
	FatalUnknownCommand    = core.FatalUnknownCommand
	FatalNilBufferProvider = core.FatalNilBufferProvider
	FatalNegativeTrackName = core.FatalNegativeTrackName
	FatalBadChannelCount   = core.FatalBadChannelCount
)
