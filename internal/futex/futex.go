// Package futex implements the "wait while word equals expected" /
// "wake by address" primitive cold-idle parking uses.
// futex_linux.go backs it with the real Linux futex syscall;
// futex_other.go falls back to a sync.Cond-guarded implementation on
// every other GOOS, explicitly documented as possibly
// priority-inverting since it takes a mutex the real-time goroutine
// would otherwise never touch.
package futex

// New returns the platform's Futex implementation.
func New() Interface {
	return newPlatform()
}

// Interface is the address-based wait/wake contract. It
// satisfies internal/core.Futex; kept as its own type here so this
// package does not need to import internal/core.
type Interface interface {
	// Wait blocks the calling goroutine while *addr == expected. A
	// concurrent Wake on the same address, or a spurious wake, is
	// both permitted to return early.
	Wait(addr *uint32, expected uint32)
	// Wake releases any goroutine parked on addr.
	Wake(addr *uint32)
}
