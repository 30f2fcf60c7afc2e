//go:build linux

package futex

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// futex(2) operation codes from <linux/futex.h>.
const (
	futexWait = 0
	futexWake = 1
)

func newPlatform() Interface { return linuxFutex{} }

// linuxFutex backs Interface with the real Linux futex(2) syscall via
// golang.org/x/sys/unix, giving the cold-idle park true address-based
// wait/wake with no mutex on the real-time path.
type linuxFutex struct{}

func (linuxFutex) Wait(addr *uint32, expected uint32) {
	// Any return — success, EAGAIN (word already changed), EINTR, or a
	// genuine wake — is acceptable: the cold-idle park tolerates
	// spurious wakes and simply re-evaluates state on the next cycle.
	_, _, _ = unix.Syscall6(unix.SYS_FUTEX, uintptr(unsafe.Pointer(addr)), futexWait, uintptr(expected), 0, 0, 0)
}

func (linuxFutex) Wake(addr *uint32) {
	_, _, _ = unix.Syscall6(unix.SYS_FUTEX, uintptr(unsafe.Pointer(addr)), futexWake, 1, 0, 0, 0)
}
