//go:build darwin

package pal

import (
	"time"

	"golang.org/x/sys/unix"
)

// fdSetBits is the width, in bits, of one unix.FdSet.Bits element.
const fdSetBits = 32

func fdZero(set *unix.FdSet) {
	for i := range set.Bits {
		set.Bits[i] = 0
	}
}

func fdSet(fd int, set *unix.FdSet) {
	set.Bits[fd/fdSetBits] |= 1 << (uint(fd) % fdSetBits)
}

func fdIsSet(fd int, set *unix.FdSet) bool {
	return set.Bits[fd/fdSetBits]&(1<<(uint(fd)%fdSetBits)) != 0
}

// Poll on Darwin cannot use unix.Poll: poll() on Darwin doesn't support
// devices, which include pseudo-ttys, making it useless for a PTY
// multiplexer. This emulates the same readiness semantics with select(2),
// matching original_source/src/pal.c's __APPLE__ branch.
func Poll(fds []FD, timeoutMs int) (int, error) {
	var readFds, writeFds, errorFds unix.FdSet
	fdZero(&readFds)
	fdZero(&writeFds)
	fdZero(&errorFds)

	maxFd := -1
	for _, f := range fds {
		if f.Events&EventReadable != 0 {
			fdSet(f.Fd, &readFds)
		}
		if f.Events&EventWritable != 0 {
			fdSet(f.Fd, &writeFds)
		}
		fdSet(f.Fd, &errorFds)
		if f.Fd > maxFd {
			maxFd = f.Fd
		}
	}

	var timeout *unix.Timeval
	if timeoutMs >= 0 {
		tv := unix.NsecToTimeval(int64(timeoutMs) * int64(time.Millisecond))
		timeout = &tv
	}

	n, err := unix.Select(maxFd+1, &readFds, &writeFds, &errorFds, timeout)
	if err != nil {
		return 0, err
	}

	for i := range fds {
		fds[i].Revent = 0
		if fdIsSet(fds[i].Fd, &readFds) {
			fds[i].Revent |= fds[i].Events & EventReadable
		}
		if fdIsSet(fds[i].Fd, &writeFds) {
			fds[i].Revent |= fds[i].Events & EventWritable
		}
		if fdIsSet(fds[i].Fd, &errorFds) {
			fds[i].Revent |= EventError | EventHangup
			fds[i].Revent &^= EventWritable
		}
	}

	return n, nil
}
