// Package pal is the portable abstraction layer: one function, pal_poll in
// spec terms, wrapping the platform's readiness multiplexer so the event
// loop never calls poll(2) or select(2) itself.
package pal

import "golang.org/x/sys/unix"

// Event bits, matching the POLLIN|POLLPRI|POLLRDBAND|POLLOUT|POLLWRBAND|
// POLLERR|POLLHUP subset named by the spec.
const (
	EventReadable = unix.POLLIN | unix.POLLPRI | unix.POLLRDBAND
	EventWritable = unix.POLLOUT | unix.POLLWRBAND
	EventError    = unix.POLLERR
	EventHangup   = unix.POLLHUP
)

// FD is one descriptor's desired/observed event mask.
type FD struct {
	Fd     int
	Events int16 // desired
	Revent int16 // observed, filled in by Poll
}
