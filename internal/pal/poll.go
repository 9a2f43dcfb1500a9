//go:build !darwin

// Package pal is the portable abstraction layer: one function, pal_poll in
// spec terms, wrapping the platform's readiness multiplexer so the event
// loop never calls poll(2) or select(2) itself.
package pal

import (
	"golang.org/x/sys/unix"
)

// Poll blocks (timeoutMs < 0) or waits up to timeoutMs milliseconds for
// readiness on fds, filling in each entry's Revent. Returns the number of
// descriptors with a nonzero Revent, 0 on timeout, or an error on failure
// (including unix.EINTR — restarting the wait on EINTR is the event loop's
// responsibility, per spec, not this layer's).
//
// On Linux (and other non-Darwin unix targets) poll() already handles every
// descriptor type the multiplexer registers, including PTY masters, so
// unix.Poll can be used directly. Darwin's poll() cannot wait on character
// devices, pseudo-ttys among them, and needs the select(2) emulation in
// poll_darwin.go instead.
func Poll(fds []FD, timeoutMs int) (int, error) {
	raw := make([]unix.PollFd, len(fds))
	for i, f := range fds {
		raw[i] = unix.PollFd{Fd: int32(f.Fd), Events: f.Events}
	}
	n, err := unix.Poll(raw, timeoutMs)
	if err != nil {
		return 0, err
	}
	for i := range raw {
		fds[i].Revent = raw[i].Revents
		if raw[i].Revents&EventError != 0 {
			fds[i].Revent &^= EventWritable
		}
	}
	return n, nil
}
