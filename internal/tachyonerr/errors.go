// Package tachyonerr defines the sentinel error taxonomy shared across the
// multiplexer: the PTY host, buffers and the controller wrap one of these
// with fmt.Errorf("...: %w", ...) rather than inventing ad-hoc error
// strings. PAL and the event loop return OS errors as they are, and the VT
// emulator returns no errors.
package tachyonerr

import "errors"

var (
	// ErrOutOfMemory means a backing allocation (event-loop registry growth,
	// buffer-slot table) could not be satisfied.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrTemporaryFull means a staging region cannot accept more bytes right
	// now; the caller drops the bytes and expects the next readiness cycle
	// to drain the backlog. Never fatal.
	ErrTemporaryFull = errors.New("staging region temporarily full")

	// ErrChildExited means a PTY master read returned HUP/ERR.
	ErrChildExited = errors.New("child exited")

	// ErrSetupFailure means openpt/grant/unlock/slave-open/fork failed.
	// Fatal to the process during single-buffer startup.
	ErrSetupFailure = errors.New("pty setup failed")

	// ErrParseError marks malformed VT parameters. Always absorbed locally;
	// must never be allowed to propagate out of the VT emulator.
	ErrParseError = errors.New("vt parse error")
)
