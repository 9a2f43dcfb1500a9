// Package termstyle wraps NOTIFY-line text in SGR codes when stdout is a
// real TTY, so controller notifications (buffer-switch failures, "no other
// buffer") read as distinct from ordinary shell output. Separate from the
// VT emulator's own SGR handling in internal/vt — this package styles text
// the controller writes directly to its own stdout stage, never anything
// that passes through a buffer's emulated screen.
package termstyle

import (
	"os"

	"github.com/mattn/go-isatty"
)

// enabled tracks whether ANSI styling is active. Defaults to whether
// stdout is a TTY; the controller can override this (e.g. under a test
// harness piping stdout to a file).
var enabled = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

// SetEnabled overrides the auto-detected TTY check.
func SetEnabled(on bool) {
	enabled = on
}

// Enabled returns whether styling is currently active.
func Enabled() bool {
	return enabled
}

func wrap(code, s string) string {
	if !enabled || s == "" {
		return s
	}
	return code + s + "\033[0m"
}

// Dim renders the NOTIFY "-- " prefix faint, so it reads as the
// multiplexer talking rather than the shell.
func Dim(s string) string { return wrap("\033[2m", s) }

// Yellow renders a notify body, e.g. "No other buffer!".
func Yellow(s string) string { return wrap("\033[33m", s) }
