// Package options is the parsed command-line surface, the Go analogue of
// the original's cmd_options struct (options.h): predict, verbose,
// new_buf_command, keys. The session name is not an option here; it is
// resolved by internal/tachyonsession. Populated once by internal/cmd's
// cobra layer, which hands its fields to the controller — there is no
// internal/config-style file-backed configuration, per spec.md's non-goals.
package options

import (
	"os"

	"tachyon/internal/controller"
	"tachyon/internal/logging"
)

// Options holds every CLI-settable knob.
type Options struct {
	Hello   bool
	Predict bool
	Shell   string
	Verbose int  // count of -v occurrences
	Quiet   bool // -q: force LevelError regardless of Verbose
	Keys    controller.Keys
}

// Default returns the option set in effect when no flags are given:
// predictor off, $SHELL (or /bin/sh), default keybindings, INFO logging.
func Default() Options {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return Options{
		Shell: shell,
		Keys:  controller.DefaultKeys(),
	}
}

// LogLevel maps -v/-q counts onto a logging.Level: quiet pins ERROR;
// otherwise each -v drops the threshold one level below the INFO default,
// floored at DEBUG.
func (o Options) LogLevel() logging.Level {
	if o.Quiet {
		return logging.LevelError
	}
	level := logging.LevelInfo - logging.Level(o.Verbose)
	if level < logging.LevelDebug {
		level = logging.LevelDebug
	}
	return level
}
