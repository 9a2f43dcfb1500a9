// Package logging provides the leveled diagnostic logger used everywhere
// outside the VT output wire. Stdout is the rendered terminal stream once
// the controller TTY is in raw mode, so nothing in this package ever writes
// there; it writes to a file under the session runtime directory (or
// os.TempDir() as a fallback) instead.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// Level gates which calls actually produce output.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the interface every other package depends on. The CLI layer is
// the sole external collaborator that constructs a concrete Logger.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type logger struct {
	level Level
	std   *log.Logger
}

// New builds a Logger writing to w at the given minimum level.
func New(w io.Writer, level Level) Logger {
	return &logger{level: level, std: log.New(w, "", log.LstdFlags)}
}

// NewSession opens (creating if needed) the per-session log file under the
// runtime directory and returns a Logger writing to it. Never returns an
// error: on any failure to open the file it falls back to io.Discard so a
// logging misconfiguration can never keep the multiplexer from starting.
func NewSession(sessionName string, level Level) Logger {
	dir := runtimeDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return New(io.Discard, level)
	}
	path := filepath.Join(dir, sessionName+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return New(io.Discard, level)
	}
	return New(f, level)
}

func runtimeDir() string {
	return RuntimeDir()
}

// RuntimeDir is the directory sessions write runtime files under:
// $XDG_RUNTIME_DIR/tachyon, or os.TempDir()/tachyon when unset.
func RuntimeDir() string {
	if d := os.Getenv("XDG_RUNTIME_DIR"); d != "" {
		return filepath.Join(d, "tachyon")
	}
	return filepath.Join(os.TempDir(), "tachyon")
}

func (l *logger) logf(level Level, format string, args ...any) {
	if level < l.level {
		return
	}
	l.std.Output(3, fmt.Sprintf("[%s] %s", level, fmt.Sprintf(format, args...)))
}

func (l *logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }
