// Package ptyhost opens PTY master/slave pairs, forks a child with the
// slave as its controlling TTY, and manages the controller's own TTY mode
// across the program's lifetime. Grounded on the teacher's
// internal/virtualterminal.VT.StartPTY (env-override + pty.StartWithSize
// shape) but reworked so the multiplexer drives the fork/exec itself — the
// spec requires a specific argv/env construction (TACHYON_BUFNUM,
// TACHYON_SESSION, basename-derived argv[0]) that os/exec's normal argv
// handling does not produce on its own.
package ptyhost

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/creack/pty"
	"github.com/google/shlex"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"tachyon/internal/tachyonerr"
)

// Child is a spawned PTY: the master fd the event loop reads/writes and the
// exec.Cmd tracking the forked process.
type Child struct {
	Master *os.File
	Cmd    *exec.Cmd
}

// New implements tty_new: opens a PTY, forks a child running commandLine
// under the slave as its controlling TTY, with TACHYON_BUFNUM and
// TACHYON_SESSION set in its environment, and returns the master fd.
//
// commandLine is tokenised shell-style (quote-aware, via google/shlex
// rather than a naive whitespace split) into argv. The first word is
// resolved with exec.LookPath (a bare name is searched for in $PATH); a
// word that does not resolve is returned as an ErrSetupFailure. argv[0] as
// observed by the child is the basename of the first word, which is also
// the basename of the resolved path; "unknown" is used only when that
// basename is empty, "." or "/".
func New(commandLine string, slotID int, sessionName string, rows, cols int) (*Child, error) {
	argv, err := shlex.Split(commandLine)
	if err != nil || len(argv) == 0 {
		return nil, fmt.Errorf("%w: tokenising command line %q: %v", tachyonerr.ErrSetupFailure, commandLine, err)
	}

	path, lookErr := exec.LookPath(argv[0])
	if lookErr != nil {
		return nil, fmt.Errorf("%w: resolving %q: %v", tachyonerr.ErrSetupFailure, argv[0], lookErr)
	}

	name := filepath.Base(argv[0])
	if name == "." || name == "/" || name == "" {
		name = "unknown"
	}

	cmd := exec.Command(path, argv[1:]...)
	cmd.Args[0] = name
	cmd.Env = append(os.Environ(),
		"TACHYON_BUFNUM="+strconv.Itoa(slotID),
		"TACHYON_SESSION="+sessionName,
	)

	master, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		return nil, fmt.Errorf("%w: fork/exec %q: %v", tachyonerr.ErrSetupFailure, path, err)
	}
	if err := unix.SetNonblock(int(master.Fd()), true); err != nil {
		master.Close()
		return nil, fmt.Errorf("%w: set nonblocking master: %v", tachyonerr.ErrSetupFailure, err)
	}

	return &Child{Master: master, Cmd: cmd}, nil
}

// SetWinsize propagates rows/cols to the PTY; the kernel in turn raises
// SIGWINCH in the child's foreground process group.
func SetWinsize(f *os.File, rows, cols int) error {
	return pty.Setsize(f, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

// GetWinsize reads back the PTY's current size.
func GetWinsize(f *os.File) (rows, cols int, err error) {
	ws, err := pty.GetsizeFull(f)
	if err != nil {
		return 0, 0, err
	}
	return int(ws.Rows), int(ws.Cols), nil
}

// ControllerTTY manages save/restore of the controlling terminal's mode
// across the process lifetime (tty_save_termstate / tty_restore_termstate /
// tty_configure_control_tty).
type ControllerTTY struct {
	f     *os.File
	saved *term.State
}

// Open wraps the given fd (normally os.Stdin) as the controller TTY.
func Open(f *os.File) *ControllerTTY {
	return &ControllerTTY{f: f}
}

// SaveState snapshots the current termios so RestoreState can undo whatever
// ConfigureControlTTY does.
func (c *ControllerTTY) SaveState() error {
	st, err := term.GetState(int(c.f.Fd()))
	if err != nil {
		return fmt.Errorf("%w: save termstate: %v", tachyonerr.ErrSetupFailure, err)
	}
	c.saved = st
	return nil
}

// RestoreState restores the termios captured by SaveState. No-op if
// SaveState was never called or failed.
func (c *ControllerTTY) RestoreState() error {
	if c.saved == nil {
		return nil
	}
	return term.Restore(int(c.f.Fd()), c.saved)
}

// ConfigureControlTTY clears ICANON|ECHO|ECHONL and sets VMIN=1, VTIME=0 —
// deliberately narrower than term.MakeRaw, which also clears ISIG/IXON/
// output processing the spec does not ask for (Ctrl-C still generates
// SIGINT at the controller's TTY line discipline; only line-buffering and
// local echo are disabled, since the controller forwards keystrokes to the
// focused child's PTY via Buffer.Output and the child's own line discipline
// echoes them).
func (c *ControllerTTY) ConfigureControlTTY() error {
	fd := int(c.f.Fd())
	t, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return fmt.Errorf("%w: get termios: %v", tachyonerr.ErrSetupFailure, err)
	}
	t.Lflag &^= unix.ICANON | unix.ECHO | unix.ECHONL
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, t); err != nil {
		return fmt.Errorf("%w: set termios: %v", tachyonerr.ErrSetupFailure, err)
	}
	// "set stdout to unbuffered" — os.Stdout.Write is already unbuffered
	// (no bufio wrapper anywhere in the output path), satisfying this
	// clause without an explicit call.
	return nil
}

// Winsize reads the current terminal size of the controller TTY.
func (c *ControllerTTY) Winsize() (rows, cols int, err error) {
	return GetWinsize(c.f)
}
