// Package buffer implements one child shell's record: non-blocking PTY
// I/O, an output staging region bound for the child, an embedded VT
// emulator, and a predictor hook. Grounded on the teacher's
// internal/virtualterminal.VT (Ptm/Mu/PipeOutput shape) but restructured
// around event-loop callbacks instead of a dedicated goroutine per child,
// per spec.md's single-threaded cooperative scheduling model.
package buffer

import (
	"errors"
	"fmt"
	"syscall"

	"tachyon/internal/eventloop"
	"tachyon/internal/pal"
	"tachyon/internal/predictor"
	"tachyon/internal/ptyhost"
	"tachyon/internal/tachyonerr"
	"tachyon/internal/vt"
)

// OutStageSize is the per-buffer output staging capacity (bytes destined
// for the child), matching the compile-time BUFFER_BUF_SIZE limit.
const OutStageSize = 1024

// ReadChunk is the maximum number of bytes read from the PTY master per
// readiness callback.
const ReadChunk = 1024

// ControllerPort is the subset of the controller a Buffer calls back into.
// Defined here (not in the controller package) so buffer has no import
// dependency on controller, only the reverse.
type ControllerPort interface {
	// Output appends bytes destined for the user's terminal, attributed
	// to bufID; the controller silently drops them if bufID is not the
	// focused buffer.
	Output(bufID int, data []byte) error
	// BufferExiting notifies the controller that bufID's child has gone
	// away (PTY read returned HUP/ERR) so it can free the slot and pick
	// a successor.
	BufferExiting(bufID int)
	// Logger exposes the shared diagnostic logger.
	Logger() Logger
}

// Logger is the minimal logging surface buffer needs.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

// Buffer is one child's complete per-slot state.
type Buffer struct {
	SlotID int

	loop       *eventloop.Loop
	controller ControllerPort
	child      *ptyhost.Child
	vt         *vt.VT
	predictor  *predictor.Predictor

	outStage []byte // bytes destined for the child, capacity OutStageSize
	events   int16  // desired event mask registered with the loop
}

// New implements buffer_init: spins up a predictor, opens a PTY running
// commandLine, creates an embedded VT sized rows x cols, and registers the
// master fd with loop for read-readiness.
func New(slotID int, loop *eventloop.Loop, controller ControllerPort, commandLine, sessionName string, rows, cols int, predictEnabled bool) (*Buffer, error) {
	child, err := ptyhost.New(commandLine, slotID, sessionName, rows, cols)
	if err != nil {
		return nil, err
	}

	b := &Buffer{
		SlotID:     slotID,
		loop:       loop,
		controller: controller,
		child:      child,
		predictor:  predictor.New(predictEnabled),
		outStage:   make([]byte, 0, OutStageSize),
		events:     pal.EventReadable,
	}
	b.vt = vt.New(rows, cols, b.onScrollRedraw)

	loop.Register(int(child.Master.Fd()), b.events, b.onReady)
	return b, nil
}

func (b *Buffer) onScrollRedraw() {
	b.Redraw()
}

// onReady is the registered event-loop callback: error bits first, then
// read, then write, matching the spec's ordering contract for a
// descriptor with multiple simultaneous bits.
func (b *Buffer) onReady(fd int, revents int16) {
	if revents&(pal.EventError|pal.EventHangup) != 0 {
		b.events = 0
		b.loop.SetEvents(fd, 0)
		b.controller.BufferExiting(b.SlotID)
		return
	}
	if revents&pal.EventReadable != 0 {
		b.handleReadable()
	}
	if revents&pal.EventWritable != 0 {
		b.handleWritable()
	}
}

func (b *Buffer) handleReadable() {
	buf := make([]byte, ReadChunk)
	n, err := b.child.Master.Read(buf)
	if n > 0 {
		data := buf[:n]
		b.vt.Write(data)
		if outErr := b.controller.Output(b.SlotID, data); outErr != nil {
			b.controller.Logger().Warnf("buffer %d: controller output full, dropping %d bytes", b.SlotID, n)
		}
	}
	if err != nil && !errors.Is(err, syscall.EAGAIN) {
		b.events = 0
		b.loop.SetEvents(int(b.child.Master.Fd()), 0)
		b.controller.BufferExiting(b.SlotID)
	}
}

func (b *Buffer) handleWritable() {
	n, err := b.child.Master.Write(b.outStage)
	if err != nil && !errors.Is(err, syscall.EAGAIN) {
		b.controller.Logger().Warnf("buffer %d: write error: %v", b.SlotID, err)
		return
	}
	if n > 0 {
		b.outStage = b.outStage[:copy(b.outStage, b.outStage[n:])]
	}
	if len(b.outStage) == 0 {
		b.events &^= pal.EventWritable
		b.loop.SetEvents(int(b.child.Master.Fd()), b.events)
	}
}

// Output implements buffer_output: appends bytes to the PTY-bound stage.
// Fixes the source's addressing bug (§9 open questions) by copying into
// the actual backing array rather than past a pointer's address. Bytes
// pass through the predictor first (an identity transform today).
func (b *Buffer) Output(data []byte) error {
	data = b.predictor.Transform(data)
	if len(b.outStage)+len(data) > OutStageSize {
		return fmt.Errorf("%w: buffer %d output stage", tachyonerr.ErrTemporaryFull, b.SlotID)
	}
	b.outStage = append(b.outStage, data...)
	b.events |= pal.EventWritable
	b.loop.SetEvents(int(b.child.Master.Fd()), b.events)
	return nil
}

// Input implements buffer_input: the named data-path for user keystrokes
// when a buffer is responsible for echoing its own input (terminals that
// do not local-echo). It ships the bytes to the controller's output stage
// and feeds every byte through the VT for screen-state bookkeeping. The
// controller's primary stdin-forwarding path uses Output (writing to the
// PTY so the child shell's own line discipline echoes normally); Input is
// the documented alternate path named by the component design.
func (b *Buffer) Input(data []byte) error {
	err := b.controller.Output(b.SlotID, data)
	b.vt.Write(data)
	return err
}

// SetWinsize implements buffer_set_winsize: forwards the size to the PTY
// only. Resizing the VT grid is explicitly a non-goal (§9) — the VT keeps
// its init-time dimensions for the buffer's lifetime.
func (b *Buffer) SetWinsize(rows, cols int) error {
	return ptyhost.SetWinsize(b.child.Master, rows, cols)
}

// Redraw implements buffer_redraw: emits a cursor-home sequence, one byte
// per on-screen cell (space where unset) with SGR style wrapping for any
// non-zero style bits, rows separated by CRLF, finishing by positioning
// the cursor at the VT's current (row+1, col+1).
func (b *Buffer) Redraw() {
	var out []byte
	out = append(out, "\x1b[f"...)

	rows, cols := b.vt.Rows(), b.vt.Cols()
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cell, _ := b.vt.GetCell(row, col)
			if cell.Flags&vt.CellSet == 0 {
				out = append(out, ' ')
				continue
			}
			out = appendStyleWrap(out, cell)
		}
		if row < rows-1 {
			out = append(out, '\r', '\n')
		}
	}

	curRow, curCol := b.vt.Cursor()
	out = append(out, fmt.Sprintf("\x1b[%d;%df", curRow+1, curCol+1)...)

	if err := b.controller.Output(b.SlotID, out); err != nil {
		b.controller.Logger().Warnf("buffer %d: redraw dropped, controller stage full", b.SlotID)
	}
}

func appendStyleWrap(out []byte, cell vt.Cell) []byte {
	style := cell.Flags &^ vt.CellSet
	if style&vt.Bold != 0 {
		out = append(out, "\x1b[1m"...)
	}
	if style&vt.Underline != 0 {
		out = append(out, "\x1b[4m"...)
	}
	if style&vt.Blink != 0 {
		out = append(out, "\x1b[5m"...)
	}
	if style&vt.Reverse != 0 {
		out = append(out, "\x1b[7m"...)
	}
	out = append(out, cell.Byte)
	if style != 0 {
		out = append(out, "\x1b[0m"...)
	}
	return out
}

// Free implements buffer_free: deregisters the master fd, closes it, and
// releases the buffer. The VT's line arena is reclaimed by the garbage
// collector along with the rest of the struct — there is no manual
// walk-and-free step to mirror the original's explicit chain teardown.
func (b *Buffer) Free() {
	fd := int(b.child.Master.Fd())
	b.loop.Deregister(fd)
	b.child.Master.Close()
}

// VT exposes the embedded terminal emulator for the controller's render
// path (e.g. reading cells to decide whether a redraw is needed).
func (b *Buffer) VT() *vt.VT { return b.vt }
