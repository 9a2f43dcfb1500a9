package controller

import (
	"io"
	"testing"

	"tachyon/internal/buffer"
	"tachyon/internal/eventloop"
	"tachyon/internal/logging"
)

func testController(t *testing.T) *Controller {
	t.Helper()
	loop, err := eventloop.New()
	if err != nil {
		t.Fatalf("eventloop.New: %v", err)
	}
	t.Cleanup(func() { loop.Close() })

	log := logging.New(io.Discard, logging.LevelError)
	c := New(loop, nil, "/bin/sh", "test-session", false, log, DefaultKeys())
	for i := range c.lastUsed {
		c.lastUsed[i] = noBuffer
	}
	return c
}

// spawnBuffer plants a real child (cat, which just blocks reading its own
// stdin) into slot so code paths that call through to Buffer.Redraw (e.g.
// setCurrentBuffer on success) have a live VT to render, not a bare
// zero-value struct with a nil *vt.VT.
func spawnBuffer(t *testing.T, c *Controller, slot int) {
	t.Helper()
	buf, err := buffer.New(slot, c.loop, c, "cat", "test-session", 24, 80, false)
	if err != nil {
		t.Fatalf("buffer.New: %v", err)
	}
	t.Cleanup(buf.Free)
	c.buffers[slot] = buf
}

func TestBufstackSwapCommonCase(t *testing.T) {
	c := testController(t)
	c.lastUsed = [MaxBuffers - 1]int{2, noBuffer, noBuffer, noBuffer, noBuffer, noBuffer, noBuffer, noBuffer, noBuffer}
	c.bufstackSwap(5, 2)
	if c.lastUsed[0] != 5 {
		t.Fatalf("lastUsed[0] = %d, want 5", c.lastUsed[0])
	}
}

func TestBufstackSwapGeneralCase(t *testing.T) {
	c := testController(t)
	for i := range c.lastUsed {
		c.lastUsed[i] = noBuffer
	}
	c.lastUsed[0] = 3
	c.lastUsed[1] = 1
	// entering=4 not present, first -1 is at index 2
	c.bufstackSwap(7, 4)
	want := [MaxBuffers - 1]int{7, 3, 1, noBuffer, noBuffer, noBuffer, noBuffer, noBuffer, noBuffer}
	if c.lastUsed != want {
		t.Fatalf("lastUsed = %v, want %v", c.lastUsed, want)
	}
}

func TestBufstackRemove(t *testing.T) {
	c := testController(t)
	for i := range c.lastUsed {
		c.lastUsed[i] = noBuffer
	}
	c.lastUsed[0] = 5
	c.lastUsed[1] = 2
	c.lastUsed[2] = 9
	c.bufstackRemove(2)
	want := [MaxBuffers - 1]int{5, 9, noBuffer, noBuffer, noBuffer, noBuffer, noBuffer, noBuffer, noBuffer}
	if c.lastUsed != want {
		t.Fatalf("lastUsed after remove = %v, want %v", c.lastUsed, want)
	}
}

func TestBufstackRemoveNotFoundLogsAndLeavesStack(t *testing.T) {
	c := testController(t)
	for i := range c.lastUsed {
		c.lastUsed[i] = noBuffer
	}
	c.lastUsed[0] = 5
	before := c.lastUsed
	c.bufstackRemove(9) // not present
	if c.lastUsed != before {
		t.Fatalf("stack should be unchanged when bufnum absent, got %v", c.lastUsed)
	}
}

func TestHandleMetakeyPassthrough(t *testing.T) {
	c := testController(t)
	in := []byte("hello world")
	out := c.handleMetakey(append([]byte(nil), in...))
	if string(out) != string(in) {
		t.Fatalf("passthrough mutated bytes: got %q, want %q", out, in)
	}
}

func TestHandleMetakeyEscape(t *testing.T) {
	c := testController(t)
	meta := control(c.keys.Meta)
	in := []byte{'a', meta, c.keys.Meta, 'b'}
	out := c.handleMetakey(in)
	want := []byte{'a', c.keys.Meta, 'b'}
	if string(out) != string(want) {
		t.Fatalf("escape = %q, want %q", out, want)
	}
	if c.inMeta {
		t.Fatalf("inMeta should be cleared after escape")
	}
}

func TestHandleMetakeyUnknownCommandDropped(t *testing.T) {
	c := testController(t)
	meta := control(c.keys.Meta)
	in := []byte{'a', meta, '!', 'b'}
	out := c.handleMetakey(in)
	want := []byte{'a', 'b'}
	if string(out) != string(want) {
		t.Fatalf("unknown meta command = %q, want %q", out, want)
	}
}

func TestHandleMetakeyGotoBufferDispatches(t *testing.T) {
	c := testController(t)
	spawnBuffer(t, c, 3)
	meta := control(c.keys.Meta)
	in := []byte{meta, '3'}
	out := c.handleMetakey(in)
	if len(out) != 0 {
		t.Fatalf("goto-buffer sequence should be fully consumed, got %q", out)
	}
	if c.currentIdx != 3 {
		t.Fatalf("currentIdx = %d, want 3 after goto", c.currentIdx)
	}
}

func TestGotoBufferMissingNotifies(t *testing.T) {
	c := testController(t)
	c.gotoBuffer(7)
	if len(c.outStage) == 0 {
		t.Fatalf("expected a notify line staged for a missing buffer")
	}
}

func TestSetCurrentBufferInvalidIsNoOp(t *testing.T) {
	c := testController(t)
	c.currentIdx = 0
	c.setCurrentBuffer(5) // buffers[5] is nil
	if c.currentIdx != 0 {
		t.Fatalf("currentIdx changed to %d on an invalid target", c.currentIdx)
	}
	if len(c.outStage) != 0 {
		t.Fatalf("no clear/redraw should be staged for an invalid target")
	}
}

func TestNewBufferNoFreeSlotsNotifies(t *testing.T) {
	c := testController(t)
	for i := range c.buffers {
		c.buffers[i] = &buffer.Buffer{}
	}
	c.newBuffer()
	if len(c.outStage) == 0 {
		t.Fatalf("expected a notify line staged when every slot is full")
	}
}

func TestControllerOutputDropsForUnfocusedBuffer(t *testing.T) {
	c := testController(t)
	c.currentIdx = 0
	if err := c.Output(1, []byte("ignored")); err != nil {
		t.Fatalf("Output for unfocused buffer should succeed (silently dropped): %v", err)
	}
	if len(c.outStage) != 0 {
		t.Fatalf("bytes for an unfocused buffer should not be staged")
	}
}

func TestControllerOutputStagesForFocusedBuffer(t *testing.T) {
	c := testController(t)
	c.currentIdx = 2
	if err := c.Output(2, []byte("hi")); err != nil {
		t.Fatalf("Output: %v", err)
	}
	if string(c.outStage) != "hi" {
		t.Fatalf("outStage = %q, want %q", c.outStage, "hi")
	}
}

func TestBufferExitingPicksStackTopSuccessor(t *testing.T) {
	c := testController(t)
	spawnBuffer(t, c, 0)
	spawnBuffer(t, c, 2)
	for i := range c.lastUsed {
		c.lastUsed[i] = noBuffer
	}
	c.lastUsed[0] = 2
	c.currentIdx = 0

	c.BufferExiting(0)

	if c.currentIdx != 2 {
		t.Fatalf("currentIdx = %d, want 2 (stack-top successor)", c.currentIdx)
	}
	if !c.run {
		t.Fatalf("run should remain true when a successor exists")
	}
}

func TestBufferExitingStopsWhenNoSuccessor(t *testing.T) {
	c := testController(t)
	spawnBuffer(t, c, 0)
	for i := range c.lastUsed {
		c.lastUsed[i] = noBuffer
	}
	c.currentIdx = 0

	c.BufferExiting(0)

	if c.run {
		t.Fatalf("run should become false when no buffer remains")
	}
}

func TestLoggerReturnsUnderlyingLogger(t *testing.T) {
	c := testController(t)
	if c.Logger() == nil {
		t.Fatalf("Logger() returned nil")
	}
}
