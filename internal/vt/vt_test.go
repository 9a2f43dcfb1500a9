package vt

import "testing"

func fresh() *VT {
	return New(24, 80, nil)
}

func TestPrintableRowZero(t *testing.T) {
	v := fresh()
	v.Write([]byte("abc\r\ndef"))

	for i, want := range []byte("abc") {
		c, ok := v.GetCell(0, i)
		if !ok || c.Byte != want || c.Flags&CellSet == 0 {
			t.Fatalf("cell(0,%d) = %+v, want byte %q set", i, c, want)
		}
	}
	row, col := v.Cursor()
	if row != 1 || col != 3 {
		t.Fatalf("cursor = (%d,%d), want (1,3)", row, col)
	}
}

func TestTabFill(t *testing.T) {
	v := fresh()
	v.Write([]byte("\tX"))

	c, ok := v.GetCell(0, 8)
	if !ok || c.Byte != 'X' {
		t.Fatalf("cell(0,8) = %+v, want X", c)
	}
	for col := 0; col < 8; col++ {
		cell, _ := v.GetCell(0, col)
		if cell.Byte != ' ' {
			t.Fatalf("cell(0,%d) = %+v, want space", col, cell)
		}
	}
	row, col := v.Cursor()
	if row != 0 || col != 9 {
		t.Fatalf("cursor = (%d,%d), want (0,9)", row, col)
	}
}

func TestEraseDisplayThenWrite(t *testing.T) {
	v := fresh()
	v.Write([]byte("\x1b[2JA"))

	c, ok := v.GetCell(0, 0)
	if !ok || c.Byte != 'A' || c.Flags&CellSet == 0 {
		t.Fatalf("cell(0,0) = %+v, want A set", c)
	}
	row, col := v.Cursor()
	if row != 0 || col != 1 {
		t.Fatalf("cursor = (%d,%d), want (0,1)", row, col)
	}
}

func TestEraseDisplayClearsPriorContent(t *testing.T) {
	v := fresh()
	v.Write([]byte("hello"))
	v.Write([]byte("\r"))   // back to col 0, row unchanged
	v.Write([]byte("\x1b[2J"))

	for col := 0; col < 5; col++ {
		cell, _ := v.GetCell(0, col)
		if cell.Flags&CellSet != 0 {
			t.Fatalf("cell(0,%d) should be cleared, got %+v", col, cell)
		}
	}
}

func TestCursorPosition(t *testing.T) {
	v := fresh()
	v.Write([]byte("\x1b[1;5f@"))

	c, ok := v.GetCell(0, 4)
	if !ok || c.Byte != '@' {
		t.Fatalf("cell(0,4) = %+v, want @", c)
	}
	row, col := v.Cursor()
	if row != 0 || col != 5 {
		t.Fatalf("cursor = (%d,%d), want (0,5)", row, col)
	}
}

func TestCursorPositionMalformedDoesNothing(t *testing.T) {
	v := fresh()
	v.Write([]byte("\x1b[9fX")) // params.len == 1, too short to parse row;col
	row, col := v.Cursor()
	// cursor unaffected by 'f', then 'X' written at (0,0)
	if row != 0 || col != 1 {
		t.Fatalf("cursor = (%d,%d), want (0,1)", row, col)
	}
	c, _ := v.GetCell(0, 0)
	if c.Byte != 'X' {
		t.Fatalf("cell(0,0) = %+v, want X", c)
	}
}

func TestSGRBoldResets(t *testing.T) {
	v := fresh()
	v.Write([]byte("\x1b[1m!\x1b[0m?"))

	c0, _ := v.GetCell(0, 0)
	if c0.Byte != '!' || c0.Flags&Bold == 0 {
		t.Fatalf("cell(0,0) = %+v, want ! with bold", c0)
	}
	c1, _ := v.GetCell(0, 1)
	if c1.Byte != '?' || c1.Flags&Bold != 0 {
		t.Fatalf("cell(0,1) = %+v, want ? without bold", c1)
	}
	if v.current.flags&Bold != 0 {
		t.Fatalf("current style flags still have bold set after reset")
	}
}

func TestAutoscrollOnLF(t *testing.T) {
	v := fresh()
	for i := 0; i < 25; i++ {
		v.Write([]byte("\n"))
	}
	row, _ := v.Cursor()
	if row != v.rows-1 {
		t.Fatalf("row = %d, want %d", row, v.rows-1)
	}
	if len(v.lines) <= v.rows {
		t.Fatalf("expected scroll-back growth, arena has %d lines for %d rows", len(v.lines), v.rows)
	}
	bottom := v.lines[v.bottommost]
	if hasContent(bottom) {
		t.Fatalf("fresh bottommost line should be blank")
	}
}

func TestAutowrapAdvancesToNextRow(t *testing.T) {
	v := fresh()
	v.flags |= FlagAutowrap
	line := make([]byte, v.cols)
	for i := range line {
		line[i] = 'a'
	}
	v.Write(line)
	row, col := v.Cursor()
	if row != 1 || col != 0 {
		t.Fatalf("cursor = (%d,%d), want (1,0) after autowrap", row, col)
	}
}

func TestNoAutowrapPinsLastColumn(t *testing.T) {
	v := fresh()
	line := make([]byte, v.cols+5)
	for i := range line {
		line[i] = 'a'
	}
	v.Write(line)
	row, col := v.Cursor()
	if row != 0 || col != v.cols-1 {
		t.Fatalf("cursor = (%d,%d), want (0,%d)", row, col, v.cols-1)
	}
}

func TestSaveRestoreCursorIsIdentity(t *testing.T) {
	v := fresh()
	v.Write([]byte("abc"))
	before := v.current
	v.Write([]byte{0x1B, '7'})
	v.Write([]byte("xyz"))
	v.Write([]byte{0x1B, '8'})
	if v.current != before {
		t.Fatalf("cursor after save/restore = %+v, want %+v", v.current, before)
	}
}

func TestResetRestoresTabstops(t *testing.T) {
	v := fresh()
	v.Write([]byte("\x1b[3g")) // clear all tabstops
	if v.current.hasTab(8) {
		t.Fatalf("tabstop at 8 should be cleared")
	}
	v.Write([]byte{0x1B, 'c'}) // full reset
	if !v.current.hasTab(8) || !v.current.hasTab(16) {
		t.Fatalf("reset should restore every-8-columns tabstops")
	}
	row, col := v.Cursor()
	if row != 0 || col != 0 {
		t.Fatalf("reset should return cursor to (0,0), got (%d,%d)", row, col)
	}
}

func TestOSCWindowTitleBEL(t *testing.T) {
	v := fresh()
	v.Write([]byte("\x1b]2;hello\x07"))
	if v.WindowTitle() != "hello" {
		t.Fatalf("window title = %q, want %q", v.WindowTitle(), "hello")
	}
}

func TestOSCWindowTitleST(t *testing.T) {
	v := fresh()
	v.Write([]byte("\x1b]0;title-and-icon\x1b\\"))
	if v.WindowTitle() != "title-and-icon" || v.IconName() != "title-and-icon" {
		t.Fatalf("title=%q icon=%q, want both %q", v.WindowTitle(), v.IconName(), "title-and-icon")
	}
}

func TestCursorInvariantHolds(t *testing.T) {
	v := fresh()
	inputs := []byte("the quick brown fox\r\njumped\tover\x1b[2J\x1b[1;1f\x1b[5mlazy\x1b[0m\ndog")
	for _, b := range inputs {
		v.Interpret(b)
		row, col := v.Cursor()
		if row < 0 || row >= v.rows || col < 0 || col >= v.cols {
			t.Fatalf("invariant violated: cursor (%d,%d) out of [0,%d)x[0,%d)", row, col, v.rows, v.cols)
		}
	}
}

func TestViewportChainInvariant(t *testing.T) {
	v := fresh()
	for i := 0; i < 100; i++ {
		v.Write([]byte("x\n"))
	}
	if v.window[v.rows-1] != v.bottommost {
		t.Fatalf("window[rows-1] should equal bottommost at rest")
	}
	seen := make(map[int]bool)
	for idx := v.topmost; idx != noLine; idx = v.lines[idx].next {
		seen[idx] = true
		if idx == v.bottommost {
			break
		}
	}
	for _, idx := range v.window {
		if !seen[idx] {
			t.Fatalf("viewport index %d not reachable from topmost", idx)
		}
	}
}
