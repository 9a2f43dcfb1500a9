package vt

// line is one node of the scroll-back-plus-viewport chain. Links are
// stable indices into the VT's arena slice, not pointers — per the design
// note this avoids the aliasing hazard of a raw-pointer viewport array
// surviving a chain node being reallocated elsewhere.
type line struct {
	cells      []Cell
	next, prev int // arena indices, -1 for none
}

const noLine = -1

func newLine(cols int) line {
	return line{cells: make([]Cell, cols), next: noLine, prev: noLine}
}

// allocLine appends a fresh blank line to the arena and returns its index.
func (v *VT) allocLine() int {
	v.lines = append(v.lines, newLine(v.cols))
	return len(v.lines) - 1
}

// appendBottom links a new blank line after bottommost and returns its index.
func (v *VT) appendBottom() int {
	idx := v.allocLine()
	if v.bottommost != noLine {
		v.lines[v.bottommost].next = idx
		v.lines[idx].prev = v.bottommost
	} else {
		v.topmost = idx
	}
	v.bottommost = idx
	return idx
}

// prependTop links a new blank line before topmost and returns its index.
func (v *VT) prependTop() int {
	idx := v.allocLine()
	if v.topmost != noLine {
		v.lines[v.topmost].prev = idx
		v.lines[idx].next = v.topmost
	} else {
		v.bottommost = idx
	}
	v.topmost = idx
	return idx
}

// scrollUp promotes the line following bottommost if the chain already has
// one (this happens after a prior scroll-down left the viewport short of
// the chain's tail), otherwise allocates a fresh blank line. The viewport
// shifts left by one and gains the promoted/new line at lines[rows-1].
// Returns true if the promoted line already held visible scroll-back
// content the owning buffer must redraw to show.
func (v *VT) scrollUp() (redrawNeeded bool) {
	var newBottom int
	if v.bottommost != noLine && v.lines[v.bottommost].next != noLine {
		newBottom = v.lines[v.bottommost].next
		redrawNeeded = hasContent(v.lines[newBottom])
		v.bottommost = newBottom
	} else {
		newBottom = v.appendBottom()
	}
	copy(v.window, v.window[1:])
	v.window[v.rows-1] = newBottom
	return redrawNeeded
}

// scrollDown is the symmetric reverse-index operation: insert a blank line
// above topmost and shift the viewport right by one. bottommost follows the
// viewport's new last row, so the line shifted out below it stays next in
// the chain for a later scrollUp to promote.
func (v *VT) scrollDown() {
	var newTop int
	if v.topmost != noLine && v.lines[v.topmost].prev != noLine {
		newTop = v.lines[v.topmost].prev
		v.topmost = newTop
	} else {
		newTop = v.prependTop()
	}
	copy(v.window[1:], v.window[:v.rows-1])
	v.window[0] = newTop
	v.bottommost = v.window[v.rows-1]
}

func hasContent(l line) bool {
	for _, c := range l.cells {
		if c.Flags&CellSet != 0 {
			return true
		}
	}
	return false
}

// lineAt returns the arena index of the viewport row, or noLine if row is
// out of range.
func (v *VT) lineAt(row int) int {
	if row < 0 || row >= v.rows {
		return noLine
	}
	return v.window[row]
}
