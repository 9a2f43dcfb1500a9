package vt

import "strconv"

// interpretCSI accumulates parameter bytes until a final byte (0x40-0x7E)
// arrives, then dispatches on it.
func (v *VT) interpretCSI(b byte) {
	if b >= 0x40 && b <= 0x7E {
		v.dispatchCSI(b)
		v.mode = modeNormal
		return
	}
	v.params.push(b)
}

// csiInts splits the accumulated parameter string on ';' and parses each
// field as an integer, treating an empty field as 0 (the spec's "default").
// A malformed (non-numeric) field also parses as 0 rather than erroring —
// VT parse errors are always absorbed locally, never surfaced.
func (v *VT) csiInts() []int {
	s := v.params.String()
	if s == "" {
		return nil
	}
	var out []int
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ';' {
			field := s[start:i]
			n, err := strconv.Atoi(field)
			if err != nil {
				n = 0
			}
			out = append(out, n)
			start = i + 1
		}
	}
	return out
}

func nthOrDefault(fields []int, i, def int) int {
	if i < len(fields) {
		return fields[i]
	}
	return def
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (v *VT) dispatchCSI(final byte) {
	fields := v.csiInts()
	switch final {
	case 'A':
		n := nthOrDefault(fields, 0, 1)
		if n == 0 {
			n = 1
		}
		v.current.row = clamp(v.current.row-n, 0, v.rows-1)
	case 'B':
		n := nthOrDefault(fields, 0, 1)
		if n == 0 {
			n = 1
		}
		v.current.row = clamp(v.current.row+n, 0, v.rows-1)
	case 'C':
		n := nthOrDefault(fields, 0, 1)
		if n == 0 {
			n = 1
		}
		v.current.col = clamp(v.current.col+n, 0, v.cols-1)
	case 'D':
		n := nthOrDefault(fields, 0, 1)
		if n == 0 {
			n = 1
		}
		v.current.col = clamp(v.current.col-n, 0, v.cols-1)
	case 'J':
		v.eraseInDisplay(nthOrDefault(fields, 0, 0))
	case 'K':
		v.eraseInLine(nthOrDefault(fields, 0, 0))
	case 'f':
		v.cursorPosition()
	case 'g':
		v.tabClear(nthOrDefault(fields, 0, 0))
	case 'h', 'l':
		// Mode set/reset: every mode number is ignored, and nothing is
		// logged (the VT has no logger). AUTOWRAP/AUTOSCROLL are controlled
		// by the VT's own lifecycle, not by CSI mode-set sequences the
		// child emits.
	case 'm':
		v.selectGraphicRendition(fields)
	}
}

func (v *VT) eraseInDisplay(mode int) {
	switch mode {
	case 1:
		for r := 0; r <= v.current.row; r++ {
			end := v.cols
			if r == v.current.row {
				end = v.current.col + 1
			}
			v.clearRowRange(r, 0, end)
		}
	case 2:
		for r := 0; r < v.rows; r++ {
			v.clearRowRange(r, 0, v.cols)
		}
	default: // 0 or unrecognised: cursor to end of screen
		v.clearRowRange(v.current.row, v.current.col, v.cols)
		for r := v.current.row + 1; r < v.rows; r++ {
			v.clearRowRange(r, 0, v.cols)
		}
	}
}

func (v *VT) eraseInLine(mode int) {
	switch mode {
	case 1:
		v.clearRowRange(v.current.row, 0, v.current.col+1)
	case 2:
		v.clearRowRange(v.current.row, 0, v.cols)
	default:
		v.clearRowRange(v.current.row, v.current.col, v.cols)
	}
}

func (v *VT) clearRowRange(row, from, to int) {
	idx := v.lineAt(row)
	if idx == noLine {
		return
	}
	from = clamp(from, 0, v.cols)
	to = clamp(to, 0, v.cols)
	for c := from; c < to; c++ {
		v.lines[idx].cells[c] = Cell{}
	}
}

func (v *VT) cursorPosition() {
	s := v.params.String()
	if s == "" || s == ";" {
		v.current.row, v.current.col = 0, 0
		return
	}
	if v.params.len < 3 {
		return // malformed: too short to be "row;col" — do nothing
	}
	fields := v.csiInts()
	if len(fields) < 2 {
		return
	}
	row := fields[0]
	col := fields[1]
	if row == 0 {
		row = 1
	}
	if col == 0 {
		col = 1
	}
	v.current.row = clamp(row-1, 0, v.rows-1)
	v.current.col = clamp(col-1, 0, v.cols-1)
}

func (v *VT) tabClear(mode int) {
	switch mode {
	case 3:
		v.current.clearAllTabs()
	default:
		v.current.clearTab(v.current.col)
	}
}

func (v *VT) selectGraphicRendition(fields []int) {
	if len(fields) == 0 {
		v.current.flags &^= styleMask
		return
	}
	for _, n := range fields {
		switch {
		case n == 0:
			v.current.flags &^= styleMask
		case n == 1:
			v.current.flags |= Bold
		case n == 4:
			v.current.flags |= Underline
		case n == 5:
			v.current.flags |= Blink
		case n == 7:
			v.current.flags |= Reverse
		case n >= 30 && n <= 37:
			v.current.flags = setForeground(v.current.flags, n-30)
		case n >= 40 && n <= 47:
			v.current.flags = setBackground(v.current.flags, n-40)
		default:
			// unknown SGR number: ignored. Nothing is logged and nothing
			// is reported to the caller — ParseError is always local and
			// never surfaced.
		}
	}
}
