package vt

// Cell is a single character position on the grid: one byte of content and
// a flags word recording whether the cell holds content at all plus style
// bits. The grid stores exactly one byte per cell — no UTF-8, no
// combining characters (Non-goal).
type Cell struct {
	Byte  byte
	Flags uint16
}

// Flags bit layout. CELL_SET plus four boolean style bits plus a 4-bit
// foreground and 4-bit background color field (0 = unset/default, 1-8 =
// ANSI color index 0-7 + 1, so "unset" is distinguishable from "color 0").
const (
	CellSet   uint16 = 1 << 0
	Bold      uint16 = 1 << 1
	Underline uint16 = 1 << 2
	Blink     uint16 = 1 << 3
	Reverse   uint16 = 1 << 4

	fgShift = 5
	fgMask  = 0xF
	bgShift = 9
	bgMask  = 0xF

	styleMask = Bold | Underline | Blink | Reverse | (fgMask << fgShift) | (bgMask << bgShift)
)

// setForeground encodes ANSI color index 0-7 into flags' foreground field.
func setForeground(flags uint16, colorIdx int) uint16 {
	flags &^= fgMask << fgShift
	return flags | uint16((colorIdx+1)&fgMask)<<fgShift
}

// setBackground encodes ANSI color index 0-7 into flags' background field.
func setBackground(flags uint16, colorIdx int) uint16 {
	flags &^= bgMask << bgShift
	return flags | uint16((colorIdx+1)&bgMask)<<bgShift
}

func foreground(flags uint16) (idx int, set bool) {
	v := int(flags>>fgShift) & fgMask
	if v == 0 {
		return 0, false
	}
	return v - 1, true
}

func background(flags uint16) (idx int, set bool) {
	v := int(flags>>bgShift) & bgMask
	if v == 0 {
		return 0, false
	}
	return v - 1, true
}

// Equal implements the spec's cell-equality rule: both unset, or both set
// with matching byte and full flags.
func (c Cell) Equal(o Cell) bool {
	if c.Flags&CellSet == 0 && o.Flags&CellSet == 0 {
		return true
	}
	return c.Byte == o.Byte && c.Flags == o.Flags
}
