package controller

// Keys names the single bytes the metakey parser matches after the meta
// prefix. Defaults mirror the original's cmd_options.keys defaults.
type Keys struct {
	Meta         byte // Ctrl-prefixed to form the meta prefix itself
	BufferCreate byte
	BufferNext   byte
	BufferPrev   byte
	BufferLast   byte
	Buffer0      byte
	Buffer1      byte
	Buffer2      byte
	Buffer3      byte
	Buffer4      byte
	Buffer5      byte
	Buffer6      byte
	Buffer7      byte
	Buffer8      byte
	Buffer9      byte
}

// DefaultKeys matches the spec's documented defaults: Ctrl-T to enter meta
// mode, then c/n/p/l/0-9.
func DefaultKeys() Keys {
	return Keys{
		Meta:         't',
		BufferCreate: 'c',
		BufferNext:   'n',
		BufferPrev:   'p',
		BufferLast:   'l',
		Buffer0:      '0',
		Buffer1:      '1',
		Buffer2:      '2',
		Buffer3:      '3',
		Buffer4:      '4',
		Buffer5:      '5',
		Buffer6:      '6',
		Buffer7:      '7',
		Buffer8:      '8',
		Buffer9:      '9',
	}
}

// control computes the ASCII control code for a lowercase-letter key, the
// same bit-clearing CONTROL() does in the original: clear bits 5 and 6.
func control(b byte) byte {
	return b &^ 0x60
}

func (k Keys) bufferGoto(b byte) (int, bool) {
	switch b {
	case k.Buffer0:
		return 0, true
	case k.Buffer1:
		return 1, true
	case k.Buffer2:
		return 2, true
	case k.Buffer3:
		return 3, true
	case k.Buffer4:
		return 4, true
	case k.Buffer5:
		return 5, true
	case k.Buffer6:
		return 6, true
	case k.Buffer7:
		return 7, true
	case k.Buffer8:
		return 8, true
	case k.Buffer9:
		return 9, true
	default:
		return 0, false
	}
}
