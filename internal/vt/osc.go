package vt

import "strings"

// interpretOSC accumulates the OSC string until its terminator. BEL
// (0x07) terminates as-is; a two-byte ST (ESC '\') does not special-case
// the ESC byte on the way in — it is collected like any other byte — so
// on '\' the most recently accumulated byte (the ESC) is trimmed off
// before the command is processed.
func (v *VT) interpretOSC(b byte) {
	switch b {
	case 0x07:
		v.dispatchOSC(v.params.String())
		v.mode = modeNormal
	case '\\':
		s := v.params.String()
		if n := len(s); n > 0 {
			s = s[:n-1]
		}
		v.dispatchOSC(s)
		v.mode = modeNormal
	default:
		v.params.push(b)
	}
}

func (v *VT) dispatchOSC(s string) {
	cmd := s
	arg := ""
	if i := strings.IndexByte(s, ';'); i >= 0 {
		cmd = s[:i]
		arg = s[i+1:]
	}
	switch cmd {
	case "0":
		v.iconName = arg
		v.windowTitle = arg
	case "1":
		v.iconName = arg
	case "2":
		v.windowTitle = arg
	default:
		// other commands: ignored; nothing is logged
	}
}
