//go:build linux

package ptyhost

import "golang.org/x/sys/unix"

// Termios get/set request numbers, Linux values (ground truth: TCGETS =
// 0x5401, TCSETS = 0x5402 — same numbers Daedaluz-goserial's ioctl_linux.go
// hardcodes for the same syscalls).
const (
	ioctlGetTermios = unix.TCGETS
	ioctlSetTermios = unix.TCSETS
)
