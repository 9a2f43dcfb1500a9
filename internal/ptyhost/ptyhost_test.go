package ptyhost

import (
	"bufio"
	"os"
	"strings"
	"testing"
	"time"
)

func TestNewSetsChildEnvironment(t *testing.T) {
	child, err := New(`sh -c 'echo "$TACHYON_BUFNUM:$TACHYON_SESSION"'`, 3, "mysession", 24, 80)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer child.Master.Close()

	child.Master.SetReadDeadline(time.Now().Add(5 * time.Second))
	scanner := bufio.NewScanner(child.Master)
	if !scanner.Scan() {
		t.Fatalf("no output from child: %v", scanner.Err())
	}
	line := strings.TrimRight(scanner.Text(), "\r\n")
	if line != "3:mysession" {
		t.Fatalf("got %q, want %q", line, "3:mysession")
	}

	child.Cmd.Process.Wait()
}

func TestNewArgv0Basename(t *testing.T) {
	child, err := New("/bin/sh -c 'echo $0'", 0, "s", 24, 80)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer child.Master.Close()

	child.Master.SetReadDeadline(time.Now().Add(5 * time.Second))
	scanner := bufio.NewScanner(child.Master)
	if !scanner.Scan() {
		t.Fatalf("no output: %v", scanner.Err())
	}
	line := strings.TrimRight(scanner.Text(), "\r\n")
	if line != "sh" {
		t.Fatalf("argv[0] got %q, want basename %q", line, "sh")
	}
	child.Cmd.Process.Wait()
}

func TestControllerTTYSaveRestore(t *testing.T) {
	if !isTTY(os.Stdin) {
		t.Skip("stdin is not a TTY in this environment")
	}
	c := Open(os.Stdin)
	if err := c.SaveState(); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	if err := c.RestoreState(); err != nil {
		t.Fatalf("RestoreState: %v", err)
	}
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
