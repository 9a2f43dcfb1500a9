package pal

import (
	"os"
	"testing"
	"time"
)

func TestPollReadable(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	fds := []FD{{Fd: int(r.Fd()), Events: EventReadable}}
	n, err := Poll(fds, 50)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected timeout (0 ready), got %d", n)
	}

	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}

	n, err = Poll(fds, int((2 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 ready, got %d", n)
	}
	if fds[0].Revent&EventReadable == 0 {
		t.Fatalf("expected readable bit set, got %#x", fds[0].Revent)
	}
}

func TestPollErrorClearsWritable(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	r.Close() // closing the read end makes the write end report POLLERR
	defer w.Close()

	fds := []FD{{Fd: int(w.Fd()), Events: EventWritable}}
	_, err = Poll(fds, int((2 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if fds[0].Revent&EventWritable != 0 {
		t.Fatalf("writable bit should be cleared on error, got %#x", fds[0].Revent)
	}
}
