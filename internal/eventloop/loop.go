// Package eventloop is the level-triggered readiness multiplexer: a
// registry of descriptors with callbacks, unified with UNIX signal delivery
// through a self-pipe, driven one run_once pass at a time.
package eventloop

import (
	"os"
	"os/signal"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"tachyon/internal/pal"
)

func signalNotify(ch chan<- os.Signal, sig os.Signal) {
	signal.Notify(ch, sig)
}

// Callback is invoked once per ready descriptor with the observed revents.
type Callback func(fd int, revents int16)

type entry struct {
	fd     int
	events int16
	cb     Callback
	live   bool // cleared by Deregister, swept after the dispatch pass
}

// SignalHandler receives a signal's accumulated pending count since the
// last dispatch. siginfo is not plumbed through in this Go rendition —
// Go's os/signal delivers only the signal value, no siginfo_t — so handlers
// receive the signal number and count only.
type SignalHandler func(sig os.Signal, count uint32)

type signalSlot struct {
	handler SignalHandler
	pending uint32 // incremented only by the OS-facing goroutine, read/zeroed only here
}

// Loop is the single-threaded event loop. Not safe for concurrent use by
// more than the thread that calls Run/RunOnce — that is the point.
type Loop struct {
	entries    []entry
	dispatchin bool // true while walking entries, so Deregister defers the sweep

	run int32 // atomic; loop driver flag, flipped by Stop

	selfPipeR *os.File
	selfPipeW *os.File
	signals   map[os.Signal]*signalSlot
}

// New creates a Loop with the registry pre-sized to 16 entries (the spec's
// growth-start size) and wires up the self-pipe.
func New() (*Loop, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	if err := unix.SetNonblock(int(r.Fd()), true); err != nil {
		r.Close()
		w.Close()
		return nil, err
	}
	if err := unix.SetNonblock(int(w.Fd()), true); err != nil {
		r.Close()
		w.Close()
		return nil, err
	}
	l := &Loop{
		entries:   make([]entry, 0, 16),
		selfPipeR: r,
		selfPipeW: w,
		signals:   make(map[os.Signal]*signalSlot),
	}
	atomic.StoreInt32(&l.run, 1)
	l.Register(int(r.Fd()), pal.EventReadable, l.drainSelfPipe)
	return l, nil
}

// Register appends fd to the registry. Growth is geometric (append already
// doubles Go's backing array); indices already handed to other callbacks
// stay valid across growth because entries is never reallocated in place
// during a dispatch pass (RunOnce snapshots the length it will iterate).
func (l *Loop) Register(fd int, events int16, cb Callback) {
	l.entries = append(l.entries, entry{fd: fd, events: events, cb: cb, live: true})
}

// SetEvents updates the desired-events mask for a previously registered fd.
func (l *Loop) SetEvents(fd int, events int16) {
	for i := range l.entries {
		if l.entries[i].live && l.entries[i].fd == fd {
			l.entries[i].events = events
			return
		}
	}
}

// Deregister removes fd by identity. During a dispatch pass this only marks
// the entry dead; RunOnce sweeps dead entries after invoking every live
// callback, so a callback may safely deregister itself or a peer without
// perturbing the indices other callbacks in the same pass are using.
func (l *Loop) Deregister(fd int) {
	for i := range l.entries {
		if l.entries[i].live && l.entries[i].fd == fd {
			l.entries[i].live = false
			break
		}
	}
	if !l.dispatchin {
		l.sweep()
	}
}

func (l *Loop) sweep() {
	kept := l.entries[:0]
	for _, e := range l.entries {
		if e.live {
			kept = append(kept, e)
		}
	}
	l.entries = kept
}

// RegisterSignal installs (or replaces, or — with a nil handler — removes)
// the handler for sig. The first registration of a given signal starts the
// internal signal.Notify relay to that signal's slot; subsequent calls only
// swap the stored handler.
func (l *Loop) RegisterSignal(sig os.Signal, handler SignalHandler) {
	slot, ok := l.signals[sig]
	if !ok {
		slot = &signalSlot{}
		l.signals[sig] = slot
		ch := make(chan os.Signal, 64)
		signalNotify(ch, sig)
		go l.relaySignal(ch, slot)
	}
	slot.handler = handler
}

// relaySignal is the OS-facing half of the self-pipe trick. Go's runtime
// already does the async-signal-safe part (the real sigaction lives inside
// the runtime's signal handler); this goroutine is the userspace analogue
// of the spec's "OS handler": it only increments a counter and pokes the
// self-pipe, never touching shared state beyond that.
func (l *Loop) relaySignal(ch chan os.Signal, slot *signalSlot) {
	for range ch {
		atomic.AddUint32(&slot.pending, 1)
		l.wakeSelfPipe()
	}
}

func (l *Loop) wakeSelfPipe() {
	var b [1]byte
	l.selfPipeW.Write(b[:])
}

func (l *Loop) drainSelfPipe(fd int, revents int16) {
	buf := make([]byte, 64)
	for {
		_, err := l.selfPipeR.Read(buf)
		if err != nil {
			break
		}
	}
	for sig, slot := range l.signals {
		n := atomic.SwapUint32(&slot.pending, 0)
		if n > 0 && slot.handler != nil {
			slot.handler(sig, n)
		}
	}
}

// RunOnce performs one pass: snapshot desired events, wait, dispatch ready
// callbacks in registration order. Returns false if pal.Poll failed for a
// reason other than EINTR (the only case the driver loop should stop on).
func (l *Loop) RunOnce() bool {
	for {
		n := len(l.entries)
		fds := make([]pal.FD, n)
		for i, e := range l.entries {
			fds[i] = pal.FD{Fd: e.fd, Events: e.events}
		}
		_, err := pal.Poll(fds, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false
		}

		l.dispatchin = true
		for i := 0; i < n && i < len(l.entries); i++ {
			if !l.entries[i].live {
				continue
			}
			if fds[i].Revent != 0 {
				l.entries[i].cb(l.entries[i].fd, fds[i].Revent)
			}
		}
		l.dispatchin = false
		l.sweep()
		return true
	}
}

// Run drives RunOnce until Stop is called or RunOnce reports failure.
func (l *Loop) Run() {
	for atomic.LoadInt32(&l.run) != 0 {
		if !l.RunOnce() {
			return
		}
	}
}

// Stop flips the termination flag observed between RunOnce calls.
func (l *Loop) Stop() {
	atomic.StoreInt32(&l.run, 0)
	l.wakeSelfPipe()
}

// Running reports whether Stop has not yet been called.
func (l *Loop) Running() bool {
	return atomic.LoadInt32(&l.run) != 0
}

// Close tears down the self-pipe. Safe to call once after Run returns.
func (l *Loop) Close() error {
	err1 := l.selfPipeR.Close()
	err2 := l.selfPipeW.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
