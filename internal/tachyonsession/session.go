// Package tachyonsession derives and locks the per-invocation session name
// children use for TACHYON_SESSION (see internal/ptyhost), and the runtime
// log file a session's Controller writes to (see internal/logging).
// Grounded on internal/config/routes.go's acquireExclusiveLock for the
// gofrs/flock usage pattern, and on google/uuid for generating a default
// name when none is supplied.
package tachyonsession

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const lockTimeout = 5 * time.Second

const envSessionName = "TACHYON_SESSION"

// Name resolves the session name for this process: the inherited
// TACHYON_SESSION (set when tachyon itself is run nested under another
// tachyon-managed shell) if present, otherwise a freshly generated UUID.
func Name() string {
	if existing := os.Getenv(envSessionName); existing != "" {
		return existing
	}
	return uuid.NewString()
}

// Lock is an advisory, session-scoped exclusive lock: it prevents two
// controller processes from racing over the same session name's runtime
// files (log file, any future on-disk state). Held for the controller
// process's entire lifetime.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes an exclusive lock on the session's lock file under dir,
// creating dir if necessary. The caller must call Release when done.
func Acquire(dir, sessionName string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	fl := flock.New(lockFilePath(dir, sessionName))
	ok, err := fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("acquire session lock %q: %w", sessionName, err)
	}
	if !ok {
		return nil, fmt.Errorf("session %q is already running (lock timed out)", sessionName)
	}
	return &Lock{fl: fl}, nil
}

// Release unlocks and removes the lock file's handle. Safe to call once.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}

func lockFilePath(dir, sessionName string) string {
	return filepath.Join(dir, sessionName+".lock")
}
