// Package runlock enforces a single active ingestion run per data root.
//
// The lock is a token file recording the holder's identity, guarded by a
// flock so two processes can never inspect-and-claim it at the same time. A
// token whose holder process is no longer alive is stale and silently
// reclaimed, so a crashed run never requires manual cleanup. Acquisition
// fails fast; it never waits for the current holder.
package runlock

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"
)

const (
	tokenFile = "siphon.lock"
	guardFile = "siphon.lock.guard"
)

// ErrLockHeld indicates another live siphon run owns the data root.
var ErrLockHeld = errors.New("another siphon run is already active")

// AliveFunc reports whether the process with the given PID is running. The
// staleness test is environment-dependent, so it is pluggable; the default
// sends signal 0.
type AliveFunc func(pid int) bool

func defaultAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	// EPERM means the process exists but belongs to someone else.
	return errors.Is(err, unix.EPERM)
}

// Token identifies the current lock holder.
type Token struct {
	PID           int       `json:"pid"`
	Hostname      string    `json:"hostname"`
	AcquiredAtUTC time.Time `json:"acquired_at_utc"`
}

// Lock is a held run lock. Release it on every exit path.
type Lock struct {
	tokenPath string
	guardPath string
	token     Token
}

// Option customizes acquisition.
type Option func(*options)

type options struct {
	alive AliveFunc
	pid   int
}

// WithAliveFunc overrides the process-liveness probe.
func WithAliveFunc(alive AliveFunc) Option {
	return func(o *options) { o.alive = alive }
}

// WithPID overrides the recorded holder PID (tests).
func WithPID(pid int) Option {
	return func(o *options) { o.pid = pid }
}

// Acquire claims the run lock for stateDir. It returns ErrLockHeld (wrapped
// with the holder's identity) when a live holder exists.
func Acquire(stateDir string, opts ...Option) (*Lock, error) {
	o := options{alive: defaultAlive, pid: os.Getpid()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure state dir: %w", err)
	}

	guardPath := filepath.Join(stateDir, guardFile)
	guard := flock.New(guardPath)
	ok, err := guard.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock guard: %w", err)
	}
	if !ok {
		// Someone else is inspecting the token right now; treat as held
		// rather than waiting.
		return nil, ErrLockHeld
	}
	defer func() { _ = guard.Unlock() }()

	tokenPath := filepath.Join(stateDir, tokenFile)
	if existing, readErr := readToken(tokenPath); readErr == nil && existing != nil {
		if o.alive(existing.PID) {
			return nil, fmt.Errorf("%w (PID %d on %s since %s)",
				ErrLockHeld, existing.PID, existing.Hostname,
				existing.AcquiredAtUTC.Format(time.RFC3339))
		}
		// Stale token from a dead process; fall through and overwrite.
	}

	hostname, _ := os.Hostname()
	token := Token{
		PID:           o.pid,
		Hostname:      hostname,
		AcquiredAtUTC: time.Now().UTC(),
	}
	if err := writeToken(tokenPath, token); err != nil {
		return nil, err
	}

	return &Lock{tokenPath: tokenPath, guardPath: guardPath, token: token}, nil
}

// Release removes the token if this process still owns it. Safe to call more
// than once.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	guard := flock.New(l.guardPath)
	if ok, err := guard.TryLock(); err == nil && ok {
		defer func() { _ = guard.Unlock() }()
	}

	existing, err := readToken(l.tokenPath)
	if err != nil || existing == nil {
		return nil
	}
	if existing.PID != l.token.PID {
		// Someone reclaimed the lock after our holder was presumed dead;
		// never remove their token.
		return nil
	}
	if err := os.Remove(l.tokenPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock token: %w", err)
	}
	return nil
}

// Holder returns the token recorded at acquisition.
func (l *Lock) Holder() Token {
	return l.token
}

func readToken(path string) (*Token, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var token Token
	if err := json.Unmarshal(contents, &token); err != nil {
		// An unreadable token cannot belong to a live holder we can verify;
		// treat it as stale.
		return nil, nil
	}
	return &token, nil
}

func writeToken(path string, token Token) error {
	contents, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode lock token: %w", err)
	}
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		return fmt.Errorf("write lock token: %w", err)
	}
	return nil
}
