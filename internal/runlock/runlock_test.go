package runlock_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"siphon/internal/runlock"
)

func TestAcquireAndRelease(t *testing.T) {
	stateDir := t.TempDir()

	lock, err := runlock.Acquire(stateDir)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if lock.Holder().PID != os.Getpid() {
		t.Errorf("holder PID = %d, want %d", lock.Holder().PID, os.Getpid())
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(stateDir, "siphon.lock")); !os.IsNotExist(err) {
		t.Error("token file still present after release")
	}

	// Releasing twice is harmless.
	if err := lock.Release(); err != nil {
		t.Errorf("second Release failed: %v", err)
	}
}

func TestAcquireFailsWhileHeldByLiveProcess(t *testing.T) {
	stateDir := t.TempDir()

	alive := func(pid int) bool { return true }

	first, err := runlock.Acquire(stateDir, runlock.WithAliveFunc(alive))
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	defer first.Release()

	_, err = runlock.Acquire(stateDir, runlock.WithAliveFunc(alive), runlock.WithPID(99999))
	if !errors.Is(err, runlock.ErrLockHeld) {
		t.Fatalf("second Acquire err = %v, want ErrLockHeld", err)
	}
}

func TestStaleTokenIsReclaimed(t *testing.T) {
	stateDir := t.TempDir()

	dead := func(pid int) bool { return false }

	first, err := runlock.Acquire(stateDir, runlock.WithPID(424242), runlock.WithAliveFunc(dead))
	if err != nil {
		t.Fatalf("seed Acquire failed: %v", err)
	}
	_ = first // simulate a crash: never released

	second, err := runlock.Acquire(stateDir, runlock.WithAliveFunc(dead))
	if err != nil {
		t.Fatalf("Acquire over stale token failed: %v", err)
	}
	defer second.Release()

	if second.Holder().PID != os.Getpid() {
		t.Errorf("reclaimed holder PID = %d, want %d", second.Holder().PID, os.Getpid())
	}
}

func TestCorruptTokenIsReclaimed(t *testing.T) {
	stateDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(stateDir, "siphon.lock"), []byte("not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt token: %v", err)
	}

	lock, err := runlock.Acquire(stateDir, runlock.WithAliveFunc(func(int) bool { return true }))
	if err != nil {
		t.Fatalf("Acquire over corrupt token failed: %v", err)
	}
	defer lock.Release()
}

func TestReleaseLeavesForeignTokenAlone(t *testing.T) {
	stateDir := t.TempDir()
	dead := func(pid int) bool { return false }

	first, err := runlock.Acquire(stateDir, runlock.WithPID(1111), runlock.WithAliveFunc(dead))
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}

	// A second process reclaims the stale lock.
	second, err := runlock.Acquire(stateDir, runlock.WithPID(2222), runlock.WithAliveFunc(dead))
	if err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}

	// The first holder's late Release must not remove the new token.
	if err := first.Release(); err != nil {
		t.Fatalf("late Release failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(stateDir, "siphon.lock")); err != nil {
		t.Error("reclaimed token was removed by the previous holder")
	}
	_ = second.Release()
}
