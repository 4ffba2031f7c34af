// Package lock keeps at most one background refresh running across all
// concurrent status line invocations.
//
// The lock is an advisory flock on a zero-byte file. Because flock belongs to
// the open file description, the held descriptor can be handed to a detached
// child process; the kernel drops the lock when the last holder exits, even
// if it is killed, so a crashed refresh never wedges future ones.
package lock

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"go.trai.ch/zerr"

	"github.com/mrbonezy/omcc-statusline/internal/fetch"
)

// InheritedFD is the descriptor number a detached job receives the lock on.
const InheritedFD = 3

// InheritEnv marks a process started by Detached.
const InheritEnv = "OMCC_STATUSLINE_LOCK_FD"

// Job takes ownership of a held lock. It must start its background unit and
// arrange for held to be closed when that unit exits. Job must not wait for
// the unit to finish.
type Job func(held *os.File) error

// TryAcquire opens (creating if needed) the lock file at path and takes a
// non-blocking exclusive lock. It returns an error wrapping
// fetch.ErrLockContention when another holder exists.
func TryAcquire(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "create lock dir"), "path", path)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "open lock file"), "path", path)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return nil, zerr.With(fmt.Errorf("%w", fetch.ErrLockContention), "path", path)
		}
		return nil, zerr.With(zerr.Wrap(err, "flock"), "path", path)
	}
	return f, nil
}

// TryAcquireAndRun runs job only if the lock at path is free. Contention is
// the normal case under concurrent invocations and reports (false, nil)
// without blocking. On success the lock belongs to job.
func TryAcquireAndRun(path string, job Job) (bool, error) {
	held, err := TryAcquire(path)
	if err != nil {
		if errors.Is(err, fetch.ErrLockContention) {
			return false, nil
		}
		return false, err
	}
	if err := job(held); err != nil {
		_ = held.Close()
		return false, zerr.Wrap(err, "start locked job")
	}
	return true, nil
}

// Detached returns a Job that starts exe as a session leader with stdio on
// /dev/null and the held lock on fd 3, then forgets about it. The caller has
// no handle to observe the child's outcome.
func Detached(exe string, args []string, env []string) Job {
	return func(held *os.File) error {
		devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
		if err != nil {
			return zerr.Wrap(err, "open /dev/null")
		}
		defer devNull.Close()

		cmd := exec.Command(exe, args...)
		cmd.Stdin = devNull
		cmd.Stdout = devNull
		cmd.Stderr = devNull
		cmd.ExtraFiles = []*os.File{held}
		cmd.Env = append(append(os.Environ(), env...), fmt.Sprintf("%s=%d", InheritEnv, InheritedFD))
		cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
		if err := cmd.Start(); err != nil {
			return zerr.With(zerr.Wrap(err, "spawn detached job"), "exe", exe)
		}
		// The child's copy of the descriptor keeps the lock alive.
		_ = held.Close()
		return cmd.Process.Release()
	}
}

// Inherited adopts the lock passed by Detached, if this process was started
// that way. The descriptor is marked close-on-exec so subprocesses of the
// adopting process never keep the lock past its exit.
func Inherited() (*os.File, bool) {
	if os.Getenv(InheritEnv) != fmt.Sprint(InheritedFD) {
		return nil, false
	}
	syscall.CloseOnExec(InheritedFD)
	f := os.NewFile(uintptr(InheritedFD), "refresh.lock")
	if f == nil {
		return nil, false
	}
	return f, true
}

// Coordinator binds a lock path to the job it guards.
type Coordinator struct {
	Path string
	Job  Job
}

// TriggerRefresh is fire-and-forget: it starts Job unless a refresh already
// holds the lock.
func (c Coordinator) TriggerRefresh() (bool, error) {
	if c.Job == nil {
		return false, errors.New("lock coordinator has no job")
	}
	return TryAcquireAndRun(c.Path, c.Job)
}
