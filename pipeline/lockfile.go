package pipeline

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/athenacr/with.namespace/werror"
)

// LockFile is an exclusive, non-blocking advisory lock backed by a
// regular file, the Go counterpart of original_source/pipe.cpp's
// daemon_pipe::LockFile. A pipeline configured with a lock path refuses
// to run a second instance concurrently.
type LockFile struct {
	path string
	f    *os.File
}

// AcquireLockFile opens path (creating it if necessary), takes an
// exclusive non-blocking flock, and truncates+writes the caller's pid
// into it. A held lock from another process surfaces as "already
// running" rather than the raw EWOULDBLOCK.
func AcquireLockFile(path string) (*LockFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, werror.WrapErrSuffix(err, "open", path, "failed:")
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, werror.WrapErr(err, fmt.Sprintf("%s: already running", path))
		}
		return nil, werror.WrapErrSuffix(err, "flock", path, "failed:")
	}

	if err := f.Truncate(0); err != nil {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
		return nil, werror.WrapErrSuffix(err, "truncate", path, "failed:")
	}
	if _, err := f.WriteString(fmt.Sprintf("%d\n", os.Getpid())); err != nil {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
		return nil, werror.WrapErrSuffix(err, "write", path, "failed:")
	}

	return &LockFile{path: path, f: f}, nil
}

// Release truncates the lock file back to empty, drops the flock, and
// closes the underlying fd. Safe to call on a nil *LockFile.
func (l *LockFile) Release() {
	if l == nil || l.f == nil {
		return
	}
	_ = l.f.Truncate(0)
	_ = unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	_ = l.f.Close()
	l.f = nil
}
