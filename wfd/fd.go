// Package wfd implements scoped ownership of a single file descriptor,
// the Go counterpart of original_source/pipe.hpp's FD class.
package wfd

import (
	"golang.org/x/sys/unix"

	"github.com/athenacr/with.namespace/werror"
)

// Handle owns at most one fd. The zero value holds fd 0, which IsOk
// reports as owned; NewHandle(-1) returns a Handle holding the invalid
// sentinel.
type Handle struct {
	fd int
}

// NewHandle wraps an already-open fd.
func NewHandle(fd int) *Handle { return &Handle{fd: fd} }

// invalidFd is the sentinel used by an empty Handle.
const invalidFd = -1

// IsOk reports whether h owns a valid fd.
func (h *Handle) IsOk() bool { return h != nil && h.fd > invalidFd }

// Get returns the owned fd, or an error if none is held.
func (h *Handle) Get() (int, error) {
	if !h.IsOk() {
		return invalidFd, werror.WrapErr(unix.EBADF, "wfd: invalid fd")
	}
	return h.fd, nil
}

// Reset closes any fd currently held and takes ownership of newFd
// (invalidFd by default).
func (h *Handle) Reset(newFd int) error {
	if h.fd > invalidFd {
		if err := unix.Close(h.fd); err != nil {
			return werror.WrapErrSuffix(err, "close failed:")
		}
	}
	h.fd = newFd
	return nil
}

// Close is Reset(invalidFd), swallowing the close error the way the
// teacher's destructor does — explicit callers that need to observe a
// close failure should call Reset directly.
func (h *Handle) Close() {
	_ = h.Reset(invalidFd)
}

// MoveFrom destructively transfers ownership of src's fd into h, closing
// whatever h previously held.
func (h *Handle) MoveFrom(src *Handle) error {
	if err := h.Reset(src.fd); err != nil {
		return err
	}
	src.fd = invalidFd
	return nil
}

// SetCloseOnExec marks the held fd close-on-exec.
func (h *Handle) SetCloseOnExec() error {
	fd, err := h.Get()
	if err != nil {
		return err
	}
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETFD, unix.FD_CLOEXEC); err != nil {
		return werror.WrapErrSuffix(err, "fcntl(F_SETFD) failed:")
	}
	return nil
}

// SetNonblock marks the held fd non-blocking.
func (h *Handle) SetNonblock() error {
	fd, err := h.Get()
	if err != nil {
		return err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		return werror.WrapErrSuffix(err, "fcntl(F_SETFL) failed:")
	}
	return nil
}

// NewPipe creates a pipe pair. When cloexec is true both ends are
// created close-on-exec in one syscall (matching original_source's
// FD::pipe(readFD, writeFD, FD_CLOEXEC)).
func NewPipe(cloexec bool) (read, write *Handle, err error) {
	var flags int
	if cloexec {
		flags = unix.O_CLOEXEC
	}
	var fds [2]int
	if err := unix.Pipe2(fds[:], flags); err != nil {
		return nil, nil, werror.WrapErrSuffix(err, "pipe failed:")
	}
	return NewHandle(fds[0]), NewHandle(fds[1]), nil
}

// WriteFull writes buf in full, looping on short writes. It stops and
// returns an error on the first write that returns <= 0, matching
// original_source/pipe.cpp's writeN.
func WriteFull(fd int, buf []byte) error {
	for len(buf) > 0 {
		n, err := unix.Write(fd, buf)
		if err != nil {
			return werror.WrapErrSuffix(err, "write failed:")
		}
		if n <= 0 {
			return werror.WrapErr(unix.EIO, "write failed: short write")
		}
		buf = buf[n:]
	}
	return nil
}
