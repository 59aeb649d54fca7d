package pipeline

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/athenacr/with.namespace/werror"
	"github.com/athenacr/with.namespace/wfd"
)

// File is the materialized endpoint behind a FileSpec, after all procs
// that reference it have contributed their read/write intent. Exactly
// one File is opened per distinct FileSpec in a pipeline run (spec §3,
// §4.3); fileMap enforces that by identity.
type File struct {
	spec      *FileSpec
	wantRead  bool
	wantWrite bool

	readSide  *os.File
	writeSide *os.File
}

// open materializes the endpoint according to the open policy in spec
// §4.3, the Go counterpart of original_source/pipe.cpp's
// daemon_pipe::File::open.
func (f *File) open() error {
	switch f.spec.Filename {
	case "":
		rh, wh, err := wfd.NewPipe(true)
		if err != nil {
			return err
		}
		rfd, _ := rh.Get()
		wfdFd, _ := wh.Get()
		f.readSide = os.NewFile(uintptr(rfd), "pipe")
		f.writeSide = os.NewFile(uintptr(wfdFd), "pipe")
		return nil

	case devStdin:
		if f.wantWrite {
			return werror.WrapErr(unix.EINVAL, "caller_stdin cannot be used for writing")
		}
		dup, err := dupStd(os.Stdin)
		if err != nil {
			return err
		}
		f.readSide = dup
		return nil

	case devStdout:
		if f.wantRead {
			return werror.WrapErr(unix.EINVAL, "caller_stdout cannot be used for reading")
		}
		dup, err := dupStd(os.Stdout)
		if err != nil {
			return err
		}
		f.writeSide = dup
		return nil

	case devStderr:
		if f.wantRead {
			return werror.WrapErr(unix.EINVAL, "caller_stderr cannot be used for reading")
		}
		dup, err := dupStd(os.Stderr)
		if err != nil {
			return err
		}
		f.writeSide = dup
		return nil

	case devNull:
		fl := os.O_RDWR
		fd, err := os.OpenFile(os.DevNull, fl, 0)
		if err != nil {
			return werror.WrapErrSuffix(err, "open", os.DevNull, "failed:")
		}
		if f.wantRead {
			f.readSide = fd
		}
		if f.wantWrite {
			f.writeSide = fd
		}
		return nil

	default:
		// Matches original_source/pipe.cpp's open policy exactly: if both
		// wantRead and wantWrite are set, O_WRONLY wins (O_RDONLY is 0 and
		// contributes no bits once ORed with O_WRONLY). Callers that need
		// genuine read-write access on one FileSpec must not do so.
		flag := 0
		if f.wantRead {
			flag |= os.O_RDONLY
		}
		if f.wantWrite {
			flag |= os.O_CREATE | os.O_WRONLY
			if f.spec.Append {
				flag |= os.O_APPEND
			}
		}
		fd, err := os.OpenFile(f.spec.Filename, flag, 0666)
		if err != nil {
			return werror.WrapErrSuffix(err, "open", f.spec.Filename, "failed:")
		}
		if f.wantRead {
			f.readSide = fd
		}
		if f.wantWrite {
			f.writeSide = fd
		}
		return nil
	}
}

// dupStd duplicates one of the caller's own std streams with its own
// close-on-exec fd, so closing it at the end of a pipeline run never
// touches the caller's original descriptor.
func dupStd(f *os.File) (*os.File, error) {
	newFd, err := unix.Dup(int(f.Fd()))
	if err != nil {
		return nil, werror.WrapErrSuffix(err, "dup failed:")
	}
	h := wfd.NewHandle(newFd)
	if err := h.SetCloseOnExec(); err != nil {
		h.Close()
		return nil, err
	}
	got, _ := h.Get()
	return os.NewFile(uintptr(got), f.Name()), nil
}

// close releases whichever sides of the File the parent still owns.
// Called once per pipeline run, before the harvester waits, so that
// children blocked on the other end of a pipe see EOF/EPIPE (spec §9).
func (f *File) close() {
	if f.readSide != nil {
		_ = f.readSide.Close()
	}
	if f.writeSide != nil && f.writeSide != f.readSide {
		_ = f.writeSide.Close()
	}
}
