package pipeline

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/athenacr/with.namespace/wfd"
	"github.com/athenacr/with.namespace/werror"
	"github.com/athenacr/with.namespace/wmsg"
)

// TryErrorWrite implements the specialized single-process pipeline spec
// §4.8 describes: fork+exec ps with a fresh anonymous pipe as its
// stdin, write buf to the pipe's write side in one non-blocking write
// (a short write counts as a failure), wait for ps via a dedicated
// harvester, and require it to have exited with status 0. Any failure
// along the way falls back to writing buf to the process's own stderr,
// best-effort. This is the Go counterpart of
// original_source/pipe.cpp's daemon_pipe::try_error_write.
func TryErrorWrite(ps *ProcSpec, buf []byte) {
	// Keep signals blocked through the fallback path too, so the
	// fallback stderr write itself cannot be killed by SIGPIPE.
	blocker := NewSignalBlocker()
	defer blocker.Close()

	if err := tryErrorWriteOnce(ps, buf, blocker); err != nil {
		wmsg.GetOutput().Verbosef("try_error_write: %s", werror.Strip(err))
		if ferr := wfd.WriteFull(int(os.Stderr.Fd()), buf); ferr != nil {
			wmsg.GetOutput().Error(string(buf))
		}
	}
}

func tryErrorWriteOnce(ps *ProcSpec, buf []byte, blocker *SignalBlocker) error {
	ps.resetStatus()

	stdin := &File{spec: NewPipeSpec(), wantRead: true, wantWrite: true}
	if err := stdin.open(); err != nil {
		return err
	}
	// Inherit the caller's own stdout/stderr rather than letting
	// exec.Cmd default an unset stream to /dev/null: the original never
	// dup2's the child's stdout/stderr, so it simply keeps whatever the
	// parent had.
	stdout := &File{spec: NewFileSpec(devStdout, false), wantWrite: true}
	stderr := &File{spec: NewFileSpec(devStderr, false), wantWrite: true}
	if err := stdout.open(); err != nil {
		stdin.close()
		return err
	}
	if err := stderr.open(); err != nil {
		stdin.close()
		stdout.close()
		return err
	}

	p := &proc{spec: ps, stdin: stdin, stdout: stdout, stderr: stderr}
	h := newHarvester(blocker, []*proc{p})

	closeAll := func() {
		stdin.close()
		stdout.close()
		stderr.close()
	}

	if err := p.safeForkExec(); err != nil {
		closeAll()
		return err
	}

	// The parent no longer needs the read side; the write side is set
	// non-blocking so a full pipe can never hang the parent.
	stdin.readSide.Close()
	stdin.readSide = nil

	if err := wfd.NewHandle(int(stdin.writeSide.Fd())).SetNonblock(); err != nil {
		closeAll()
		h.reapRemaining()
		return err
	}

	// A single raw write, not stdin.writeSide.Write: os.File.Write would
	// transparently retry through the runtime poller on a short write or
	// EAGAIN, masking exactly the failure mode spec §4.8 wants reported.
	n, werr := unix.Write(int(stdin.writeSide.Fd()), buf)
	closeAll()

	if werr != nil {
		h.reapRemaining()
		return werror.WrapErrSuffix(werr, "write failed:")
	}
	if n != len(buf) {
		h.reapRemaining()
		return werror.WrapErr(unix.EIO, fmt.Sprintf("short write to %v", ps.Argv))
	}

	h.run()

	if !(ps.Exited() && ps.ExitStatus() == 0) {
		return werror.WrapErr(unix.EIO, fmt.Sprintf("proc %v failed", ps.Argv))
	}
	return nil
}
