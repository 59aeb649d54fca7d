package pipeline

import (
	"os/exec"
	"syscall"

	"github.com/athenacr/with.namespace/werror"
	"github.com/athenacr/with.namespace/wmsg"
)

// proc is the runtime launch handle for one ProcSpec during a single
// Pipeline run, the Go counterpart of original_source/pipe.hpp's
// daemon_pipe::Proc.
type proc struct {
	spec   *ProcSpec
	stdin  *File
	stdout *File
	stderr *File

	// newPGID mirrors daemon_pipe::Proc::m_newPGID: 0 means "create a
	// new process group led by this child", a positive pid means "join
	// that group".
	newPGID int
}

// safeForkExec forks and execs p's command, attaching whichever std
// streams were resolved by the FileMap. exec.Cmd.Start is itself the Go
// runtime's safe_fork_exec: it forks, the child reports a pre-exec
// failure (bad path, setpgid failure, ...) back through an internal
// close-on-exec pipe, and Start surfaces that failure synchronously —
// exactly the error-pipe discipline spec §4.4 describes, without this
// package reimplementing fork/dup2/execvp by hand.
func (p *proc) safeForkExec() error {
	if len(p.spec.Argv) == 0 {
		return werror.WrapErr(syscall.EINVAL, "cmd_argv is empty")
	}

	path, err := exec.LookPath(p.spec.Argv[0])
	if err != nil {
		return werror.WrapErrSuffix(err, "execvp", p.spec.Argv[0], "failed:")
	}

	cmd := exec.Command(path, p.spec.Argv[1:]...)
	cmd.Args[0] = p.spec.Argv[0]
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    p.newPGID,
	}

	if p.stdin != nil {
		cmd.Stdin = p.stdin.readSide
	}
	if p.stdout != nil {
		cmd.Stdout = p.stdout.writeSide
	}
	if p.stderr != nil {
		cmd.Stderr = p.stderr.writeSide
	}

	if err := cmd.Start(); err != nil {
		return werror.WrapErrSuffix(err, "execvp", p.spec.Argv[0], "failed:")
	}

	p.spec.pid = cmd.Process.Pid
	wmsg.GetOutput().Verbosef("started pid=%d argv=%v pgid=%d", p.spec.pid, p.spec.Argv, p.newPGID)

	// cmd.Process now owns the child's lifecycle as far as the runtime
	// is concerned; Release detaches Go's own finalizer bookkeeping
	// without reaping, since this package -- not os/exec -- owns
	// waitpid from here on (spec's harvester, not cmd.Wait).
	return cmd.Process.Release()
}
