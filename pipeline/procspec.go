package pipeline

import "golang.org/x/sys/unix"

// pidUnstarted is the sentinel PID value for a ProcSpec that has not
// yet been started in the current run.
const pidUnstarted = -1

// ProcSpec is the caller's declarative request for one process in a
// pipeline: command, signal-forwarding flag, and the stdio endpoints it
// attaches to. A ProcSpec is reusable across multiple Pipeline runs;
// its result fields are reset at the start of each Run. This is the Go
// counterpart of original_source/pipe.hpp's daemon_proc_spec.
type ProcSpec struct {
	// Argv is the command to run. Must be non-empty.
	Argv []string
	// ForwardSignals marks this proc to receive SIGTERM/SIGINT/SIGQUIT
	// forwarded by the harvester (spec §4.6).
	ForwardSignals bool

	Stdin, Stdout, Stderr *FileSpec

	pid    int
	status unix.WaitStatus
	exited bool
}

func (p *ProcSpec) resetStatus() {
	p.pid = pidUnstarted
	p.exited = false
	p.status = 0
}

// Started reports whether this run has assigned p a pid.
func (p *ProcSpec) Started() bool { return p.pid != pidUnstarted }

// Running reports whether p has started and not yet exited.
func (p *ProcSpec) Running() bool { return p.Started() && !p.exited }

// Finished reports whether p has started and exited.
func (p *ProcSpec) Finished() bool { return p.Started() && p.exited }

// PID returns the pid assigned during the most recent run, or
// pidUnstarted if p has not been started.
func (p *ProcSpec) PID() int { return p.pid }

// Status returns the raw wait status recorded when p exited. Only
// meaningful once Finished returns true.
func (p *ProcSpec) Status() unix.WaitStatus { return p.status }

// Exited reports whether p terminated normally (WIFEXITED).
func (p *ProcSpec) Exited() bool { return p.Finished() && p.status.Exited() }

// ExitStatus returns p's exit code. Only meaningful if Exited is true.
func (p *ProcSpec) ExitStatus() int { return p.status.ExitStatus() }

// Signaled reports whether p was terminated by a signal (WIFSIGNALED).
func (p *ProcSpec) Signaled() bool { return p.Finished() && p.status.Signaled() }

// TermSig returns the signal that terminated p. Only meaningful if
// Signaled is true.
func (p *ProcSpec) TermSig() unix.Signal { return p.status.Signal() }
