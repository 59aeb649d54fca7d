package pipeline

import (
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/athenacr/with.namespace/wmsg"
)

// harvester owns the reap loop for a single pipeline run: it waits on
// the SignalBlocker's channel, reaps every exited child with a
// non-blocking Wait4 sweep on each wakeup, and forwards SIGTERM/SIGINT/
// SIGQUIT to every proc whose ProcSpec.ForwardSignals is set. This is
// the Go counterpart of original_source/pipe.cpp's sigwait dispatch
// loop, adapted to os/signal's channel-based delivery (see DESIGN.md).
type harvester struct {
	blocker *SignalBlocker
	procs   []*proc
}

func newHarvester(blocker *SignalBlocker, procs []*proc) *harvester {
	return &harvester{blocker: blocker, procs: procs}
}

// run blocks until every proc in h.procs has exited, reaping children
// and forwarding signals as it goes.
func (h *harvester) run() {
	for {
		if h.allFinished() {
			return
		}
		sig := h.blocker.wait()
		switch sig {
		case syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT:
			h.forward(sig)
		case syscall.SIGCHLD:
			// handled uniformly below
		default:
			// SIGHUP, SIGPIPE, anything else: ignored, fall through to reap
		}
		h.reapAvailable()
	}
}

// reapAvailable does one non-blocking waitpid(pid, WNOHANG) per still-
// running proc, the Go counterpart of pipe.cpp's harvester loop
// (waitpid((*i)->m_spec->m_pid, &status, WNOHANG)). Reaping by each
// proc's own pid, rather than waitpid(-1, ...), keeps this harvester
// from ever stealing the exit status of a child started by some other
// Pipeline.Run or TryErrorWrite call active in the same process (spec
// §4.6, §5).
func (h *harvester) reapAvailable() {
	for _, p := range h.procs {
		if !p.spec.Running() {
			continue
		}
		var status unix.WaitStatus
		pid, err := unix.Wait4(p.spec.pid, &status, unix.WNOHANG, nil)
		if err != nil || pid <= 0 {
			continue
		}
		p.spec.status = status
		p.spec.exited = true
		wmsg.GetOutput().Verbosef("pid=%d exited status=%#x", pid, uint32(status))
	}
}

// reapRemaining is called instead of run when the run loop is
// abandoned early (a proc failed to start after earlier ones had
// started, or TryErrorWrite's pipe write failed); it blocks on each still-running proc's own pid
// in turn until every started proc is reaped, so no zombies survive the
// Pipeline's Run call and no other pipeline's child is ever touched.
func (h *harvester) reapRemaining() {
	for _, p := range h.procs {
		for p.spec.Running() {
			var status unix.WaitStatus
			pid, err := unix.Wait4(p.spec.pid, &status, 0, nil)
			if err != nil {
				break
			}
			if pid == p.spec.pid {
				p.spec.status = status
				p.spec.exited = true
			}
		}
	}
}

func (h *harvester) allFinished() bool {
	for _, p := range h.procs {
		if p.spec.Started() && !p.spec.exited {
			return false
		}
	}
	return true
}

// forward sends sig directly to every still-running proc marked
// ForwardSignals, the Go counterpart of original_source/pipe.cpp's
// kill(pid, sig) forwarding loop (spec §4.6) — a plain kill, not a
// process-group kill.
func (h *harvester) forward(sig syscall.Signal) {
	for _, p := range h.procs {
		if !p.spec.ForwardSignals || !p.spec.Running() {
			continue
		}
		_ = unix.Kill(p.spec.pid, sig)
	}
}
