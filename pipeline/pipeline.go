// Package pipeline implements the multi-process launch-and-supervise
// engine: a caller declares a set of ProcSpecs and the FileSpecs that
// wire their stdio together, and Pipeline.Run forks, execs, supervises,
// and reaps the whole group as a unit. It is the Go counterpart of
// original_source/pipe.hpp's daemon_pipe subsystem.
package pipeline

import (
	"golang.org/x/sys/unix"

	"github.com/athenacr/with.namespace/werror"
	"github.com/athenacr/with.namespace/wmsg"
)

// Pipeline is a reusable description of a process group: the ProcSpecs
// that make it up and the optional lock file path that makes a
// concurrent second run fail with "already running". A Pipeline may be Run more than once; each Run resets
// every ProcSpec's result fields first.
type Pipeline struct {
	procs    []*ProcSpec
	lockPath string
}

// New returns an empty Pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// AddProc appends spec to the pipeline and returns it, so callers can
// continue configuring it (e.g. its Stdin/Stdout/Stderr FileSpecs) or
// reference it by value after Run.
func (p *Pipeline) AddProc(spec *ProcSpec) *ProcSpec {
	p.procs = append(p.procs, spec)
	return spec
}

// Procs returns every ProcSpec added to p, in declaration order, so a
// caller can inspect each one's terminal status after Run returns.
func (p *Pipeline) Procs() []*ProcSpec {
	return p.procs
}

// SetLockFile configures the path of the exclusive lock Run acquires
// before starting any process. An empty path (the default) disables
// locking.
func (p *Pipeline) SetLockFile(path string) {
	p.lockPath = path
}

// NewPipe returns a FileSpec that resolves to an anonymous pipe shared
// by every proc referencing it.
func NewPipe() *FileSpec { return NewPipeSpec() }

// NewFile returns a FileSpec that resolves to an on-disk path, appending
// to it rather than truncating if append is true.
func NewFile(path string, append bool) *FileSpec { return NewFileSpec(path, append) }

// DevNull returns a FileSpec that resolves to /dev/null.
func DevNull() *FileSpec { return NewFileSpec(devNull, false) }

// CallerStdin, CallerStdout, and CallerStderr return FileSpecs that
// dup the caller's own std streams for a child to inherit.
func CallerStdin() *FileSpec  { return NewFileSpec(devStdin, false) }
func CallerStdout() *FileSpec { return NewFileSpec(devStdout, false) }
func CallerStderr() *FileSpec { return NewFileSpec(devStderr, false) }

// Run executes every ProcSpec in p as a single supervised group. It
// implements the construction/teardown order spec §4.7 and §9 require:
//
//  1. install the SignalBlocker, so no SIGCHLD/SIGTERM/SIGINT/SIGQUIT
//     can race process creation;
//  2. acquire the lock file, if configured;
//  3. build the FileMap from every ProcSpec's stdio intent and open it;
//  4. fork+exec each ProcSpec in declaration order, all in one process
//     group led by the first proc (spec §4.4);
//  5. reap and dispatch signals via the harvester until every proc has
//     exited;
//  6. tear down in the reverse order construction used, with one
//     exception the original source is explicit about: the FileMap's
//     parent-side fds must close *before* the harvester is allowed to
//     block waiting on a child that is itself blocked reading from one
//     of those same pipes, or parent and child deadlock against each
//     other. So step 6 runs FileMap.closeAll() first, only then lets the
//     harvester finish waiting, and releases the lock last.
func (p *Pipeline) Run() error {
	if len(p.procs) == 0 {
		return werror.WrapErr(unix.EINVAL, "pipeline: at least one ProcSpec required")
	}

	for _, spec := range p.procs {
		spec.resetStatus()
	}

	blocker := NewSignalBlocker()
	defer blocker.Close()

	var lock *LockFile
	if p.lockPath != "" {
		var err error
		lock, err = AcquireLockFile(p.lockPath)
		if err != nil {
			return err
		}
	}
	defer lock.Release()

	fm := newFileMap()
	procs := make([]*proc, len(p.procs))
	for i, spec := range p.procs {
		procs[i] = &proc{spec: spec}
		if spec.Stdin != nil {
			procs[i].stdin = fm.get(spec.Stdin, true, false)
		}
		if spec.Stdout != nil {
			procs[i].stdout = fm.get(spec.Stdout, false, true)
		}
		if spec.Stderr != nil {
			procs[i].stderr = fm.get(spec.Stderr, false, true)
		}
	}

	h := newHarvester(blocker, procs)

	if err := fm.openAll(); err != nil {
		fm.closeAll()
		return err
	}

	// The first proc started becomes the pgid leader (newPGID 0 tells
	// safeForkExec to create a fresh group); every proc after it joins
	// that same group, matching spec §5's "first pid becomes the pgid"
	// ordering rule.
	var startErr error
	var groupPID int
	for i, pr := range procs {
		if i > 0 {
			pr.newPGID = groupPID
		}
		if err := pr.safeForkExec(); err != nil {
			startErr = err
			break
		}
		if i == 0 {
			groupPID = pr.spec.pid
		}
	}

	// Parent-side fds must go away before we block in the harvester,
	// whether or not every proc made it to the start line (spec §9).
	fm.closeAll()

	if startErr != nil {
		wmsg.GetOutput().Error(werror.Strip(startErr))
		h.reapRemaining()
		return startErr
	}

	h.run()
	return nil
}
