// Package argv implements the Argv carrier: an argv array suitable for
// execvp/execve, the Go counterpart of original_source/exec.hpp's
// exec_args.
package argv

import (
	"os/exec"
	"syscall"

	"github.com/athenacr/with.namespace/werror"
)

// Args is a growable argv array. The zero value is an empty argv.
type Args struct {
	args []string
}

// New returns an Args seeded with the given arguments, equivalent to
// calling Append in sequence.
func New(args ...string) *Args {
	a := new(Args)
	for _, s := range args {
		a.Append(s)
	}
	return a
}

// Append appends a copy of arg. Strings are immutable in Go so no
// explicit copy is required, unlike exec_args::push_back's strdup.
func (a *Args) Append(arg string) { a.args = append(a.args, arg) }

// Empty reports whether no arguments have been appended.
func (a *Args) Empty() bool { return len(a.args) == 0 }

// ExecName returns the program name: the first appended argument. It
// panics if a is empty, matching exec_name()'s precondition that argv
// is never queried before a command is pushed.
func (a *Args) ExecName() string {
	if a.Empty() {
		panic("argv: ExecName called on empty Args")
	}
	return a.args[0]
}

// Slice returns the underlying argument slice. Callers must not retain
// or mutate it beyond the lifetime of the exec call it is used for.
func (a *Args) Slice() []string { return a.args }

// Execvp searches PATH for the program and replaces the calling
// process image, the same semantics as C's execvp(). It returns only on
// failure, wrapped with the attempted program name and errno text.
func (a *Args) Execvp() error {
	if a.Empty() {
		return werror.WrapErr(syscall.EINVAL, "argv: cmd_argv is empty")
	}
	path, err := exec.LookPath(a.ExecName())
	if err != nil {
		return werror.WrapErrSuffix(err, "execvp", a.ExecName(), "failed:")
	}
	if err := syscall.Exec(path, a.args, nil); err != nil {
		return werror.WrapErrSuffix(err, "execvp", a.ExecName(), "failed:")
	}
	panic("argv: unreachable after successful exec")
}

// Execve replaces the calling process image with the given explicit
// environment, the same semantics as C's execve(). It returns only on
// failure.
func (a *Args) Execve(environ []string) error {
	if a.Empty() {
		return werror.WrapErr(syscall.EINVAL, "argv: cmd_argv is empty")
	}
	if err := syscall.Exec(a.ExecName(), a.args, environ); err != nil {
		return werror.WrapErrSuffix(err, "execve", a.ExecName(), "failed:")
	}
	panic("argv: unreachable after successful exec")
}
