// Package withfs materializes the per-process symlink overlay inside
// the well-known tmpfs mountpoint, the Go counterpart of
// original_source/exec_with_namespace.cpp.
package withfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/athenacr/with.namespace/argv"
	"github.com/athenacr/with.namespace/werror"
	"github.com/athenacr/with.namespace/wmsg"
)

const (
	// MountPoint is the well-known mountpoint where per-namespace
	// symlinks are materialized.
	MountPoint = "/with"
	// RunFile marks that the boot-time --init.d priming has run.
	RunFile = "/var/run/with.inited"
	// HelperDir holds the setuid launcher binary.
	HelperDir = "/usr/bin"
	// Version is the exported protocol/metadata version.
	Version = 1

	nsMetaFile  = ".ns"
	envMetaFile = ".env"

	// parentPerm is the mode used for intermediate directories created
	// while materializing a symlink target, matching
	// S_IRWXU|S_IRGRP|S_IXGRP|S_IROTH|S_IXOTH (0755) in the original.
	parentPerm = 0755
)

// Binding is one target=source pair from the namespace argument list.
type Binding struct {
	Target string
	Source string
}

// ParseBinding splits a "target=source" argument, rejecting a missing
// '=' or an empty source as spec §3 requires.
func ParseBinding(arg string) (Binding, error) {
	i := strings.IndexByte(arg, '=')
	if i < 0 || i == len(arg)-1 {
		return Binding{}, werror.WrapErr(unix.EINVAL,
			fmt.Sprintf("argument %q must be of the form target=src", arg))
	}
	return Binding{Target: arg[:i], Source: arg[i+1:]}, nil
}

// mkdirP recursively creates dir, tolerating a pre-existing directory
// the way original_source's mkdir_p does (its own hand-rolled parent
// walk is replaced here by os.MkdirAll, which already has these
// semantics built in).
func mkdirP(dir string, perm os.FileMode) error {
	if err := os.MkdirAll(dir, perm); err != nil {
		return werror.WrapErrSuffix(err, "create", dir, "failed:")
	}
	return nil
}

// Bind materializes one target=source symlink under root (normally
// MountPoint), creating any missing parent directories first.
func Bind(root string, b Binding) error {
	target := filepath.Join(root, b.Target)
	if err := mkdirP(filepath.Dir(target), parentPerm); err != nil {
		return err
	}
	if err := os.Symlink(b.Source, target); err != nil {
		return werror.WrapErrSuffix(err, "symlink", target, "->", b.Source, "failed:")
	}
	wmsg.GetOutput().Verbosef("bound %s -> %s", target, b.Source)
	return nil
}

// WriteNamespaceMetadata writes root/.ns: the mount label followed by
// every "target=source" argument (rawArgs must not include the label
// itself), space-separated on one line with a trailing space, matching
// create_symlinks_and_metadata's fprintf loop.
func WriteNamespaceMetadata(root string, label string, rawArgs []string) error {
	var sb strings.Builder
	sb.WriteString(label)
	sb.WriteByte(' ')
	for _, a := range rawArgs {
		sb.WriteString(a)
		sb.WriteByte(' ')
	}
	path := filepath.Join(root, nsMetaFile)
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return werror.WrapErrSuffix(err, "unable to write namespace metadata:", path)
	}
	return nil
}

// WriteEnvMetadata writes root/.env: one NAME=VALUE entry per line.
func WriteEnvMetadata(root string, env []string) error {
	var sb strings.Builder
	for _, e := range env {
		sb.WriteString(e)
		sb.WriteByte('\n')
	}
	path := filepath.Join(root, envMetaFile)
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return werror.WrapErrSuffix(err, "unable to write env metadata:", path)
	}
	return nil
}

// CreateSymlinksAndMetadata binds every b and writes the .ns metadata
// file. rawArgs is the namespace's binding arguments only ("target=source",
// one per Binding) — the label must not be included, since it is written
// to .ns separately from label.
func CreateSymlinksAndMetadata(root string, label string, bindings []Binding, rawArgs []string) error {
	for _, b := range bindings {
		if err := Bind(root, b); err != nil {
			return err
		}
	}
	return WriteNamespaceMetadata(root, label, rawArgs)
}

// Mount detaches the mount namespace, lazily unmounts whatever tmpfs is
// currently at MountPoint, and mounts a fresh private tmpfs labeled
// name in its place. It must run before CreateSymlinksAndMetadata in
// the normal (non --init.d) launch path.
func Mount(name string) error {
	if err := unix.Unshare(unix.CLONE_NEWNS); err != nil {
		return werror.WrapErrSuffix(err, "unshare failed:")
	}
	if err := unix.Unmount(MountPoint, unix.MNT_DETACH); err != nil {
		return werror.WrapErrSuffix(err, "umount2 tmpfs", MountPoint, "failed:")
	}
	if err := unix.Mount(name, MountPoint, "tmpfs", 0, ""); err != nil {
		return werror.WrapErrSuffix(err, "mount tmpfs", MountPoint, "failed:")
	}
	return nil
}

// InitD implements the "--init.d" fast path: build the symlinks and
// .ns metadata against whatever is already mounted at MountPoint,
// skipping the namespace operations entirely. Used to prime the
// well-known tmpfs at boot, before any per-process namespace exists.
func InitD(rawArgs []string) error {
	if len(rawArgs) == 0 {
		return werror.WrapErr(unix.EINVAL, "init.d: missing mount label")
	}
	label := rawArgs[0]
	bindings := make([]Binding, 0, len(rawArgs)-1)
	for _, a := range rawArgs[1:] {
		b, err := ParseBinding(a)
		if err != nil {
			return err
		}
		bindings = append(bindings, b)
	}
	return CreateSymlinksAndMetadata(MountPoint, label, bindings, rawArgs[1:])
}

// BuildLauncherArgv constructs the argv used to invoke the setuid
// launcher binary at helperPath, the Go equivalent of
// original_source/exec.cpp's exec_with_namespace: the command to run,
// a "--", the namespace args (label first, then target=source pairs),
// another "--", and finally the full environment to reinstall after
// privilege drop.
func BuildLauncherArgv(helperPath string, cmd []string, namespaceArgs []string, env []string) *argv.Args {
	a := argv.New(helperPath)
	for _, c := range cmd {
		a.Append(c)
	}
	a.Append("--")
	for _, n := range namespaceArgs {
		a.Append(n)
	}
	a.Append("--")
	for _, e := range env {
		a.Append(e)
	}
	return a
}
