// Command with-ns is the setuid namespaced launcher: it detaches the
// mount namespace, remounts a private tmpfs at /with, materializes a
// symlink overlay plus metadata inside it, drops privilege, and execs
// into the caller's command. It is the Go counterpart of
// original_source/exec_with_namespace.cpp's main.
package main

// minimise imports: this binary runs setuid, so every import is an
// opportunity for an init function or global variable initializer to
// run code before main gets a chance to check euid.

import (
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/athenacr/with.namespace/werror"
	"github.com/athenacr/with.namespace/withfs"
)

func usage() {
	os.Stderr.WriteString("usage: " + filepath.Base(os.Args[0]) +
		" cmd args... -- mount-name t1=s1 t2=s2 ... -- envvar1 envvar2 ...\n" +
		"       " + filepath.Base(os.Args[0]) + " --init.d mount-name t1=s1 t2=s2 ...\n")
}

func main() {
	log.SetFlags(0)
	log.SetPrefix(filepath.Base(os.Args[0]) + ": ")
	log.SetOutput(os.Stderr)

	args := os.Args[1:]

	if len(args) > 0 && args[0] == "--init.d" {
		if err := withfs.InitD(args[1:]); err != nil {
			log.Fatal(werror.Strip(err))
		}
		return
	}

	cmd, nsArgs, env, ok := splitArgv(args)
	if !ok || len(nsArgs) == 0 {
		usage()
		os.Exit(1)
	}

	label := nsArgs[0]
	bindings := make([]withfs.Binding, 0, len(nsArgs)-1)
	for _, a := range nsArgs[1:] {
		b, err := withfs.ParseBinding(a)
		if err != nil {
			log.Fatal(werror.Strip(err))
		}
		bindings = append(bindings, b)
	}

	if err := withfs.Mount(label); err != nil {
		log.Fatal(werror.Strip(err))
	}
	if err := withfs.CreateSymlinksAndMetadata(withfs.MountPoint, label, bindings, nsArgs[1:]); err != nil {
		log.Fatal(werror.Strip(err))
	}
	if err := withfs.WriteEnvMetadata(withfs.MountPoint, env); err != nil {
		log.Fatal(werror.Strip(err))
	}

	uid := os.Getuid()
	gid := os.Getgid()
	if err := syscall.Setresgid(gid, gid, gid); err != nil {
		log.Fatalf("setresgid failed: %v", err)
	}
	if err := syscall.Setresuid(uid, uid, uid); err != nil {
		log.Fatalf("setresuid failed: %v", err)
	}

	// clearenv() + putenv(arg) for each trailing argument: the caller's
	// environment, sanitized away by the dynamic loader's secure-execution
	// mode because this binary is setuid, travels on the command line
	// instead and is reinstalled verbatim here, after privilege drop.
	if len(cmd) == 0 {
		log.Fatal("missing command")
	}
	path, err := exec.LookPath(cmd[0])
	if err != nil {
		log.Fatalf("execvp %s failed: %v", cmd[0], err)
	}
	if err := syscall.Exec(path, cmd, env); err != nil {
		log.Fatalf("execvp %s failed: %v", cmd[0], err)
	}
	panic("unreachable")
}

// splitArgv implements spec §4.9's backward scan: the tail after the
// last "--" is the environment, the segment between the two "--"
// markers is the namespace args (label first, then target=source
// pairs), and everything before the first marker is the command. ok is
// false if fewer than two "--" separators are present.
func splitArgv(args []string) (cmd, nsArgs, env []string, ok bool) {
	last := lastIndex(args, "--")
	if last < 0 {
		return nil, nil, nil, false
	}
	second := lastIndex(args[:last], "--")
	if second < 0 {
		return nil, nil, nil, false
	}
	return args[:second], args[second+1 : last], args[last+1:], true
}

func lastIndex(args []string, sep string) int {
	for i := len(args) - 1; i >= 0; i-- {
		if args[i] == sep {
			return i
		}
	}
	return -1
}
