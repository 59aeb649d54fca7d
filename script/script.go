// Package script decodes a declarative pipeline description — any Go
// value with the shape spec §6's embedding-layer contract describes —
// into a runnable *pipeline.Pipeline. It stands in for the Lua
// embedding layer original_source/exec_scripting.cpp exposed: where
// that file bound a C++ object graph directly into Lua tables holding
// live userdata, this package walks a shape produced by unmarshaling
// YAML (or hand-built Go values) and resolves named file tokens against
// a table built during Decode, since YAML has no way to embed a live
// object reference the way a Lua table entry can.
package script

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/athenacr/with.namespace/pipeline"
	"github.com/athenacr/with.namespace/werror"
	"github.com/athenacr/with.namespace/withfs"
)

// Well-known constants re-exported for the declarative front end, the
// Go counterpart of luaopen_with_exec_c's module-level constant table.
const (
	MountPoint = withfs.MountPoint
	RunFile    = withfs.RunFile
	Version    = withfs.Version
	ENOENT     = unix.ENOENT
	EEXIST     = unix.EEXIST
	SIGTERM    = unix.SIGTERM
)

// Decode builds a *pipeline.Pipeline from doc, which must decode (e.g.
// from YAML) into a map with up to three recognized top-level keys:
//
//	lock_file: string, optional, path passed to Pipeline.SetLockFile
//	files: map of name -> file descriptor (see decodeFileSpec)
//	procs: sequence of proc descriptors (see decodeProc)
//
// Any other top-level key, or any malformed descriptor, is a reported
// error rather than silently ignored, matching
// daemon_pipe_add_proc's "unknown key" rejection.
func Decode(doc any) (*pipeline.Pipeline, error) {
	top, ok := asMap(doc)
	if !ok {
		return nil, werror.WrapErr(unix.EINVAL, "pipeline description must be a mapping")
	}

	p := pipeline.New()
	files := make(map[string]*pipeline.FileSpec)
	var procsVal any
	haveProcs := false

	for key, v := range top {
		switch key {
		case "lock_file":
			s, ok := v.(string)
			if !ok {
				return nil, werror.WrapErr(unix.EINVAL, "lock_file must be a string")
			}
			p.SetLockFile(s)

		case "files":
			m, ok := asMap(v)
			if !ok {
				return nil, werror.WrapErr(unix.EINVAL, "files must be a mapping")
			}
			for name, fv := range m {
				spec, err := decodeFileSpec(fv)
				if err != nil {
					return nil, err
				}
				files[name] = spec
			}

		case "procs":
			// Decoded after the loop, once every "files" entry is known.
			procsVal, haveProcs = v, true

		default:
			return nil, werror.WrapErr(unix.EINVAL, fmt.Sprintf("unknown key %q in pipeline description", key))
		}
	}

	if haveProcs {
		list, ok := procsVal.([]any)
		if !ok {
			return nil, werror.WrapErr(unix.EINVAL, "procs must be a sequence")
		}
		for i, pv := range list {
			spec, err := decodeProc(pv, files)
			if err != nil {
				return nil, werror.WrapErrf(err, "procs[%d]: %s", i, werror.Strip(err))
			}
			p.AddProc(spec)
		}
	}

	return p, nil
}

// decodeFileSpec turns one "files" entry into a *pipeline.FileSpec. The
// recognized shapes are:
//
//	"devnull" | "caller_stdin" | "caller_stdout" | "caller_stderr"  (bare string)
//	{pipe: true}
//	{file: "<path>", append: <bool, optional>}
//
// Grounded on daemon_pipe's add_pipe/add_file/get_devnull/
// get_caller_stdin family, collapsed into one entry point since this
// package has no live object identity to dispatch on.
func decodeFileSpec(v any) (*pipeline.FileSpec, error) {
	if s, ok := v.(string); ok {
		switch s {
		case "devnull":
			return pipeline.DevNull(), nil
		case "caller_stdin":
			return pipeline.CallerStdin(), nil
		case "caller_stdout":
			return pipeline.CallerStdout(), nil
		case "caller_stderr":
			return pipeline.CallerStderr(), nil
		default:
			return nil, werror.WrapErr(unix.EINVAL, fmt.Sprintf("unrecognized file token %q", s))
		}
	}

	m, ok := asMap(v)
	if !ok {
		return nil, werror.WrapErr(unix.EINVAL, "file descriptor must be a string or mapping")
	}
	if _, ok := m["pipe"]; ok {
		return pipeline.NewPipe(), nil
	}
	if raw, ok := m["file"]; ok {
		path, ok := raw.(string)
		if !ok {
			return nil, werror.WrapErr(unix.EINVAL, "file: path must be a string")
		}
		appendMode := false
		if a, ok := m["append"]; ok {
			b, ok := a.(bool)
			if !ok {
				return nil, werror.WrapErr(unix.EINVAL, "append must be a boolean")
			}
			appendMode = b
		}
		return pipeline.NewFile(path, appendMode), nil
	}
	return nil, werror.WrapErr(unix.EINVAL, "file descriptor must have a \"pipe\" or \"file\" key")
}

// decodeProc turns one "procs" entry into a *pipeline.ProcSpec, the Go
// counterpart of daemon_pipe_add_proc's key switch.
func decodeProc(v any, files map[string]*pipeline.FileSpec) (*pipeline.ProcSpec, error) {
	m, ok := asMap(v)
	if !ok {
		return nil, werror.WrapErr(unix.EINVAL, "proc descriptor must be a mapping")
	}

	spec := &pipeline.ProcSpec{}
	cmdFound := false

	for key, val := range m {
		switch key {
		case "cmd":
			cmd, err := decodeCmd(val, "cmd")
			if err != nil {
				return nil, err
			}
			spec.Argv = cmd
			cmdFound = true

		case "forward_signals":
			b, ok := val.(bool)
			if !ok {
				return nil, werror.WrapErr(unix.EINVAL, "forward_signals must be a boolean")
			}
			spec.ForwardSignals = b

		case "stdin":
			fs, err := lookupFile(files, val, "stdin")
			if err != nil {
				return nil, err
			}
			spec.Stdin = fs

		case "stdout":
			fs, err := lookupFile(files, val, "stdout")
			if err != nil {
				return nil, err
			}
			spec.Stdout = fs

		case "stderr":
			fs, err := lookupFile(files, val, "stderr")
			if err != nil {
				return nil, err
			}
			spec.Stderr = fs

		default:
			return nil, werror.WrapErr(unix.EINVAL, fmt.Sprintf("unknown key %q in proc descriptor", key))
		}
	}

	if !cmdFound {
		return nil, werror.WrapErr(unix.EINVAL, "proc descriptor: cmd is required")
	}
	return spec, nil
}

func lookupFile(files map[string]*pipeline.FileSpec, v any, key string) (*pipeline.FileSpec, error) {
	name, ok := v.(string)
	if !ok {
		return nil, werror.WrapErr(unix.EINVAL, fmt.Sprintf("%s must name an entry in files", key))
	}
	fs, ok := files[name]
	if !ok {
		return nil, werror.WrapErr(unix.EINVAL, fmt.Sprintf("%s: no such file entry %q", key, name))
	}
	return fs, nil
}

// decodeCmd validates and extracts an ordered list of strings,
// accepting either a YAML sequence (the common case) or a mapping with
// consecutive integer-string keys starting at "1". The latter
// reproduces copyCmdFromLua's defensive validation of what, in Lua, is
// always technically a table that could have gaps or non-numeric keys;
// a YAML mapping shaped the same way is rejected the same way here.
func decodeCmd(v any, errName string) ([]string, error) {
	if list, ok := v.([]any); ok {
		cmd := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, werror.WrapErr(unix.EINVAL,
					fmt.Sprintf("bad value in %s (string expected at index %d)", errName, i+1))
			}
			cmd = append(cmd, s)
		}
		return cmd, nil
	}

	m, ok := asMap(v)
	if !ok {
		return nil, werror.WrapErr(unix.EINVAL, fmt.Sprintf("%s must be a sequence", errName))
	}
	cmd := make([]string, 0, len(m))
	for i := 1; ; i++ {
		val, ok := m[fmt.Sprintf("%d", i)]
		if !ok {
			break
		}
		s, ok := val.(string)
		if !ok {
			return nil, werror.WrapErr(unix.EINVAL,
				fmt.Sprintf("bad value in %s (string expected, key %d)", errName, i))
		}
		cmd = append(cmd, s)
	}
	if len(cmd) != len(m) {
		return nil, werror.WrapErr(unix.EINVAL, fmt.Sprintf("keys must be consecutive in %s", errName))
	}
	return cmd, nil
}

// asMap normalizes the two shapes a YAML-decoded mapping can take
// (map[string]any, or map[any]any from some decoders) into
// map[string]any.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			s, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[s] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// TryErrorWrite decodes doc — a mapping with a "cmd" sequence and an
// "input" string — and runs pipeline.TryErrorWrite against it. This is
// the Go counterpart of exec_scripting.cpp's free-standing
// try_error_write Lua binding, which (unlike add_proc/run) takes a bare
// cmd_argv table and an input string rather than operating through a
// daemon_pipe object.
func TryErrorWrite(doc any) error {
	m, ok := asMap(doc)
	if !ok {
		return werror.WrapErr(unix.EINVAL, "try_error_write description must be a mapping")
	}

	cmdVal, ok := m["cmd"]
	if !ok {
		return werror.WrapErr(unix.EINVAL, "try_error_write: cmd is required")
	}
	cmd, err := decodeCmd(cmdVal, "cmd")
	if err != nil {
		return err
	}

	input, ok := m["input"].(string)
	if !ok {
		return werror.WrapErr(unix.EINVAL, "try_error_write: input must be a string")
	}

	pipeline.TryErrorWrite(&pipeline.ProcSpec{Argv: cmd}, []byte(input))
	return nil
}

// Dirname returns the directory portion of path, the Go counterpart of
// libgen.h's dirname() as wrapped by luadirname.
func Dirname(path string) string {
	return dirname(path)
}

// Basename returns the final path element, the Go counterpart of
// libgen.h's basename() as wrapped by luabasename.
func Basename(path string) string {
	return basename(path)
}
