// Command with-run loads a declarative pipeline description, decodes it
// with package script, and runs it with package pipeline. It is the
// Go-native stand-in for the Lua front end
// original_source/exec_scripting.cpp embedded into a calling
// application: here it is its own CLI instead of an embedded library,
// since this module has no host process to embed into.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/athenacr/with.namespace/pipeline"
	"github.com/athenacr/with.namespace/script"
	"github.com/athenacr/with.namespace/werror"
	"github.com/athenacr/with.namespace/wmsg"
)

func main() {
	var (
		file          string
		quiet         bool
		tryErrorWrite bool
	)

	flags := pflag.NewFlagSet("with-run", pflag.ExitOnError)
	flags.StringVarP(&file, "file", "f", "", "path to a YAML pipeline description (required)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress verbose diagnostics")
	flags.BoolVar(&tryErrorWrite, "try-error-write", false,
		"treat --file as a {cmd, input} try_error_write description instead of a pipeline")
	flags.Parse(os.Args[1:])

	if file == "" {
		fmt.Fprintln(os.Stderr, "with-run: --file is required")
		os.Exit(1)
	}

	if dm, ok := wmsg.GetOutput().(*wmsg.DefaultMsg); ok {
		dm.SetQuiet(quiet)
	}

	runFn := run
	if tryErrorWrite {
		runFn = runTryErrorWrite
	}
	if err := runFn(file); err != nil {
		fmt.Fprintf(os.Stderr, "with-run: %s\n", werror.Strip(err))
		os.Exit(1)
	}
}

func run(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return werror.WrapErrSuffix(err, "read", file, "failed:")
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return werror.WrapErrSuffix(err, "parse", file, "failed:")
	}

	p, err := script.Decode(doc)
	if err != nil {
		return err
	}

	if err := p.Run(); err != nil {
		return err
	}

	report(p)
	return nil
}

// runTryErrorWrite loads file as a {cmd, input} description and runs it
// through script.TryErrorWrite, the CLI entry point for spec §4.8's
// operation (--try-error-write makes it reachable the way
// exec_scripting.cpp's free-standing try_error_write binding is
// reachable from a Lua caller, independent of the procs pipeline path).
func runTryErrorWrite(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return werror.WrapErrSuffix(err, "read", file, "failed:")
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return werror.WrapErrSuffix(err, "parse", file, "failed:")
	}

	return script.TryErrorWrite(doc)
}

// report prints each proc's terminal status, the CLI-side counterpart
// of the properties exec_scripting.cpp exposed as daemon_proc_spec
// Lua properties (WIFEXITED/WEXITSTATUS/WIFSIGNALED/WTERMSIG).
func report(p *pipeline.Pipeline) {
	for _, spec := range p.Procs() {
		switch {
		case spec.Exited():
			fmt.Printf("%v: exited status %d\n", spec.Argv, spec.ExitStatus())
		case spec.Signaled():
			fmt.Printf("%v: killed by signal %v\n", spec.Argv, spec.TermSig())
		default:
			fmt.Printf("%v: did not run\n", spec.Argv)
		}
	}
}
