package pipeline

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

func requireBinary(t *testing.T, name string) string {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
	return path
}

func TestPipelineRunSingleProc(t *testing.T) {
	requireBinary(t, "true")

	p := New()
	p.AddProc(&ProcSpec{Argv: []string{"true"}})

	if err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestPipelineRunPipesOutputBetweenTwoProcs(t *testing.T) {
	requireBinary(t, "printf")
	requireBinary(t, "cat")

	dir := t.TempDir()
	outPath := filepath.Join(dir, "out")

	pipe := NewPipe()
	out := NewFile(outPath, false)

	p := New()
	p.AddProc(&ProcSpec{
		Argv:   []string{"printf", "%s", "hello-pipeline"},
		Stdout: pipe,
	})
	p.AddProc(&ProcSpec{
		Argv:   []string{"cat"},
		Stdin:  pipe,
		Stdout: out,
	})

	if err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != "hello-pipeline" {
		t.Errorf("got %q, want %q", got, "hello-pipeline")
	}
}

func TestPipelineRunRecordsExitStatus(t *testing.T) {
	requireBinary(t, "sh")

	p := New()
	spec := p.AddProc(&ProcSpec{Argv: []string{"sh", "-c", "exit 7"}})

	if err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !spec.Exited() {
		t.Fatalf("expected proc to have exited normally")
	}
	if spec.ExitStatus() != 7 {
		t.Errorf("got exit status %d, want 7", spec.ExitStatus())
	}
}

func TestPipelineRunUnknownCommandFails(t *testing.T) {
	p := New()
	p.AddProc(&ProcSpec{Argv: []string{"with-namespace-nonexistent-binary-xyz"}})

	if err := p.Run(); err == nil {
		t.Fatalf("expected Run to fail for an unresolvable command")
	}
}

func TestPipelineRunRejectsZeroProcs(t *testing.T) {
	p := New()

	if err := p.Run(); err == nil {
		t.Fatalf("expected Run to fail for a pipeline with no ProcSpecs")
	}
}

func TestPipelineRunConcurrentPipelinesDoNotStealExitStatus(t *testing.T) {
	requireBinary(t, "sh")

	const n = 8
	var wg sync.WaitGroup
	specs := make([]*ProcSpec, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := New()
			code := i % 7
			specs[i] = p.AddProc(&ProcSpec{Argv: []string{"sh", "-c", fmt.Sprintf("exit %d", code)}})
			errs[i] = p.Run()
		}()
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("pipeline %d: Run: %v", i, errs[i])
		}
		want := i % 7
		if !specs[i].Exited() {
			t.Fatalf("pipeline %d: proc did not exit normally", i)
		}
		if got := specs[i].ExitStatus(); got != want {
			t.Errorf("pipeline %d: ExitStatus() = %d, want %d (another pipeline's harvester stole this status)", i, got, want)
		}
	}
}

func TestPipelineRunWithLockFile(t *testing.T) {
	requireBinary(t, "true")

	p := New()
	p.SetLockFile(filepath.Join(t.TempDir(), "run.lock"))
	p.AddProc(&ProcSpec{Argv: []string{"true"}})

	if err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
