package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestRunExecutesDescribedPipeline(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("true"); err != nil {
		t.Skipf("true not available: %v", err)
	}

	dir := t.TempDir()
	descPath := filepath.Join(dir, "pipeline.yaml")
	desc := "procs:\n  - cmd: [\"true\"]\n"
	if err := os.WriteFile(descPath, []byte(desc), 0644); err != nil {
		t.Fatalf("write description: %v", err)
	}

	if err := run(descPath); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunRejectsMissingFile(t *testing.T) {
	t.Parallel()

	if err := run(filepath.Join(t.TempDir(), "does-not-exist.yaml")); err == nil {
		t.Fatalf("expected error for missing description file")
	}
}

func TestRunTryErrorWriteExecutesDescribedProc(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("cat"); err != nil {
		t.Skipf("cat not available: %v", err)
	}

	dir := t.TempDir()
	descPath := filepath.Join(dir, "try-error-write.yaml")
	desc := "cmd: [\"cat\"]\ninput: \"hello\"\n"
	if err := os.WriteFile(descPath, []byte(desc), 0644); err != nil {
		t.Fatalf("write description: %v", err)
	}

	if err := runTryErrorWrite(descPath); err != nil {
		t.Fatalf("runTryErrorWrite: %v", err)
	}
}

