package script

import "testing"

func TestDecodeSingleProc(t *testing.T) {
	t.Parallel()

	doc := map[string]any{
		"procs": []any{
			map[string]any{
				"cmd": []any{"true"},
			},
		},
	}

	p, err := Decode(doc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p == nil {
		t.Fatalf("Decode returned nil pipeline")
	}
}

func TestDecodeWiresNamedPipe(t *testing.T) {
	t.Parallel()

	doc := map[string]any{
		"files": map[string]any{
			"p1": map[string]any{"pipe": true},
		},
		"procs": []any{
			map[string]any{"cmd": []any{"printf", "hi"}, "stdout": "p1"},
			map[string]any{"cmd": []any{"cat"}, "stdin": "p1"},
		},
	}

	if _, err := Decode(doc); err != nil {
		t.Fatalf("Decode: %v", err)
	}
}

func TestDecodeRejectsUnknownTopLevelKey(t *testing.T) {
	t.Parallel()

	doc := map[string]any{"bogus": true}
	if _, err := Decode(doc); err == nil {
		t.Fatalf("expected error for unknown top-level key")
	}
}

func TestDecodeRejectsMissingCmd(t *testing.T) {
	t.Parallel()

	doc := map[string]any{
		"procs": []any{map[string]any{"forward_signals": true}},
	}
	if _, err := Decode(doc); err == nil {
		t.Fatalf("expected error for proc descriptor with no cmd")
	}
}

func TestDecodeRejectsUnknownProcKey(t *testing.T) {
	t.Parallel()

	doc := map[string]any{
		"procs": []any{map[string]any{"cmd": []any{"true"}, "bogus": 1}},
	}
	if _, err := Decode(doc); err == nil {
		t.Fatalf("expected error for unknown proc key")
	}
}

func TestDecodeRejectsDanglingFileReference(t *testing.T) {
	t.Parallel()

	doc := map[string]any{
		"procs": []any{map[string]any{"cmd": []any{"true"}, "stdin": "nope"}},
	}
	if _, err := Decode(doc); err == nil {
		t.Fatalf("expected error for reference to an undeclared file")
	}
}

func TestDecodeCmdRejectsNonConsecutiveMappingKeys(t *testing.T) {
	t.Parallel()

	cmd := map[string]any{"1": "a", "3": "b"}
	if _, err := decodeCmd(cmd, "cmd"); err == nil {
		t.Fatalf("expected error for non-consecutive integer keys")
	}
}

func TestDirnameBasename(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		path, wantDir, wantBase string
	}{
		{"/usr/bin/with-run", "/usr/bin", "with-run"},
		{"with-run", ".", "with-run"},
		{"/", "/", "/"},
	}
	for _, tc := range testCases {
		if got := Dirname(tc.path); got != tc.wantDir {
			t.Errorf("Dirname(%q) = %q, want %q", tc.path, got, tc.wantDir)
		}
		if got := Basename(tc.path); got != tc.wantBase {
			t.Errorf("Basename(%q) = %q, want %q", tc.path, got, tc.wantBase)
		}
	}
}
