package withfs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseBinding(t *testing.T) {
	cases := []struct {
		in      string
		want    Binding
		wantErr bool
	}{
		{"a=/etc/hosts", Binding{"a", "/etc/hosts"}, false},
		{"a/b/c=/etc/hosts", Binding{"a/b/c", "/etc/hosts"}, false},
		{"noequals", Binding{}, true},
		{"a=", Binding{}, true},
	}
	for _, c := range cases {
		got, err := ParseBinding(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("ParseBinding(%q) error = %v, wantErr %v", c.in, err, c.wantErr)
			continue
		}
		if err == nil && got != c.want {
			t.Errorf("ParseBinding(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestBindCreatesIntermediateDirs(t *testing.T) {
	root := t.TempDir()
	srcFile := filepath.Join(root, "source-target")
	if err := os.WriteFile(srcFile, []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Bind(root, Binding{Target: "a/b/c", Source: srcFile}); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	link := filepath.Join(root, "a", "b", "c")
	dest, err := os.Readlink(link)
	if err != nil {
		t.Fatalf("Readlink: %v", err)
	}
	if dest != srcFile {
		t.Errorf("Readlink(%s) = %q, want %q", link, dest, srcFile)
	}
}

func TestWriteNamespaceMetadata(t *testing.T) {
	root := t.TempDir()
	if err := WriteNamespaceMetadata(root, "label", []string{"a=/etc/hosts"}); err != nil {
		t.Fatalf("WriteNamespaceMetadata: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(root, nsMetaFile))
	if err != nil {
		t.Fatal(err)
	}
	want := "label a=/etc/hosts "
	if string(got) != want {
		t.Errorf(".ns = %q, want %q", got, want)
	}
}

func TestWriteEnvMetadata(t *testing.T) {
	root := t.TempDir()
	if err := WriteEnvMetadata(root, []string{"PATH=/usr/bin", "HOME=/root"}); err != nil {
		t.Fatalf("WriteEnvMetadata: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(root, envMetaFile))
	if err != nil {
		t.Fatal(err)
	}
	want := "PATH=/usr/bin\nHOME=/root\n"
	if string(got) != want {
		t.Errorf(".env = %q, want %q", got, want)
	}
}

func TestInitDRequiresLabel(t *testing.T) {
	if err := InitD(nil); err == nil {
		t.Errorf("InitD(nil) = nil, want error")
	}
}

func TestBuildLauncherArgv(t *testing.T) {
	a := BuildLauncherArgv("/usr/bin/with-ns",
		[]string{"sh", "-c", "ls /with"},
		[]string{"label", "a=/etc/hosts"},
		[]string{"PATH=/usr/bin"})

	want := []string{"/usr/bin/with-ns", "sh", "-c", "ls /with", "--", "label", "a=/etc/hosts", "--", "PATH=/usr/bin"}
	got := a.Slice()
	if len(got) != len(want) {
		t.Fatalf("argv length = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("argv[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
