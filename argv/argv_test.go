package argv

import "testing"

func TestEmpty(t *testing.T) {
	a := new(Args)
	if !a.Empty() {
		t.Errorf("Empty() = false, want true")
	}
	a.Append("/bin/echo")
	if a.Empty() {
		t.Errorf("Empty() = true, want false")
	}
}

func TestExecName(t *testing.T) {
	a := New("/bin/echo", "hello")
	if got := a.ExecName(); got != "/bin/echo" {
		t.Errorf("ExecName() = %q, want %q", got, "/bin/echo")
	}
}

func TestExecNamePanicsOnEmpty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("ExecName() on empty Args did not panic")
		}
	}()
	new(Args).ExecName()
}

func TestExecvpEmptyIsError(t *testing.T) {
	if err := new(Args).Execvp(); err == nil {
		t.Errorf("Execvp() on empty Args = nil, want error")
	}
}

func TestExecvpUnknownProgram(t *testing.T) {
	a := New("this-program-does-not-exist-xyz")
	if err := a.Execvp(); err == nil {
		t.Errorf("Execvp() for unknown program = nil, want error")
	}
}
