package werror

import (
	"errors"
	"testing"
)

func TestWrapErr(t *testing.T) {
	if err := WrapErr(nil, "x"); err != nil {
		t.Errorf("WrapErr(nil) = %v, want nil", err)
	}

	underlying := errors.New("boom")
	err := WrapErr(underlying, "open failed: ", underlying)
	var e *BaseError
	if !AsBaseError(err, &e) {
		t.Fatalf("AsBaseError = false, want true")
	}
	if !errors.Is(err, underlying) {
		t.Errorf("errors.Is(err, underlying) = false, want true")
	}
}

func TestWrapErrSuffix(t *testing.T) {
	underlying := errors.New("ENOENT")
	err := WrapErrSuffix(underlying, "open", "/etc/passwd", "failed:")
	want := "open /etc/passwd failed: ENOENT\n"
	var e *BaseError
	if !AsBaseError(err, &e) {
		t.Fatalf("AsBaseError = false, want true")
	}
	if e.Message() != want {
		t.Errorf("Message() = %q, want %q", e.Message(), want)
	}
}

func TestStrip(t *testing.T) {
	underlying := errors.New("mount failed: EPERM")
	wrapped := WrapErrf(underlying, "unshare: %s", underlying)
	if got := Strip(wrapped); got != "unshare: mount failed: EPERM" {
		t.Errorf("Strip(wrapped) = %q", got)
	}

	plain := errors.New("plain")
	if got := Strip(plain); got != "plain" {
		t.Errorf("Strip(plain) = %q, want %q", got, "plain")
	}

	if got := Strip(nil); got != "" {
		t.Errorf("Strip(nil) = %q, want empty", got)
	}
}
