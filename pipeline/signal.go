package pipeline

import (
	"os"
	"os/signal"
	"syscall"
)

// SignalBlocker installs process-wide signal handling for the
// pipeline's active region: SIGCHLD, SIGTERM, SIGINT, SIGQUIT, and
// SIGPIPE are routed to an internal channel instead of taking their
// default action, while SIGHUP is set SIG_IGN (signal.Ignore undoes the
// Notify registration for it, so it never reaches the channel) and stays
// ignored across fork+exec into children (spec §4.5). Close restores
// SIGHUP to whatever disposition it had before NewSignalBlocker ran, so
// a full construct/Close cycle leaves the process's signal state exactly
// as it found it (spec §8's mask/SIGHUP-action round-trip invariant).
// This is the Go counterpart of original_source/pipe.hpp's
// SignalBlocker; see DESIGN.md for why a channel, not a raw
// sigprocmask/sigwait pair, is used.
type SignalBlocker struct {
	ch            chan os.Signal
	hupWasIgnored bool
}

// NewSignalBlocker installs the blocker. Callers must call Close when
// the pipeline's active region ends.
func NewSignalBlocker() *SignalBlocker {
	b := &SignalBlocker{
		ch:            make(chan os.Signal, 16),
		hupWasIgnored: signal.Ignored(syscall.SIGHUP),
	}
	signal.Notify(b.ch,
		syscall.SIGCHLD, syscall.SIGHUP, syscall.SIGTERM,
		syscall.SIGINT, syscall.SIGQUIT, syscall.SIGPIPE)
	signal.Ignore(syscall.SIGHUP)
	return b
}

// Close restores default signal handling, then restores SIGHUP to the
// disposition it had before NewSignalBlocker ran: left ignored if it was
// already ignored on entry, reset to its default action otherwise.
func (b *SignalBlocker) Close() {
	signal.Stop(b.ch)
	if !b.hupWasIgnored {
		signal.Reset(syscall.SIGHUP)
	}
}

// wait blocks until a signal in the blocked set arrives and returns it.
func (b *SignalBlocker) wait() syscall.Signal {
	s := <-b.ch
	if sig, ok := s.(syscall.Signal); ok {
		return sig
	}
	return 0
}
