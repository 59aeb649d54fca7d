// Package wmsg provides the ambient logging seam used by withfs and
// pipeline: a small Msg interface backed by a structured logger, with a
// package-level default that callers may override.
package wmsg

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Msg is the logging surface injected into withfs and pipeline. It is
// intentionally narrow: this module has no use for levels beyond
// verbose diagnostics and reported errors.
type Msg interface {
	// Verbose logs a diagnostic line that is safe to suppress in quiet mode.
	Verbose(a ...any)
	// Verbosef is the formatted form of Verbose.
	Verbosef(format string, a ...any)
	// Error logs a failure.
	Error(a ...any)
}

// DefaultMsg is a zap-backed Msg. The zero value is unusable; construct
// with NewDefaultMsg.
type DefaultMsg struct {
	l     *zap.SugaredLogger
	quiet atomic.Bool
}

// NewDefaultMsg returns a DefaultMsg backed by a production zap logger.
func NewDefaultMsg() *DefaultMsg {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	return &DefaultMsg{l: l.Sugar()}
}

// SetQuiet suppresses Verbose/Verbosef output when quiet is true.
func (m *DefaultMsg) SetQuiet(quiet bool) { m.quiet.Store(quiet) }

func (m *DefaultMsg) Verbose(a ...any) {
	if !m.quiet.Load() {
		m.l.Info(a...)
	}
}

func (m *DefaultMsg) Verbosef(format string, a ...any) {
	if !m.quiet.Load() {
		m.l.Infof(format, a...)
	}
}

func (m *DefaultMsg) Error(a ...any) { m.l.Error(a...) }

var msg Msg = NewDefaultMsg()

// GetOutput returns the current package-level Msg.
func GetOutput() Msg { return msg }

// SetOutput overrides the package-level Msg. Passing nil restores the
// default zap-backed implementation.
func SetOutput(v Msg) {
	if v == nil {
		msg = NewDefaultMsg()
	} else {
		msg = v
	}
}
