// Package errs defines the compiler's error taxonomy: a stable, inspectable
// Code plus a chained wrapper E that carries pass/channel/timestamp context
// as the error travels up through the algebra and pipeline layers.
package errs

import "fmt"

// Code is a stable, caller-facing error identifier. It is a string newtype,
// comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (see SPEC_FULL.md §7).
const (
	BuildError        Code = "build_error"
	StateMismatch     Code = "state_mismatch"
	ChannelConflict   Code = "channel_conflict"
	TimingViolation   Code = "timing_violation"
	ScheduleError     Code = "schedule_error"
	InternalAssertion Code = "internal_assertion"
)

// E wraps a Code with layered context: the offending channel (as a string,
// to avoid an import cycle with package program), a cycle-accurate
// timestamp where applicable, the pass that raised it, and an optional
// cause.
type E struct {
	C         Code
	Op        string // layer/pass name, e.g. "program.Serial", "pass3.schedule"
	Channel   string // offending channel description, if any
	Timestamp int64  // cycles, -1 if not applicable
	Msg       string
	Err       error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s += " [" + e.Op + "]"
	}
	if e.Channel != "" {
		s += " channel=" + e.Channel
	}
	if e.Timestamp >= 0 {
		s += fmt.Sprintf(" t=%d", e.Timestamp)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// New builds a fresh E with no timestamp (Timestamp defaults to -1, meaning
// "not applicable").
func New(c Code, op, msg string) *E {
	return &E{C: c, Op: op, Msg: msg, Timestamp: -1}
}

// WithChannel attaches channel context and returns the receiver for chaining.
func (e *E) WithChannel(ch string) *E {
	e.Channel = ch
	return e
}

// WithTimestamp attaches a cycle timestamp and returns the receiver for chaining.
func (e *E) WithTimestamp(t int64) *E {
	e.Timestamp = t
	return e
}

// Wrap chains a cause and returns the receiver for chaining.
func (e *E) Wrap(cause error) *E {
	e.Err = cause
	return e
}

// Of extracts a Code from an error, defaulting to InternalAssertion since an
// error without a known Code reaching a caller is itself a bug in this
// package's own error discipline.
func Of(err error) Code {
	if err == nil {
		return ""
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return InternalAssertion
}
