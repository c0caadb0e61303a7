// Package clog provides the structured, leveled logger used by the program
// factory layer to record construction-time rejections. The compiler
// packages do not log through it. It wraps github.com/joeycumines/logiface
// with the github.com/joeycumines/stumpy JSON backend.
package clog

import (
	"io"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the concrete logger type used throughout this module.
type Logger = logiface.Logger[*stumpy.Event]

// New builds a Logger writing newline-delimited JSON to w.
func New(w io.Writer) *Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
	)
}

// Discard is a logger that drops every record; it is the default used by
// packages that accept an optional *Logger and receive nil.
var Discard = New(io.Discard)

// Use returns l if non-nil, otherwise Discard. Every package in this module
// that accepts an optional logger calls this at its entry point rather than
// nil-checking on every log call.
func Use(l *Logger) *Logger {
	if l == nil {
		return Discard
	}
	return l
}
