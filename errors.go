// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package procrpc

import (
	"errors"
	"fmt"
)

// An ErrorKind names one of the canonical failure categories a Dispatcher
// can report. The kind is always the prefix of the resulting Response's
// error string.
type ErrorKind string

const (
	UnknownService   ErrorKind = "UnknownService"
	UnknownProcedure ErrorKind = "UnknownProcedure"
	WrongContext     ErrorKind = "WrongContext"
	MissingArgument  ErrorKind = "MissingArgument"
	InvalidArgument  ErrorKind = "InvalidArgument"
	UnknownHandle    ErrorKind = "UnknownHandle"
	NullReference    ErrorKind = "NullReference"
	NullReturn       ErrorKind = "NullReturn"
	ProcedureFailed  ErrorKind = "ProcedureFailed"
)

// An Error is the concrete type of every failure the core reports back to a
// caller. Its Kind is the canonical category; Message carries
// kind-specific detail. Error values never carry a return_value.
//
// Error mirrors the source's ErrorData: a small, flat, wire-friendly record
// rather than a wrapped chain, since every Error here terminates at the RPC
// boundary and is rendered into a Response's error string, never unwrapped
// by a caller.
type Error struct {
	Kind    ErrorKind
	Message string
}

// Error satisfies the error interface.
func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

// Errorf constructs an *Error of the given kind with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsError reports whether err is (or wraps) an *Error, and returns it.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
