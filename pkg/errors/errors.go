// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package errors implements structured errors for the chunk codec, schema
// registry, and migrator. Every fallible operation in this module returns an
// [Error] carrying a [Status] code, a message, and an optional chained cause.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// trackLocation controls whether errors capture their call site. It is
// enabled by default and disabled for benchmarks.
var trackLocation = true

// EnableLocationTracking enables or disables call-site capture.
func EnableLocationTracking(on bool) { trackLocation = on }

// Error is a structured error.
type Error struct {
	Code      Status
	Message   string
	Cause     *Error
	CallStack []*CallSite
}

// CallSite records the location where an error was created or wrapped.
type CallSite struct {
	FuncName string
	File     string
	Line     int64
}

// Wrap wraps the given error with the status code. Wrap returns nil if err is
// nil.
func (s Status) Wrap(err error) error {
	if err == nil {
		// The return type must be `error`, otherwise callers comparing the
		// result against nil can get a typed nil
		return nil
	}

	// If err already carries a code and we'd add nothing, leave it alone
	if !trackLocation && !s.IsKnownError() {
		if _, ok := err.(*Error); ok {
			return err
		}
	}

	e := s.new(1)
	e.setCause(convert(err))
	return e
}

// With constructs an error with the given message values.
func (s Status) With(v ...interface{}) *Error {
	e := s.new(1)
	e.Message = fmt.Sprint(v...)
	return e
}

// WithFormat constructs an error with a formatted message. A %w verb chains
// the wrapped error as the cause.
func (s Status) WithFormat(format string, args ...interface{}) *Error {
	err := fmt.Errorf(format, args...)

	u, ok := err.(interface{ Unwrap() error })
	if ok {
		e := s.new(1)
		e.Message = err.Error()
		e.setCause(convert(u.Unwrap()))
		return e
	}

	e := convert(err)
	e.Code = s
	e.recordCallSite(2)
	return e
}

// WithCauseAndFormat constructs an error with a formatted message and an
// explicit cause.
func (s Status) WithCauseAndFormat(cause error, format string, args ...interface{}) *Error {
	e := s.new(1)
	e.Message = fmt.Sprintf(format, args...)
	e.setCause(convert(cause))
	return e
}

func (s Status) new(skip int) *Error {
	e := new(Error)
	e.Code = s
	e.recordCallSite(3 + skip)
	return e
}

func convert(err error) *Error {
	if x := (*Error)(nil); errors.As(err, &x) {
		return x
	}
	var msg string
	if err == nil {
		msg = "(nil)"
	} else {
		msg = err.Error()
	}
	if x := Status(0); errors.As(err, &x) {
		return &Error{Code: x, Message: msg}
	}

	e := &Error{
		Code:    UnknownError,
		Message: msg,
	}

	if u, ok := err.(interface{ Unwrap() error }); ok {
		if err := u.Unwrap(); err != nil {
			e.setCause(convert(err))
		}
	}

	return e
}

func (e *Error) setCause(f *Error) {
	e.Cause = f
	if f == nil {
		return
	}

	if e.Code.IsKnownError() {
		return
	}

	if e.Message != "" {
		// Copy the code
		e.Code = f.Code
		return
	}

	// Inherit everything
	cs := e.CallStack
	*e = *f
	e.CallStack = append(cs, f.CallStack...)
}

func (e *Error) recordCallSite(depth int) {
	if !trackLocation {
		return
	}

	pc, file, line, ok := runtime.Caller(depth)
	if !ok {
		return
	}

	cs := &CallSite{File: file, Line: int64(line)}
	fn := runtime.FuncForPC(pc)
	if fn != nil {
		cs.FuncName = fn.Name()
	}

	e.CallStack = append(e.CallStack, cs)
}

// CodeID returns the status code as a number.
func (e *Error) CodeID() uint64 { return uint64(e.Code) }

// Error implements error.
func (e *Error) Error() string {
	if e.Message == "" && e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the cause, or the status code if there is no cause.
func (e *Error) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return e.Code
}

func (e *Error) Format(f fmt.State, verb rune) {
	if f.Flag('+') {
		f.Write([]byte(e.Print()))
	} else {
		f.Write([]byte(e.Error()))
	}
}

// Print prints the error message plus its call stack and causal chain.
// Compound errors are usually formatted as '<description>: <cause>'. Print
// writes this out as:
//
//	<description>:
//	<call stack>
//
//	<cause>
//	<call stack>
func (e *Error) Print() string {
	if e.CallStack == nil {
		return e.Error()
	}

	var str []string
	for e != nil {
		msg := e.Message
		if msg == "" {
			msg = e.Code.String()
		} else if e.Cause != nil {
			msg = strings.TrimSuffix(msg, e.Cause.Message)
		}

		str = append(str, msg+"\n"+e.printCallstack())
		e = e.Cause
	}
	return strings.Join(str, "\n")
}

func (e *Error) printCallstack() string {
	var str string
	for _, cs := range e.CallStack {
		str += fmt.Sprintf("%s\n    %s:%d\n", cs.FuncName, cs.File, cs.Line)
	}
	return str
}

// Is returns true if the target is a status code or error with the same code
// as this error or any of its causes.
func (e *Error) Is(target error) bool {
	switch f := target.(type) {
	case *Error:
		if e.Code == f.Code {
			return true
		}
	case Status:
		if e.Code == f {
			return true
		}
	}
	if e.Cause != nil {
		return e.Cause.Is(target)
	}
	return false
}
