// Package coreio exposes asynchronous disk I/O, signal capture and
// bulk-transfer dispatch primitives for a cooperative, readiness-based
// event loop on Unix-like hosts.
package coreio

import (
	"syscall"

	"github.com/birchwood-labs/coreio/internal/cerr"
)

// Code is the high-level error category taxonomy shared by all three
// subsystems (AIO Manager, Signal Capture, Bulk Transfer Dispatcher).
type Code = cerr.Code

const (
	// CodeValue marks a precondition violation detectable synchronously
	// (bad capacity, negative argument, mis-sized region, wrong mode).
	CodeValue = cerr.CodeValue
	// CodeType marks a wrong kind of argument.
	CodeType = cerr.CodeType
	// CodeState marks an operation invalid in the object's current state
	// (already submitted, already queued).
	CodeState = cerr.CodeState
	// CodeSystem marks an underlying OS call failure; carries the errno.
	CodeSystem = cerr.CodeSystem
	// CodeOverflow marks an integer conversion out of range.
	CodeOverflow = cerr.CodeOverflow
	// CodeMemory marks an allocation failure.
	CodeMemory = cerr.CodeMemory
)

// Error is the structured error type returned by every coreio operation.
// It carries enough context (operation name, category, errno) for a
// caller to dispatch on cause without string matching.
type Error = cerr.Error

// New builds a structured error with no underlying errno.
func New(op string, code Code, msg string) *Error {
	return cerr.New(op, code, msg)
}

// NewErrno builds a structured SYSTEM error carrying the kernel errno.
func NewErrno(op string, errno syscall.Errno) *Error {
	return cerr.NewErrno(op, errno)
}

// Wrap attaches coreio context to an arbitrary error, mapping syscall.Errno
// values onto a Code the way the AIO/Signal/Bulk subsystems need.
func Wrap(op string, inner error) *Error {
	return cerr.Wrap(op, inner)
}

// IsCode reports whether err is a *Error (at any wrap depth) with the given Code.
func IsCode(err error, code Code) bool {
	return cerr.IsCode(err, code)
}
