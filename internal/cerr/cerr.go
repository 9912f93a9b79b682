// Package cerr implements the structured error type shared by the AIO,
// signal-capture and bulk-transfer subsystems, kept internal so the
// public coreio package can re-export it without an import cycle (the
// internal subsystem packages need to construct these errors too).
package cerr

import (
	"errors"
	"fmt"
	"syscall"
)

// Code is the high-level error category taxonomy.
type Code string

const (
	// CodeValue marks a precondition violation detectable synchronously
	// (bad capacity, negative argument, mis-sized region, wrong mode).
	CodeValue Code = "value"
	// CodeType marks a wrong kind of argument.
	CodeType Code = "type"
	// CodeState marks an operation invalid in the object's current state
	// (already submitted, already queued).
	CodeState Code = "state"
	// CodeSystem marks an underlying OS call failure; carries the errno.
	CodeSystem Code = "system"
	// CodeOverflow marks an integer conversion out of range.
	CodeOverflow Code = "overflow"
	// CodeMemory marks an allocation failure.
	CodeMemory Code = "memory"
)

// Error is the structured error type returned by every coreio operation.
type Error struct {
	Op    string
	Code  Code
	Errno syscall.Errno
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Errno != 0 {
		parts = append(parts, fmt.Sprintf("errno=%d", e.Errno))
	}
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if len(parts) > 0 {
		return fmt.Sprintf("coreio: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("coreio: %s", msg)
}

// Unwrap supports errors.Is/errors.As against Inner.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is lets a caller compare against a bare Code sentinel or another *Error
// by category.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if c, ok := target.(codeSentinel); ok {
		return e.Code == Code(c)
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

type codeSentinel Code

func (c codeSentinel) Error() string { return string(c) }

// New builds a structured error with no underlying errno.
func New(op string, code Code, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewErrno builds a structured SYSTEM error carrying the kernel errno.
func NewErrno(op string, errno syscall.Errno) *Error {
	return &Error{Op: op, Code: CodeSystem, Errno: errno, Msg: errno.Error()}
}

// Wrap attaches coreio context to an arbitrary error, mapping
// syscall.Errno values onto CodeSystem.
func Wrap(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	if ce, ok := inner.(*Error); ok {
		return &Error{Op: op, Code: ce.Code, Errno: ce.Errno, Msg: ce.Msg, Inner: ce.Inner}
	}
	if errno, ok := inner.(syscall.Errno); ok {
		return &Error{Op: op, Code: CodeSystem, Errno: errno, Msg: errno.Error(), Inner: inner}
	}
	return &Error{Op: op, Code: CodeSystem, Msg: inner.Error(), Inner: inner}
}

// IsCode reports whether err is a *Error (at any wrap depth) with the given Code.
func IsCode(err error, code Code) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}
