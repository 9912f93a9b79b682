//go:build linux

// Package sigcapture implements a process-wide, double-buffered capture of
// signal-info records, replacing the async-signal-safe C handler of the
// system this is modeled on with a dedicated reader goroutine draining a
// signalfd — the only cgo-free way to see the siginfo fields (pid, uid,
// status, value, band, fd) that os/signal discards.
package sigcapture

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// SigInfo is a thin wrapper around a single signalfd_siginfo record, the
// closest cgo-free analogue to a platform siginfo_t available to pure Go.
// It exposes the same field set the source spec calls out plus a raw byte
// view of the underlying record for callers that want to reinterpret it
// directly.
type SigInfo struct {
	raw unix.SignalfdSiginfo
}

func newSigInfo(raw unix.SignalfdSiginfo) SigInfo { return SigInfo{raw: raw} }

func (s SigInfo) Signo() uint32   { return s.raw.Signo }
func (s SigInfo) Errno() int32    { return s.raw.Errno }
func (s SigInfo) Code() int32     { return s.raw.Code }
func (s SigInfo) PID() uint32     { return s.raw.Pid }
func (s SigInfo) UID() uint32     { return s.raw.Uid }
func (s SigInfo) Status() int32   { return s.raw.Status }
func (s SigInfo) Utime() uint64   { return s.raw.Utime }
func (s SigInfo) Stime() uint64   { return s.raw.Stime }
func (s SigInfo) ValueInt() int32 { return s.raw.Int }
func (s SigInfo) ValuePtr() uint64 { return s.raw.Ptr }
func (s SigInfo) Int() int32      { return s.raw.Int }
func (s SigInfo) Ptr() uint64     { return s.raw.Ptr }
func (s SigInfo) Addr() uint64    { return s.raw.Addr }
func (s SigInfo) Band() uint32    { return s.raw.Band }
func (s SigInfo) FD() int32       { return s.raw.Fd }

// Bytes returns a raw byte view of the underlying signalfd_siginfo record,
// the equivalent of the source spec's buffer-protocol exposure of siginfo_t.
func (s *SigInfo) Bytes() []byte {
	return (*[unsafe.Sizeof(unix.SignalfdSiginfo{})]byte)(unsafe.Pointer(&s.raw))[:]
}
