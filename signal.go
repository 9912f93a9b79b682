package coreio

import "github.com/birchwood-labs/coreio/internal/sigcapture"

// SignalCapture is a double-buffered, overflow-tracking store of captured
// signal records, fed by a background reader standing in for an
// async-signal-safe handler. See internal/sigcapture for the
// implementation and its Open Question writeup on that substitution.
type SignalCapture = sigcapture.Capture

// NewSignalCapture builds a SignalCapture with room for capacity records
// per slot (falls back to a package default if capacity <= 0).
func NewSignalCapture(capacity int) *SignalCapture {
	return sigcapture.New(capacity)
}

// SigInfo is a captured signal record exposing the same fields a
// SA_SIGINFO handler would see (pid, uid, status, value, band, fd, ...).
type SigInfo = sigcapture.SigInfo

// SignalSet is a mutable set of signal numbers, used to mark which
// signals are high priority.
type SignalSet = sigcapture.SignalSet

// NewSignalSet builds an empty SignalSet.
func NewSignalSet() *SignalSet {
	return sigcapture.NewSignalSet()
}
