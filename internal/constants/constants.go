// Package constants holds tunable defaults shared across the AIO,
// signal-capture and bulk-transfer subsystems.
package constants

// AIO Manager defaults
const (
	// DefaultAIOCapacity is the default kernel AIO context size (N) when a
	// caller doesn't pick one explicitly.
	DefaultAIOCapacity = 128

	// DefaultAIOTimeoutSec is a suggested bound, in seconds, for harvest()
	// calls that have no caller-chosen timeout; nothing in this module
	// applies it. The public API takes a negative timeout
	// (AIOTimeoutForever) for "wait indefinitely".
	DefaultAIOTimeoutSec = 30
)

// Signal Capture defaults
const (
	// DefaultSlotCapacity is the default front/back slot length (L).
	DefaultSlotCapacity = 64

	// SignalfdReadBatch bounds how many SignalfdSiginfo records the reader
	// goroutine drains from the signalfd in one read(2).
	SignalfdReadBatch = 16
)

// Bulk Transfer Dispatcher defaults
const (
	// DefaultWorkerCount is the default worker goroutine count (W).
	DefaultWorkerCount = 4

	// CopyBufferSize matches the largest heap buffer (1 MiB) the non-splice
	// fd2fd fallback copies through per round; internal/bulktransfer uses
	// its own pool bucket of that size and does not read this constant.
	// fd2mem/mem2fd copies use no heap buffer.
	CopyBufferSize = 1 << 20

	// SpliceTrampolineSize caps how many bytes the Linux splice fast path
	// asks a single splice call to move into a worker's intermediate pipe;
	// the pipe itself keeps its default capacity.
	SpliceTrampolineSize = 1 << 20
)
