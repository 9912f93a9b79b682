// Package bulktransfer implements a worker-goroutine pool that copies byte
// ranges between file descriptors and in-memory regions, reporting
// completion through a single readable pipe so a readiness-based event
// loop can observe it without blocking.
package bulktransfer

import (
	"syscall"
	"time"

	"github.com/birchwood-labs/coreio/internal/cerr"
	"github.com/birchwood-labs/coreio/internal/region"
)

// EndpointKind selects whether a transfer side is a file descriptor or an
// in-memory byte region.
type EndpointKind int

const (
	EndpointFile EndpointKind = iota
	EndpointMemory
)

// Endpoint is one side (source or destination) of a Request.
type Endpoint struct {
	Kind EndpointKind

	FD     int
	Offset int64
	// HasOffset selects positional I/O (pread/pwrite) when true, stream
	// I/O (read/write) when false — mirroring "offset present => pread/
	// pwrite; absent => stream I/O".
	HasOffset bool

	Region *region.Region
}

// FileEndpoint builds a FILE-kind endpoint. Pass hasOffset=false for
// stream I/O; offset is ignored in that case.
func FileEndpoint(fd int, offset int64, hasOffset bool) Endpoint {
	return Endpoint{Kind: EndpointFile, FD: fd, Offset: offset, HasOffset: hasOffset}
}

// MemoryEndpoint builds a MEMORY-kind endpoint over reg.
func MemoryEndpoint(reg *region.Region) Endpoint {
	return Endpoint{Kind: EndpointMemory, Region: reg}
}

// transferKind identifies which of the four copy strategies a Request
// uses, derived from its endpoints' kinds.
type transferKind int

const (
	transferFD2FD transferKind = iota
	transferFD2Mem
	transferMem2FD
	transferMem2Mem
)

func (e Endpoint) transferKind(dst Endpoint) transferKind {
	switch {
	case e.Kind == EndpointFile && dst.Kind == EndpointFile:
		return transferFD2FD
	case e.Kind == EndpointFile && dst.Kind == EndpointMemory:
		return transferFD2Mem
	case e.Kind == EndpointMemory && dst.Kind == EndpointFile:
		return transferMem2FD
	default:
		return transferMem2Mem
	}
}

// Request represents copying exactly Length bytes from src to dst. It is
// built unqueued, handed to its Dispatcher via Queue, and later returned
// (with its error/remaining fields populated) from the Dispatcher's
// Harvest.
type Request struct {
	dispatcher *Dispatcher

	src, dst Endpoint
	kind     transferKind

	length uint64
	lRem   uint64

	errno int
	stash []byte

	opaque any
	queued bool

	queuedAt time.Time

	next *Request // intrusive FIFO/LIFO link; advisory only
}

// NewRequest builds an unqueued Request bound to dispatcher. length is the
// exact byte count to move; opaque is caller data round-tripped unchanged.
func NewRequest(dispatcher *Dispatcher, src, dst Endpoint, length uint64, opaque any) (*Request, error) {
	if dispatcher == nil {
		return nil, cerr.New("bulktransfer.NewRequest", cerr.CodeValue, "nil dispatcher")
	}
	if src.Kind == EndpointMemory && src.Region == nil {
		return nil, cerr.New("bulktransfer.NewRequest", cerr.CodeValue, "nil source region")
	}
	if dst.Kind == EndpointMemory && dst.Region == nil {
		return nil, cerr.New("bulktransfer.NewRequest", cerr.CodeValue, "nil destination region")
	}
	return &Request{
		dispatcher: dispatcher,
		src:        src,
		dst:        dst,
		kind:       src.transferKind(dst),
		length:     length,
		lRem:       length,
		opaque:     opaque,
	}, nil
}

// Queue links the Request onto its Dispatcher's request FIFO. The Request
// must be UNQUEUED and have remaining bytes to copy.
func (r *Request) Queue() error {
	if r.lRem == 0 {
		return cerr.New("bulktransfer.Queue", cerr.CodeValue, "remaining length is zero")
	}
	if r.queued {
		return cerr.New("bulktransfer.Queue", cerr.CodeState, "request already queued")
	}
	r.errno = 0
	r.queuedAt = time.Now()
	return r.dispatcher.enqueue(r)
}

// Opaque returns the caller-supplied tag.
func (r *Request) Opaque() any { return r.opaque }

// SetOpaque replaces the caller-supplied tag.
func (r *Request) SetOpaque(v any) { r.opaque = v }

// Errno returns the cached error code (0 means no error since last queue).
func (r *Request) Errno() int { return r.errno }

// SetErrno allows the caller to reset or inspect the error code directly.
func (r *Request) SetErrno(v int) { r.errno = v }

// GetErrors surfaces a SYSTEM error iff the errno field is non-zero.
func (r *Request) GetErrors() error {
	if r.errno == 0 {
		return nil
	}
	e := cerr.New("bulktransfer.Request", cerr.CodeSystem, "transfer failed")
	if r.errno > 0 {
		e.Errno = syscall.Errno(r.errno)
	}
	return e
}

// MissingByteCount returns the number of bytes not yet copied.
func (r *Request) MissingByteCount() uint64 { return r.lRem }

// Queued reports whether the Request currently sits on a request or
// result list.
func (r *Request) Queued() bool { return r.queued }
