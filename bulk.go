package coreio

import "github.com/birchwood-labs/coreio/internal/bulktransfer"

// BulkDispatcher is a fixed-size worker-goroutine pool that copies byte
// ranges between file descriptors and in-memory regions, surfacing
// completions through a readable pipe. See internal/bulktransfer.
type BulkDispatcher = bulktransfer.Dispatcher

// NewBulkDispatcher starts workerCount worker goroutines backing the
// Dispatcher's shared request queue.
func NewBulkDispatcher(workerCount int) (*BulkDispatcher, error) {
	return bulktransfer.NewDispatcher(workerCount)
}

// BulkEndpoint is one side (source or destination) of a BulkRequest.
type BulkEndpoint = bulktransfer.Endpoint

// FileEndpoint builds a file-descriptor BulkEndpoint. Pass hasOffset=false
// for stream I/O (read/write); offset is ignored in that case.
func FileEndpoint(fd int, offset int64, hasOffset bool) BulkEndpoint {
	return bulktransfer.FileEndpoint(fd, offset, hasOffset)
}

// MemoryEndpoint builds an in-memory BulkEndpoint over region.
func MemoryEndpoint(region *Region) BulkEndpoint {
	return bulktransfer.MemoryEndpoint(region)
}

// BulkRequest represents copying a fixed byte count from one BulkEndpoint
// to another through a BulkDispatcher.
type BulkRequest = bulktransfer.Request

// NewBulkRequest builds an unqueued BulkRequest. length is the exact byte
// count to move; opaque is caller data round-tripped unchanged.
func NewBulkRequest(dispatcher *BulkDispatcher, src, dst BulkEndpoint, length uint64, opaque any) (*BulkRequest, error) {
	return bulktransfer.NewRequest(dispatcher, src, dst, length, opaque)
}
