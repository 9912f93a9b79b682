package coreio

import (
	"time"

	"github.com/birchwood-labs/coreio/internal/aio"
)

// AIOManager submits and harvests kernel AIO requests against a single
// io_context_t, surfacing completions through an eventfd suitable for a
// readiness-based event loop. See internal/aio for the implementation.
type AIOManager = aio.Manager

// NewAIOManager opens a kernel AIO context with room for capacity
// in-flight requests and its own eventfd completion descriptor.
func NewAIOManager(capacity uint32) (*AIOManager, error) {
	return aio.NewManager(capacity)
}

// AIOMode selects whether an AIORequest reads or writes.
type AIOMode = aio.Mode

const (
	AIOModeRead  = aio.ModeRead
	AIOModeWrite = aio.ModeWrite
)

// AIORequest is a single pending or completed AIO operation.
type AIORequest = aio.Request

// NewAIORequest builds an unsubmitted AIORequest. region must be writable
// for AIOModeRead (the kernel writes into it) and may be read-only for
// AIOModeWrite.
func NewAIORequest(mode AIOMode, region *Region, fd int, offset int64) (*AIORequest, error) {
	return aio.NewRequest(mode, region, fd, offset)
}

// AIOTimeoutForever tells AIOManager.Harvest to block until minNr
// completions are available, with no deadline.
const AIOTimeoutForever = time.Duration(-1)
