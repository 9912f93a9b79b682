package coreio

import "github.com/birchwood-labs/coreio/internal/region"

// Region models "a byte region with a lifetime and a write-permission
// flag": an externally-owned byte slice a Request borrows for the
// interval between submission and harvest. It stands in for whatever
// buffer/memoryview type a language binding would wrap around it.
//
// writable must be true for a destination region (a kernel READ writes
// into it, so it must be writable) and false for a pure source region.
// See internal/region for the implementation shared by the AIO and
// bulk-transfer subsystems.
type Region = region.Region

// NewRegion wraps an existing byte slice for use as an AIO or bulk
// transfer Request operand.
func NewRegion(b []byte, writable bool) *Region {
	return region.New(b, writable)
}
