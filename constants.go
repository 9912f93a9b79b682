package coreio

import "github.com/birchwood-labs/coreio/internal/constants"

// Re-exported tunable defaults. See internal/constants for documentation.
const (
	DefaultAIOCapacity   = constants.DefaultAIOCapacity
	DefaultAIOTimeoutSec = constants.DefaultAIOTimeoutSec
	DefaultSlotCapacity  = constants.DefaultSlotCapacity
	DefaultWorkerCount   = constants.DefaultWorkerCount
	CopyBufferSize       = constants.CopyBufferSize
)
