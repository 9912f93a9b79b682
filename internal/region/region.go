// Package region implements the shared byte-region primitive used by both
// the AIO and bulk-transfer subsystems: "a byte region with a lifetime and
// a write-permission flag", standing in for whatever buffer/memoryview
// type a language binding would wrap around borrowed bytes.
package region

// Region wraps an externally-owned byte slice a Request borrows for the
// interval between submission and harvest. It does not copy or own the
// underlying bytes — the caller must keep them alive and must not touch
// them while Claimed() is true.
type Region struct {
	Bytes    []byte
	Writable bool
	claimed  bool
}

// New wraps an existing byte slice. writable must be true for a
// destination region (a kernel READ writes into it, so it must be
// writable) and false for a pure source region (a kernel WRITE only
// reads from it).
func New(b []byte, writable bool) *Region {
	return &Region{Bytes: b, Writable: writable}
}

// Len returns the region's byte length.
func (r *Region) Len() int { return len(r.Bytes) }

// Claimed reports whether an AIO Manager currently holds this region's
// ownership claim. Bulk-transfer Requests do not claim their regions, so
// Claimed stays false while a Dispatcher copies into or out of one.
func (r *Region) Claimed() bool { return r.claimed }

// Claim marks the region as owned by the in-flight Request. A double
// claim indicates a Request-lifecycle bug rather than caller error, since
// claim/release is internal bookkeeping invisible to the caller.
func (r *Region) Claim() {
	if r.claimed {
		panic("coreio: region already claimed")
	}
	r.claimed = true
}

// Release returns the region's ownership claim to the caller.
func (r *Region) Release() {
	r.claimed = false
}

// Slice returns the sub-region starting at off, for restart-after-short-IO
// bookkeeping ("offset into the destination region by length − l_rem").
func (r *Region) Slice(off int) []byte {
	return r.Bytes[off:]
}
